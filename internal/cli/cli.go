// Package cli implements the operator command line: serving the site and the
// moderation, account and maintenance commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
)

// consoleActor is recorded as the decision actor for CLI moderation.
const consoleActor = "Console"

var ErrUsage = errors.New("usage")

// Backend is the running system the commands operate on.
type Backend interface {
	Serve(ctx context.Context) error
	Migrate(ctx context.Context) error
	Wipe(ctx context.Context) error
	ProvisionOperator(ctx context.Context, email string) (string, error)
	Registrations() ports.RegistrationService
	AllowList() ports.AllowList
	SendDirect(ctx context.Context, to, text string) error
	Close() error
}

// Opener connects a Backend. Commands that need no storage never call it.
type Opener func(ctx context.Context) (Backend, error)

// Config holds what the commands need besides the Backend.
type Config struct {
	// StatusURL is probed by the status command.
	StatusURL  string
	WipeSecret string
}

// App dispatches a single command line.
type App struct {
	cfg    Config
	open   Opener
	out    io.Writer
	client *http.Client
	now    func() time.Time
}

func NewApp(cfg Config, open Opener, out io.Writer) *App {
	return &App{
		cfg:    cfg,
		open:   open,
		out:    out,
		client: &http.Client{Timeout: 5 * time.Second},
		now:    time.Now,
	}
}

const usage = `usage: webster <command> [args]

commands:
  serve                              start the web server
  status                             probe the running server
  migrate                            apply database migrations
  alogin <email>                     create or rotate an operator account
  reg list [all|pending|accepted|denied]
  reg accept <ign>                   accept a request and allow-list it
  reg deny <ign> <reason...>         deny a request
  email <to> <text...>               send a direct email
  dwipe [token]                      wipe all data (prints a token first)
`

// Run executes args. An empty command line defaults to serve.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"serve"}
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	case "status":
		return a.status(ctx)
	case "dwipe":
		if len(rest) == 0 {
			return a.wipeToken()
		}
		if err := a.checkWipeToken(rest[0]); err != nil {
			return err
		}
	}

	var run func(context.Context, Backend, []string) error
	switch cmd {
	case "serve":
		run = func(ctx context.Context, b Backend, _ []string) error { return b.Serve(ctx) }
	case "migrate":
		run = a.migrate
	case "alogin":
		run = a.alogin
	case "reg":
		run = a.reg
	case "email":
		run = a.email
	case "dwipe":
		run = a.wipe
	default:
		fmt.Fprint(a.out, usage)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}

	b, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer b.Close()
	return run(ctx, b, rest)
}

func (a *App) status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.StatusURL, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		fmt.Fprintln(a.out, "webster is not running")
		return fmt.Errorf("status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(a.out, "webster is unhealthy (%d)\n", resp.StatusCode)
		return fmt.Errorf("status: unexpected code %d", resp.StatusCode)
	}
	fmt.Fprintln(a.out, "webster is running")
	return nil
}

func (a *App) migrate(ctx context.Context, b Backend, _ []string) error {
	if err := b.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

func (a *App) alogin(ctx context.Context, b Backend, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: alogin <email>", ErrUsage)
	}
	credential, err := b.ProvisionOperator(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "operator %s\npassword: %s\nstore it now, it will not be shown again\n", args[0], credential)
	return nil
}

func (a *App) reg(ctx context.Context, b Backend, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: reg list|accept|deny", ErrUsage)
	}
	switch args[0] {
	case "list":
		return a.regList(ctx, b, args[1:])
	case "accept":
		if len(args) != 2 {
			return fmt.Errorf("%w: reg accept <ign>", ErrUsage)
		}
		return a.regAccept(ctx, b, args[1])
	case "deny":
		if len(args) < 3 {
			return fmt.Errorf("%w: reg deny <ign> <reason...>", ErrUsage)
		}
		if _, err := b.Registrations().Deny(ctx, args[1], consoleActor, strings.Join(args[2:], " ")); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "denied %s\n", args[1])
		return nil
	default:
		return fmt.Errorf("%w: unknown reg subcommand %q", ErrUsage, args[0])
	}
}

func (a *App) regList(ctx context.Context, b Backend, args []string) error {
	filter := domain.FilterAll
	if len(args) > 0 {
		f, err := domain.ParseStatusFilter(args[0])
		if err != nil {
			return err
		}
		filter = f
	}

	requests, err := b.Registrations().List(ctx, filter)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		fmt.Fprintln(a.out, "no registrations")
		return nil
	}
	for _, r := range requests {
		fmt.Fprintf(a.out, "IGN: %s, Discord: %s, Telegram: %s, Email: %s, Type: %s, Status: %s\n",
			r.Identifier, r.ContactHandle, orNone(r.SecondaryContact), r.Email, r.Category, r.Status)
	}
	return nil
}

func (a *App) regAccept(ctx context.Context, b Backend, ign string) error {
	acceptance, err := b.Registrations().Accept(ctx, ign, consoleActor)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "accepted %s (matched %s)\n", acceptance.Request.Identifier, strings.Join(acceptance.Matched, ", "))

	commands, err := b.AllowList().Allow(ctx, acceptance)
	for _, c := range commands {
		fmt.Fprintf(a.out, "allow-list: %s\n", c)
	}
	if err != nil {
		fmt.Fprintf(a.out, "allow-list failed: %v\n", err)
	}
	return nil
}

func (a *App) email(ctx context.Context, b Backend, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: email <to> <text...>", ErrUsage)
	}
	if err := b.SendDirect(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "email sent to %s\n", args[0])
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
