// Package whitelist grants server access to accepted registrations by
// rendering allow-list commands from per-platform templates.
package whitelist

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/core/domain"
)

// Placeholder is replaced by the platform handle in command templates.
const Placeholder = "{ign}"

const execTimeout = 10 * time.Second

// Config holds the command templates and the optional program that runs them.
type Config struct {
	Java    string
	Bedrock string
	// Exec is split on whitespace; each rendered command is appended as the
	// final argument.
	Exec string
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Runner renders and dispatches allow-list commands.
type Runner struct {
	cfg Config
	run runFunc
	log zerolog.Logger
}

func New(cfg Config, log zerolog.Logger) *Runner {
	return &Runner{cfg: cfg, run: runCommand, log: log}
}

// Commands renders the Java template with the first handle and the Bedrock
// template with the second, skipping absent handles.
func (r *Runner) Commands(acceptance domain.Acceptance) []string {
	id := acceptance.Request.Identifier
	var cmds []string
	if java := id.Java(); java != "" && r.cfg.Java != "" {
		cmds = append(cmds, strings.ReplaceAll(r.cfg.Java, Placeholder, java))
	}
	if bedrock := id.Bedrock(); bedrock != "" && r.cfg.Bedrock != "" {
		cmds = append(cmds, strings.ReplaceAll(r.cfg.Bedrock, Placeholder, bedrock))
	}
	return cmds
}

// Allow dispatches every command for acceptance and returns the rendered
// commands. Without an Exec program the commands are only logged for the
// operator to run. Every command is attempted; failures are joined.
func (r *Runner) Allow(ctx context.Context, acceptance domain.Acceptance) ([]string, error) {
	cmds := r.Commands(acceptance)
	program := strings.Fields(r.cfg.Exec)

	var errs []error
	for _, cmd := range cmds {
		if len(program) == 0 {
			r.log.Info().Str("command", cmd).Int64("request_id", acceptance.Request.ID).Msg("allow-list command")
			continue
		}

		runCtx, cancel := context.WithTimeout(ctx, execTimeout)
		args := append(append([]string{}, program[1:]...), cmd)
		out, err := r.run(runCtx, program[0], args...)
		cancel()

		if err != nil {
			r.log.Error().Err(err).Str("command", cmd).Bytes("output", out).Msg("allow-list command failed")
			errs = append(errs, fmt.Errorf("%s: %w", cmd, err))
			continue
		}
		r.log.Info().Str("command", cmd).Int64("request_id", acceptance.Request.ID).Msg("allow-list command executed")
	}
	return cmds, errors.Join(errs...)
}
