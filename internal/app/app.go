// Package app wires configuration, storage, services and transport into a
// runnable process.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/webster-hq/webster/internal/api"
	"github.com/webster-hq/webster/internal/api/handler"
	"github.com/webster-hq/webster/internal/core/domain"
	"github.com/webster-hq/webster/internal/core/ports"
	"github.com/webster-hq/webster/internal/core/service"
	"github.com/webster-hq/webster/internal/infrastructure/db/postgres"
	"github.com/webster-hq/webster/internal/infrastructure/db/redis"
	"github.com/webster-hq/webster/internal/infrastructure/mail"
	"github.com/webster-hq/webster/internal/infrastructure/queue"
	"github.com/webster-hq/webster/internal/infrastructure/whitelist"
	"github.com/webster-hq/webster/internal/pkg/config"
	"github.com/webster-hq/webster/internal/pkg/randstr"
	"github.com/webster-hq/webster/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// ErrEmailDisabled is returned by SendDirect when email is turned off.
var ErrEmailDisabled = errors.New("email is disabled")

// App owns every long-lived resource of the process.
type App struct {
	cfg *config.Config
	log zerolog.Logger

	db     *sql.DB
	rdb    *goredis.Client
	outbox *redis.Outbox
	store  *postgres.Store

	tokens        *service.TokenAuthority
	auth          *service.AuthService
	registrations *service.RegistrationService
	content       *service.ContentService
	allow         *whitelist.Runner

	mailer     *mail.Mailer
	dispatcher *queue.Dispatcher
}

// New connects to Postgres, and to Redis and SMTP when email is enabled, and
// builds the services on top of them.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	a.db = db
	a.store = postgres.NewStore(db)

	var notifier ports.Notifier = queue.Discard{Log: logger.For(log, "notifier")}
	if cfg.Email.Enabled {
		if err := a.connectEmail(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		notifier = a.dispatcher
	}

	now := time.Now
	gen := randstr.New(nil)
	a.tokens = service.NewTokenAuthority(a.store.Members(), a.store.Operators(), gen, now)
	a.auth = service.NewAuthService(
		a.store.Members(), a.store.Operators(), a.tokens, gen, notifier,
		service.AuthConfig{EmailEnabled: cfg.Email.Enabled, VerificationLinkBase: cfg.Email.VerificationLinkBase},
		now, logger.For(log, "auth"),
	)
	a.registrations = service.NewRegistrationService(a.store, notifier, cfg.Registration.AdminEmails, now, logger.For(log, "registration"))
	a.content = service.NewContentService(a.store, now, logger.For(log, "content"))
	a.allow = whitelist.New(whitelist.Config{
		Java:    cfg.Whitelist.Java,
		Bedrock: cfg.Whitelist.Bedrock,
		Exec:    cfg.Whitelist.Exec,
	}, logger.For(log, "whitelist"))

	return a, nil
}

func (a *App) connectEmail(ctx context.Context) error {
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:        a.cfg.Redis.Addr,
		Password:    a.cfg.Redis.Password,
		DB:          a.cfg.Redis.DB,
		PoolSize:    a.cfg.Redis.PoolSize,
		ReadTimeout: a.cfg.Redis.ReadTimeout,
	})
	if err != nil {
		return err
	}
	a.rdb = rdb

	renderer, err := mail.NewRenderer(a.cfg.Email.TemplateDir)
	if err != nil {
		return err
	}
	a.mailer, err = mail.NewMailer(mail.Config{
		Host:          a.cfg.Email.SMTPHost,
		Port:          a.cfg.Email.SMTPPort,
		Username:      a.cfg.Email.SMTPUsername,
		Password:      a.cfg.Email.SMTPPassword,
		From:          a.cfg.Email.From,
		DirectSubject: a.cfg.Email.DirectSubject,
	}, renderer)
	if err != nil {
		return err
	}

	a.outbox = redis.NewOutbox(rdb, a.cfg.Redis.OutboxKey)
	a.dispatcher = queue.NewDispatcher(a.cfg.Email.Workers, a.outbox, a.mailer, logger.For(a.log, "dispatcher"))
	return nil
}

// Router builds the HTTP handler tree.
func (a *App) Router() http.Handler {
	checks := map[string]handler.Check{"postgres": a.store.Ping}
	if a.outbox != nil {
		checks["redis"] = a.outbox.Check
	}
	return api.NewRouter(api.Deps{
		Log:           a.log,
		Auth:          a.auth,
		Tokens:        a.tokens,
		Registrations: a.registrations,
		AllowList:     a.allow,
		Content:       a.content,
		Checks:        checks,
		StaticDir:     a.cfg.StaticDir,
	})
}

// Serve applies migrations, starts the notification workers and the HTTP
// server, and blocks until ctx is cancelled. Shutdown drains in-flight
// requests before the workers are stopped.
func (a *App) Serve(ctx context.Context) error {
	if err := a.Migrate(ctx); err != nil {
		return err
	}

	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()
	if a.dispatcher != nil {
		a.dispatcher.Start(workerCtx)
	}

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)

	stopWorkers()
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}
	return err
}

// Migrate applies pending schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	return postgres.Migrate(ctx, a.db)
}

// Wipe drops and recreates every table.
func (a *App) Wipe(ctx context.Context) error {
	return postgres.Wipe(ctx, a.db)
}

// ProvisionOperator creates or rotates an operator and returns the new
// credential.
func (a *App) ProvisionOperator(ctx context.Context, email string) (string, error) {
	return a.auth.ProvisionOperator(ctx, email)
}

func (a *App) Registrations() ports.RegistrationService { return a.registrations }

func (a *App) AllowList() ports.AllowList { return a.allow }

// SendDirect delivers an operator-written message immediately, bypassing the
// outbox.
func (a *App) SendDirect(ctx context.Context, to, text string) error {
	if a.mailer == nil {
		return ErrEmailDisabled
	}
	return a.mailer.Send(ctx, domain.Notification{
		ID:        uuid.NewString(),
		Kind:      domain.NotifyDirect,
		To:        to,
		Data:      map[string]string{"text": text},
		CreatedAt: time.Now(),
	})
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
