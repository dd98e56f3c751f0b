// @title          Webster API
// @version        1.0
// @description    Account, registration moderation and site content API.
// @BasePath       /
// @securityDefinitions.apikey BearerAuth
// @in             header
// @name           Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/webster-hq/webster/internal/app"
	"github.com/webster-hq/webster/internal/cli"
	"github.com/webster-hq/webster/internal/pkg/config"
	"github.com/webster-hq/webster/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "webster",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	open := func(ctx context.Context) (cli.Backend, error) {
		return app.New(ctx, cfg, log)
	}
	commands := cli.NewApp(cli.Config{
		StatusURL:  statusURL(cfg.Addr()),
		WipeSecret: cfg.WipeSecret,
	}, open, os.Stdout)

	if err := commands.Run(ctx, os.Args[1:]); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

// statusURL turns a listen address into the health URL of the local server.
func statusURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/health"
}
