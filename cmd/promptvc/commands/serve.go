package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptvc/promptvc/config"
	"github.com/promptvc/promptvc/db"
	"github.com/promptvc/promptvc/errors"
	"github.com/promptvc/promptvc/logger"
	"github.com/promptvc/promptvc/server"
	"github.com/promptvc/promptvc/version"
)

// ServeCmd represents the serve command
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the promptvc HTTP server",
	Long: `Start the HTTP server exposing prompt version tracking.

The server applies pending schema migrations on startup and listens on the
configured port (server.port, default 8710).

Examples:
  promptvc serve
  promptvc serve --port 9000
  PROMPTVC_AUTH_TOKEN=... promptvc serve`,
	RunE: runServe,
}

var servePortFlag int

func init() {
	ServeCmd.Flags().IntVar(&servePortFlag, "port", 0, "Override the configured server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if servePortFlag > 0 {
		cfg.Server.Port = &servePortFlag
	}

	database, err := db.OpenWithMigrations(cfg.Database.Path, logger.Logger)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer database.Close()

	logger.Infow("Starting promptvc",
		"version", version.Get().Short(),
		"database", cfg.Database.Path,
		"port", cfg.ServerPort(),
	)

	srv := server.New(database, cfg, logger.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Infow("Received shutdown signal", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return errors.Wrap(err, "shutdown failed")
		}
		return nil
	}
}
