package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/runnerr0/rankscope/internal/config"
	"github.com/runnerr0/rankscope/internal/server"
	"github.com/runnerr0/rankscope/internal/storage"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, logger, err := prepare(c.globals)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.executeWithConfig(ctx, cfg, logger)
}

// executeWithConfig serves until ctx is cancelled (for testing).
func (c *ServeCommand) executeWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var store storage.Store
	if cfg.Export.SQLitePath != "" {
		s, err := storage.Open(ctx, cfg.Export.SQLitePath, cfg.Export.SQLiteJournalMode)
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
		logger.Info("saving reports", "database", cfg.Export.SQLitePath)
	}

	return server.New(cfg, store, logger, c.version).ListenAndServe(ctx)
}
