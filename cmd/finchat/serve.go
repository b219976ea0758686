package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matiasleandrokruk/finchat/internal/api"
	"github.com/matiasleandrokruk/finchat/internal/domain/chat"
	"github.com/matiasleandrokruk/finchat/internal/domain/records"
	"github.com/matiasleandrokruk/finchat/internal/infra/eventbus"
	"github.com/matiasleandrokruk/finchat/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("host") {
				a.cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default $FINCHAT_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default $FINCHAT_PORT)")
	return cmd
}

// serve runs the HTTP API until ctx is canceled.
func (a *app) serve(ctx context.Context) error {
	defer a.logger.Sync() //nolint:errcheck

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}

	orch := a.orchestrator(ctx)
	a.logger.Info("backends ready",
		zap.Bool("session", orch.Status().Session),
		zap.Bool("http", orch.Status().HTTP),
		zap.Bool("extractive", orch.Status().Extractive),
	)

	bus := eventbus.New()
	stats := chat.NewStats()
	stats.Start(ctx, bus)

	svc := chat.NewService(orch, records.NewUserService(db), records.NewChatLogService(db), bus, a.logger)

	cfg := server.DefaultConfig()
	cfg.Host, cfg.Port = a.cfg.Host, a.cfg.Port
	srv := server.NewServer(api.Deps{
		DB:     db,
		Chat:   svc,
		Status: orch,
		Stats:  stats,
		Logger: a.logger,
	}, cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		db.Close() //nolint:errcheck
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
