package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yuirsilva/deadline-daddy/internal/auth"
	"github.com/yuirsilva/deadline-daddy/internal/payment/abacatepay"
	"github.com/yuirsilva/deadline-daddy/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var withSweep bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

With --sweep the deadline sweep also runs in-process every SWEEP_INTERVAL,
in addition to the /api/cron/deadline-check trigger.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), withSweep)
		},
	}
	cmd.Flags().BoolVar(&withSweep, "sweep", false, "run the deadline sweep in-process")
	return cmd
}

func serve(parent context.Context, withSweep bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sweeper, err := a.sweeper()
	if err != nil {
		return err
	}

	srv := server.New(a.cfg, server.Deps{
		Store:      a.store,
		Tokens:     auth.NewTokenManager(a.cfg.JWTSecret, a.cfg.JWTIssuer, a.cfg.JWTTTL.Duration),
		Tasks:      a.tasks(),
		Deposits:   a.deposits(),
		Sweeper:    sweeper,
		ParseEvent: abacatepay.ParseEvent,
		Log:        a.log,
	})

	if withSweep {
		go sweeper.Loop(ctx, a.cfg.SweepInterval.Duration)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("deadline-daddy listening", zap.String("addr", a.cfg.HTTPAddress()))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn("graceful shutdown error", zap.Error(err))
	}
	return nil
}
