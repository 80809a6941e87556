package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuirsilva/deadline-daddy/internal/sweep"
)

// NewSweepCommand creates the sweep command.
func NewSweepCommand() *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Fail expired tasks and charge their penalties",
		Long: `Run the deadline sweep once and print its summary as JSON.

With --every the sweep repeats at that interval until interrupted.

Example:
  deadline-daddy sweep
  deadline-daddy sweep --every 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
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
			if every > 0 {
				sweeper.Loop(ctx, every)
				return nil
			}
			return sweepOnce(ctx, cmd, sweeper)
		},
	}
	cmd.Flags().DurationVar(&every, "every", 0, "repeat at this interval instead of running once")
	return cmd
}

func sweepOnce(ctx context.Context, cmd *cobra.Command, sweeper *sweep.Sweeper) error {
	summary, err := sweeper.Run(ctx)
	if errors.Is(err, sweep.ErrAlreadyRunning) {
		cmd.PrintErrln("another sweep holds the lock; nothing to do")
		return nil
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
