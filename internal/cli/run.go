package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Script   string
	Database string
	Interval time.Duration
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler loop",
		Long: `Run the scheduler loop: tick at a fixed interval until
interrupted.

Each tick delivers a time event to every trip and applies scheduled
actions that have come due. Stop with Ctrl-C or SIGTERM.

Example:
  waypost run --db ./waypost.db --script ./tour.yaml --interval 30s`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "path to script document (required)")
	_ = cmd.MarkFlagRequired("script")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 30*time.Second, "tick interval")

	return cmd
}

func runLoop(opts *RunOptions, cmd *cobra.Command) error {
	r, st, err := openRunner(opts.Script, opts.Database)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("scheduler running", "interval", opts.Interval)
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	// One pass up front so work due at startup is not delayed a full
	// interval.
	if err := r.Tick(ctx, time.Now().UTC()); err != nil {
		slog.Error("tick failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return nil
		case now := <-ticker.C:
			if err := r.Tick(ctx, now.UTC()); err != nil {
				slog.Error("tick failed", "error", err)
			}
		}
	}
}
