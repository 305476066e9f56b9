package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// TickOptions holds flags for the tick command.
type TickOptions struct {
	*RootOptions
	Script   string
	Database string
	At       string
}

// NewTickCommand creates the tick command.
func NewTickCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TickOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one scheduler pass",
		Long: `Run one scheduler pass: deliver a time event to every trip and
apply any scheduled actions that have come due.

Passing --at a past or future timestamp evaluates the pass as of that
moment, which makes ticks reproducible in tests and backfills.

Example:
  waypost tick --db ./waypost.db --script ./tour.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTick(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "path to script document (required)")
	_ = cmd.MarkFlagRequired("script")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.At, "at", "", "tick timestamp (RFC3339, default now)")

	return cmd
}

func runTick(opts *TickOptions, cmd *cobra.Command) error {
	at, err := parseAt(opts.At)
	if err != nil {
		return err
	}

	r, st, err := openRunner(opts.Script, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := r.Tick(context.Background(), at); err != nil {
		return WrapExitError(ExitCommandError, "tick failed", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
		return formatter.Success(map[string]any{"ticked_at": at})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ticked at %s\n", at.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}
