package cli

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/waypost-hq/waypost/internal/trip"
)

// EventOptions holds flags for the event command.
type EventOptions struct {
	*RootOptions
	Script   string
	Database string
	Fields   string
	At       string
}

// NewEventCommand creates the event command.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "event <trip-id> <event-type>",
		Short: "Deliver an external event to a trip",
		Long: `Deliver an external event to a trip, firing any triggers that
match it.

Example:
  waypost event --db ./waypost.db --script ./tour.yaml \
    TRIP-ID text_received --fields '{"from":"Player","content":"hi"}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvent(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "path to script document (required)")
	_ = cmd.MarkFlagRequired("script")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Fields, "fields", "{}", "event fields as JSON")
	cmd.Flags().StringVar(&opts.At, "at", "", "evaluation timestamp (RFC3339, default now)")

	return cmd
}

func runEvent(opts *EventOptions, tripID, eventType string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(opts.Fields), &fields); err != nil {
		return WrapExitError(ExitCommandError, "invalid --fields JSON", err)
	}
	at, err := parseAt(opts.At)
	if err != nil {
		return err
	}

	r, st, err := openRunner(opts.Script, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := r.Deliver(context.Background(), tripID,
		trip.Event{Type: eventType, Fields: fields}, at)
	if err != nil {
		return WrapExitError(ExitCommandError, "event delivery failed", err)
	}

	return outputPass(formatter, tripID, result)
}
