package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/waypost-hq/waypost/internal/trip"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Script   string
	Database string
	Title    string
	Timezone string
	Schedule []string
	At       string
}

// CreatedTrip is the create command's output payload.
type CreatedTrip struct {
	TripID string `json:"trip_id"`
	Scene  string `json:"scene"`
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a trip for a script",
		Long: `Create a trip: a running instance of a script.

The trip starts in the script's first scene with role records and the
given schedule seeded into its context.

Example:
  waypost create --db ./waypost.db --script ./tour.yaml \
    --title "Saturday 2pm" --schedule checkin=2022-03-01T14:00:00Z`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "path to script document (required)")
	_ = cmd.MarkFlagRequired("script")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Title, "title", "", "trip title")
	cmd.Flags().StringVar(&opts.Timezone, "timezone", "UTC", "trip timezone (IANA name)")
	cmd.Flags().StringArrayVar(&opts.Schedule, "schedule", nil,
		"schedule entry as name=RFC3339 (repeatable)")
	cmd.Flags().StringVar(&opts.At, "at", "", "creation timestamp (RFC3339, default now)")

	return cmd
}

func runCreate(opts *CreateOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	at, err := parseAt(opts.At)
	if err != nil {
		return err
	}
	schedule, err := parseSchedule(opts.Schedule)
	if err != nil {
		return err
	}

	r, st, err := openRunner(opts.Script, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	tr, err := r.CreateTrip(context.Background(), opts.Title, opts.Timezone, schedule, at)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create trip", err)
	}

	if opts.Format == "json" {
		return formatter.Success(CreatedTrip{
			TripID: tr.ID,
			Scene:  tr.EvalContext.CurrentSceneName(),
		})
	}
	fmt.Fprintf(formatter.Writer, "Created trip %s (scene %s)\n",
		tr.ID, tr.EvalContext.CurrentSceneName())
	return nil
}

// parseSchedule decodes name=RFC3339 pairs, normalizing timestamps to
// the wire format.
func parseSchedule(entries []string) (map[string]any, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	schedule := map[string]any{}
	for _, entry := range entries {
		name, raw, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			return nil, NewExitError(ExitCommandError,
				fmt.Sprintf("invalid --schedule entry %q: want name=RFC3339", entry))
		}
		at, err := trip.ParseTime(raw)
		if err != nil {
			return nil, WrapExitError(ExitCommandError,
				fmt.Sprintf("invalid --schedule timestamp for %q", name), err)
		}
		schedule[name] = trip.FormatTime(at)
	}
	return schedule, nil
}
