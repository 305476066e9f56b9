package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/spf13/cobra"

	"github.com/waypost-hq/waypost/internal/ops"
	"github.com/waypost-hq/waypost/internal/store"
	"github.com/waypost-hq/waypost/internal/trip"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	TripID   string // optional - specific trip only
}

// ReplayTripResult holds the replay result for a single trip.
type ReplayTripResult struct {
	TripID     string `json:"trip_id"`
	OpsApplied int    `json:"ops_applied"`
	Consistent bool   `json:"consistent"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Trips         []ReplayTripResult `json:"trips"`
	TotalTrips    int                `json:"total_trips"`
	AllConsistent bool               `json:"all_consistent"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Refold op logs and verify stored contexts",
		Long: `Refold each trip's op log from an empty context and verify the
result matches the trip's stored context.

The op log starts with the trip's seed, so a consistent trip refolds
exactly. A mismatch means the log and the stored state have diverged.

Exit codes:
  0 - All trips are consistent
  1 - One or more trips diverged
  2 - Command error (database not found, etc.)

Examples:
  waypost replay --db ./waypost.db
  waypost replay --db ./waypost.db --trip TRIP-ID --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.TripID, "trip", "", "replay specific trip only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var trips []store.Trip
	if opts.TripID != "" {
		t, err := st.GetTrip(ctx, opts.TripID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to get trip", err)
		}
		trips = []store.Trip{t}
	} else {
		trips, err = st.ListTrips(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list trips", err)
		}
	}

	result := ReplayResult{
		Trips:         make([]ReplayTripResult, 0, len(trips)),
		TotalTrips:    len(trips),
		AllConsistent: true,
	}
	for _, t := range trips {
		tripResult, err := replayTrip(ctx, st, t, formatter)
		if err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to replay trip %s", t.ID), err)
		}
		result.Trips = append(result.Trips, tripResult)
		if !tripResult.Consistent {
			result.AllConsistent = false
		}
	}

	return outputReplay(formatter, result)
}

// replayTrip folds a trip's logged ops over an empty context and
// compares the outcome with the stored context.
func replayTrip(ctx context.Context, st *store.Store, t store.Trip, formatter *OutputFormatter) (ReplayTripResult, error) {
	logged, err := st.ListOps(ctx, t.ID)
	if err != nil {
		return ReplayTripResult{}, err
	}

	ec := trip.EvalContext{}
	applied := 0
	for _, entry := range logged {
		op, err := ops.Unmarshal([]byte(entry.Payload))
		if err != nil {
			return ReplayTripResult{}, fmt.Errorf("op %d: %w", entry.ID, err)
		}
		ec = ops.ApplyToContext(op, ec)
		applied++
	}

	// JSON round trip so number representations match the stored form.
	normalized, err := normalizeContext(ec)
	if err != nil {
		return ReplayTripResult{}, err
	}
	consistent := reflect.DeepEqual(normalized, t.EvalContext)
	formatter.VerboseLog("trip %s: %d op(s), consistent=%v", t.ID, applied, consistent)

	return ReplayTripResult{
		TripID:     t.ID,
		OpsApplied: applied,
		Consistent: consistent,
	}, nil
}

// normalizeContext round-trips a context through JSON so in-memory
// values compare equal to values decoded from storage.
func normalizeContext(ec trip.EvalContext) (trip.EvalContext, error) {
	data, err := json.Marshal(ec)
	if err != nil {
		return nil, fmt.Errorf("normalize context: %w", err)
	}
	var out trip.EvalContext
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize context: %w", err)
	}
	return out, nil
}

func outputReplay(formatter *OutputFormatter, result ReplayResult) error {
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, tr := range result.Trips {
			mark := "✓"
			if !tr.Consistent {
				mark = "✗"
			}
			fmt.Fprintf(formatter.Writer, "%s %s (%d ops)\n", mark, tr.TripID, tr.OpsApplied)
		}
	}
	if !result.AllConsistent {
		return NewExitError(ExitFailure, "replay found diverged trips")
	}
	return nil
}
