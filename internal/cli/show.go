package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waypost-hq/waypost/internal/store"
	"github.com/waypost-hq/waypost/internal/trip"
)

// ShowOptions holds flags for the show command group.
type ShowOptions struct {
	*RootOptions
	Database string
}

// NewShowCommand creates the show command group.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Inspect stored trips, messages, ops, and scheduled actions",
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(newShowTripsCommand(opts))
	cmd.AddCommand(newShowTripCommand(opts))
	cmd.AddCommand(newShowMessagesCommand(opts))
	cmd.AddCommand(newShowOpsCommand(opts))
	cmd.AddCommand(newShowScheduledCommand(opts))

	return cmd
}

func newShowTripsCommand(opts *ShowOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "trips",
		Short:         "List all trips",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error {
				trips, err := st.ListTrips(context.Background())
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list trips", err)
				}
				if opts.Format == "json" {
					return showJSON(cmd, trips)
				}
				for _, t := range trips {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s  %-24s  %s\n",
						t.ID, t.ScriptName, t.Title, t.EvalContext.CurrentSceneName())
				}
				return nil
			})
		},
	}
}

func newShowTripCommand(opts *ShowOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "trip <trip-id>",
		Short:         "Show one trip's context",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error {
				t, err := st.GetTrip(context.Background(), args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to get trip", err)
				}
				if opts.Format == "json" {
					return showJSON(cmd, t)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Trip %s (%s)\n", t.ID, t.Title)
				fmt.Fprintf(cmd.OutOrStdout(), "  scene: %s\n", t.EvalContext.CurrentSceneName())
				contextJSON, err := json.MarshalIndent(t.EvalContext, "  ", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  context: %s\n", contextJSON)
				return nil
			})
		},
	}
}

func newShowMessagesCommand(opts *ShowOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "messages <trip-id>",
		Short:         "List a trip's messages",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error {
				messages, err := st.ListMessages(context.Background(), args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list messages", err)
				}
				if opts.Format == "json" {
					return showJSON(cmd, messages)
				}
				for _, m := range messages {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s -> %s [%s]: %s\n",
						trip.FormatTime(m.CreatedAt), m.FromRole, m.ToRole, m.Medium, m.Content)
				}
				return nil
			})
		},
	}
}

func newShowOpsCommand(opts *ShowOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "ops <trip-id>",
		Short:         "Show a trip's op log",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error {
				logged, err := st.ListOps(context.Background(), args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list ops", err)
				}
				if opts.Format == "json" {
					return showJSON(cmd, logged)
				}
				for _, entry := range logged {
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
						trip.FormatTime(entry.CreatedAt), entry.Payload)
				}
				return nil
			})
		},
	}
}

func newShowScheduledCommand(opts *ShowOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "scheduled <trip-id>",
		Short:         "List a trip's scheduled actions",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error {
				scheduled, err := st.ListScheduledActions(context.Background(), args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to list scheduled actions", err)
				}
				if opts.Format == "json" {
					return showJSON(cmd, scheduled)
				}
				for _, sa := range scheduled {
					status := "pending"
					if sa.AppliedAt != nil {
						status = "applied " + trip.FormatTime(*sa.AppliedAt)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s  due %s  (%s)\n",
						sa.ID, sa.Name, trip.FormatTime(sa.ScheduleAt), status)
				}
				return nil
			})
		},
	}
}

func withStore(opts *ShowOptions, fn func(*store.Store) error) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()
	return fn(st)
}

func showJSON(cmd *cobra.Command, data any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: data})
}
