package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waypost-hq/waypost/internal/kernel"
	"github.com/waypost-hq/waypost/internal/ops"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Script   string
	Database string
	Params   string
	At       string
}

// PassResult summarizes one applied kernel pass for CLI output.
type PassResult struct {
	TripID    string            `json:"trip_id"`
	Ops       []json.RawMessage `json:"ops"`
	Scheduled int               `json:"scheduled"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <trip-id> <action>",
		Short: "Invoke an action on a trip",
		Long: `Invoke an action on a trip and apply the full cascade it causes.

Example:
  waypost invoke --db ./waypost.db --script ./tour.yaml \
    TRIP-ID signal_cue --params '{"cue_name":"start"}'`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Script, "script", "", "path to script document (required)")
	_ = cmd.MarkFlagRequired("script")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Params, "params", "{}", "action parameters as JSON")
	cmd.Flags().StringVar(&opts.At, "at", "", "evaluation timestamp (RFC3339, default now)")

	return cmd
}

func runInvoke(opts *InvokeOptions, tripID, actionName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(opts.Params), &params); err != nil {
		return WrapExitError(ExitCommandError, "invalid --params JSON", err)
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

	result, err := r.Invoke(context.Background(), tripID,
		kernel.Action{Name: actionName, Params: params}, at)
	if err != nil {
		return WrapExitError(ExitCommandError, "invoke failed", err)
	}

	return outputPass(formatter, tripID, result)
}

func outputPass(formatter *OutputFormatter, tripID string, result kernel.Result) error {
	if formatter.Format == "json" {
		encoded := make([]json.RawMessage, 0, len(result.Ops))
		for _, op := range result.Ops {
			data, err := ops.Marshal(op)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode op", err)
			}
			encoded = append(encoded, data)
		}
		return formatter.Success(PassResult{
			TripID:    tripID,
			Ops:       encoded,
			Scheduled: len(result.Scheduled),
		})
	}

	fmt.Fprintf(formatter.Writer, "Applied %d op(s), scheduled %d action(s)\n",
		len(result.Ops), len(result.Scheduled))
	for _, op := range result.Ops {
		fmt.Fprintf(formatter.Writer, "  %s\n", op.Operation())
	}
	return nil
}
