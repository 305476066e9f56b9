package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/waypost-hq/waypost/internal/harness"
)

// TestResult holds the test command's output for one scenario.
type TestResult struct {
	Scenario string   `json:"scenario"`
	Pass     bool     `json:"pass"`
	Steps    int      `json:"steps"`
	Errors   []string `json:"errors,omitempty"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run scenario files against the engine",
		Long: `Run scenario files against the engine.

Each scenario runs in a fresh in-memory database with a manual clock,
so runs are deterministic and leave no state behind.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed an assertion
  2 - Command error (scenario unreadable, script missing)

Example:
  waypost test scenarios/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTest(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	results := make([]TestResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		scenario, err := harness.LoadScenario(path)
		if err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to load scenario %s", path), err)
		}
		formatter.VerboseLog("running scenario %s", scenario.Name)

		result, err := harness.Run(scenario)
		if err != nil {
			return WrapExitError(ExitCommandError,
				fmt.Sprintf("failed to run scenario %s", scenario.Name), err)
		}
		if !result.Pass {
			failed++
		}
		results = append(results, TestResult{
			Scenario: scenario.Name,
			Pass:     result.Pass,
			Steps:    len(result.Trace),
			Errors:   result.Errors,
		})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			mark := "✓"
			if !r.Pass {
				mark = "✗"
			}
			fmt.Fprintf(formatter.Writer, "%s %s (%d steps)\n", mark, r.Scenario, r.Steps)
			for _, e := range r.Errors {
				fmt.Fprintf(formatter.Writer, "    %s\n", e)
			}
		}
	}

	if failed > 0 {
		return NewExitError(ExitFailure,
			fmt.Sprintf("%d of %d scenario(s) failed", failed, len(results)))
	}
	return nil
}
