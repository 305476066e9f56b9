package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/waypost-hq/waypost/internal/script"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <script.yaml>",
		Short: "Validate a script document",
		Long: `Validate a script document without touching a database.

Checks the document against the script schema and runs cross-reference
checks (unique names, triggers referencing known scenes).

Exit codes:
  0 - Script is valid
  1 - Script is invalid
  2 - Command error (file not found, unreadable)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read script", err)
	}

	s, err := script.Parse(data)
	if err != nil {
		var verr *script.ValidationError
		if errors.As(err, &verr) {
			return outputValidationProblems(formatter, verr.Problems)
		}
		return outputValidationProblems(formatter, []string{err.Error()})
	}

	formatter.VerboseLog("scenes=%d roles=%d pages=%d cues=%d triggers=%d",
		len(s.Scenes), len(s.Roles), len(s.Pages), len(s.Cues), len(s.Triggers))

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ Script valid")
	return nil
}

func outputValidationProblems(formatter *OutputFormatter, problems []string) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Problems: problems},
			Error: &CLIError{
				Code:    ErrCodeGeneric,
				Message: problems[0],
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure,
			fmt.Sprintf("validation failed with %d problem(s)", len(problems)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "  %s\n", p)
	}
	return NewExitError(ExitFailure,
		fmt.Sprintf("validation failed with %d problem(s)", len(problems)))
}
