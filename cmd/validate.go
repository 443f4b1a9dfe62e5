// =============================================================================
// Donation Receipt Generator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks a donation list
// without rendering or compiling anything.
//
// COMMAND USAGE:
//   receipts validate <input-file>
//
// OUTPUT:
//   The number of valid donations and their total, followed by every
//   skipped row with its reason. Exits with 1 if no row is valid.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/donation-receipts/internal/aggregator"
	"github.com/ginjaninja78/donation-receipts/internal/converter"
	"github.com/ginjaninja78/donation-receipts/internal/renderer"
	"github.com/ginjaninja78/donation-receipts/internal/types"
	"github.com/ginjaninja78/donation-receipts/internal/validation"
)

// =============================================================================
// VALIDATE COMMAND DEFINITION
// =============================================================================

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate <input-file>",
	Short: "Check a donation list without creating receipts",
	Long: `The validate command reads the donation list with the configured encoding,
validates every row and reports the rows that would be skipped. No receipts
are rendered and the compiler is not needed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd, args[0])
	},
}

// init registers the validate command with the root command.
func init() {
	rootCmd.AddCommand(validateCmd)
}

// runValidate reads and validates the input file and prints the findings.
func runValidate(cmd *cobra.Command, inputPath string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	input, err := converter.LoadInput(inputPath, cfg.Input)
	if err != nil {
		return err
	}

	summary := aggregator.Aggregate(input.Records, time.Time{})

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Validating %s ===\n", inputPath)
	fmt.Fprintf(out, "Rows read:       %d\n", input.RowsRead)
	fmt.Fprintf(out, "Valid donations: %d\n", summary.RecordCount)
	fmt.Fprintf(out, "Total amount:    %s EUR\n", renderer.FormatAmount(summary.TotalAmount))
	if summary.RecordCount > 0 {
		fmt.Fprintf(out, "Period:          %s - %s\n",
			validation.FormatDate(summary.FirstDate),
			validation.FormatDate(summary.LastDate))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, validation.FormatIssues(input.Issues))

	if summary.RecordCount == 0 {
		return types.ErrNoValidRecords
	}
	return nil
}
