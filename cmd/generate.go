// =============================================================================
// Donation Receipt Generator - Generate Command
// =============================================================================
//
// This file implements receipt generation, the work of the root command. It
// wires configuration, logging and the converter pipeline together and prints
// the run summary.
//
// COMMAND USAGE:
//   receipts <input-file> [flags]
//
// FLAGS:
//   --keep-tex    : Keep the rendered LaTeX sources next to the PDFs
//   --issue-date  : Issue date printed on the receipts (DD.MM.YYYY)
//   --output-dir  : Directory for the receipts
//   --mode        : Collective receipt mode, single or donor
//
// EXIT CODE:
//   0 when the run completed, even if single receipts failed (they are listed
//   in the summary and the error log); 1 when the run could not start
//   (missing input, unreadable encoding, no valid rows, invalid config).
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/donation-receipts/internal/converter"
	"github.com/ginjaninja78/donation-receipts/internal/renderer"
	"github.com/ginjaninja78/donation-receipts/internal/validation"
	"github.com/ginjaninja78/donation-receipts/pkg/utils"
)

// reasonLimit caps failure reasons in the console summary.
const reasonLimit = 200

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// keepSources retains the rendered sources.
var keepSources bool

// issueDate is the raw --issue-date value.
var issueDate string

// outputDir overrides output_dir.
var outputDir string

// collectiveMode overrides collective.mode.
var collectiveMode string

// registerGenerateFlags adds the generation flags to cmd.
func registerGenerateFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(
		&keepSources,
		"keep-tex",
		false,
		"Keep the generated .tex sources (and compiler logs) next to the PDFs",
	)

	cmd.Flags().StringVar(
		&issueDate,
		"issue-date",
		"",
		"Issue date printed on the receipts, DD.MM.YYYY (default today)",
	)

	cmd.Flags().StringVar(
		&outputDir,
		"output-dir",
		"",
		"Directory for the generated receipts (overrides output_dir)",
	)

	cmd.Flags().StringVar(
		&collectiveMode,
		"mode",
		"",
		"Collective receipt mode: single (one combined receipt) or donor (one per donor)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runGenerate is the main function that orchestrates receipt generation.
func runGenerate(cmd *cobra.Command, inputPath string) error {
	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if collectiveMode != "" {
		cfg.Collective.Mode = strings.ToLower(collectiveMode)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := converter.Options{KeepSources: keepSources}
	if issueDate != "" {
		opts.IssueDate, err = validation.ParseDate(issueDate)
		if err != nil {
			return fmt.Errorf("invalid --issue-date %q: expected DD.MM.YYYY", issueDate)
		}
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: RUN THE PIPELINE
	// =========================================================================

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Donation Receipt Generator ===")
	fmt.Fprintf(out, "Input:  %s\n", inputPath)
	fmt.Fprintf(out, "Output: %s\n", cfg.OutputDir)

	conv := converter.New(cfg, opts, log.WithField("input", filepath.Base(inputPath)))
	result, err := conv.Run(cmd.Context(), inputPath)
	if err != nil {
		if result != nil && len(result.RowIssues) > 0 {
			fmt.Fprintln(out)
			fmt.Fprintln(out, validation.FormatIssues(result.RowIssues))
		}
		return err
	}

	// =========================================================================
	// STEP 3: PRINT SUMMARY
	// =========================================================================

	printSummary(out, result)
	return nil
}

// printSummary writes the run summary block.
func printSummary(out io.Writer, result *converter.Result) {
	stats := result.Stats

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Rows read:       %d\n", stats.RowsRead)
	fmt.Fprintf(out, "Rows skipped:    %d\n", stats.RowsSkipped)
	fmt.Fprintf(out, "Receipts:        %d\n", stats.DocumentsPlanned)
	fmt.Fprintf(out, "Successful:      %d\n", stats.DocumentsSucceeded)
	fmt.Fprintf(out, "Errors:          %d\n", stats.DocumentsFailed)
	fmt.Fprintf(out, "Total amount:    %s EUR\n", renderer.FormatAmount(result.Summary.TotalAmount))
	fmt.Fprintf(out, "Time elapsed:    %s\n", stats.ProcessingTime.Round(time.Millisecond))

	if len(result.Successes) > 0 {
		fmt.Fprintln(out, "\nCreated:")
		for _, path := range result.Successes {
			fmt.Fprintf(out, "  ✓ %s\n", path)
		}
	}

	if len(result.Failures) > 0 {
		fmt.Fprintln(out, "\nFailed:")
		for _, f := range result.Failures {
			fmt.Fprintf(out, "  ✗ [%s] %s: %s\n", f.Kind, f.Identifier, utils.TruncateText(oneLine(f.Reason), reasonLimit))
		}
	}

	if result.ErrorLogPath != "" {
		fmt.Fprintf(out, "\nErrors have been logged to %s\n", result.ErrorLogPath)
	}
	if result.ReportPath != "" {
		fmt.Fprintf(out, "Run report: %s\n", result.ReportPath)
	}
}

// oneLine folds multi-line compiler diagnostics for the console.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
