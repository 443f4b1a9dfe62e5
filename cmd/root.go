// =============================================================================
// Donation Receipt Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Called with an input
// file, the root command generates the receipts; the subcommands are attached
// to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (receipts <input>)
//   ├── validateCmd (receipts validate <input>)
//   └── versionCmd (receipts version)
//
// CONFIGURATION:
//   Settings are layered, later sources win:
//   1. Built-in defaults
//   2. The YAML config file (--config, default receipts.yaml if present)
//   3. RECEIPTS_* environment variables, optionally from a .env file
//   4. Command-line flags
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/donation-receipts/internal/config"
	"github.com/ginjaninja78/donation-receipts/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command. With an input file it generates the
// receipts, see runGenerate.
var rootCmd = &cobra.Command{
	Use:   "receipts <input-file>",
	Short: "Donation Receipt Generator - Create Zuwendungsbestätigungen from a donation list",
	Long: `Donation Receipt Generator reads a semicolon-separated donation list (or an
XLSX workbook) and creates one receipt per donation plus a collective receipt,
compiled to PDF with pdflatex.

Input columns:
  Nachname;Vorname;Straße;PLZ Ort;Betrag;Datum

Lines starting with # are comments. Invalid rows are skipped and reported;
the remaining receipts are still created.

Example Usage:
  receipts spenden.csv                        # Create all receipts
  receipts spenden.csv --keep-tex             # Keep the LaTeX sources
  receipts spenden.csv --issue-date 31.01.2026
  receipts validate spenden.csv               # Check the list only`,

	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,

	// PersistentPreRunE loads the optional .env file before any command reads
	// the environment.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args[0])
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main(). Fatal errors are printed
// and end the process with exit code 1; an interrupt cancels the running
// compiler.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init sets up the global flags.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	// --config flag: The YAML configuration file. The default file is optional;
	// a file named explicitly must exist.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigFile,
		"Path to the configuration file",
	)

	// --verbose flag: Enables debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	registerGenerateFlags(rootCmd)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig builds the effective configuration from file and environment.
// Command-specific flags are applied by the caller before Validate.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newLogger creates the diagnostic logger; --verbose forces debug level.
func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logger.New(level, cfg.Log.Format)
}
