// =============================================================================
// Donation Receipt Generator - Version Command
// =============================================================================
//
// This file defines the 'version' command. Besides the build information it
// reports whether the configured LaTeX compiler can be found, the most common
// reason a run produces no receipts.
//
// COMMAND USAGE:
//   receipts version
//
// OUTPUT:
//   Donation Receipt Generator
//   Version:    0.1.0
//   Commit:     3f2a9c1
//   Build Date: 2026-01-10T09:12:44Z
//   Go Version: go1.24.11
//   Compiler:   pdflatex (/usr/bin/pdflatex)
//
// BUILDING:
//   "make build" stamps Version, Commit and BuildDate through ldflags. Without
//   them, commit and date fall back to the VCS data Go embeds in the binary.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build information, overridden by the Makefile:
//
//	-X github.com/ginjaninja78/donation-receipts/cmd.Version=...
//	-X github.com/ginjaninja78/donation-receipts/cmd.Commit=...
//	-X github.com/ginjaninja78/donation-receipts/cmd.BuildDate=...
var (
	Version   = "0.1.0"
	Commit    = ""
	BuildDate = ""
)

// versionCmd prints build information and the compiler lookup result.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version and compiler status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		commit, date := buildStamp()
		printVersion(cmd.OutOrStdout(), commit, date, cfg.Compiler.Command)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// buildStamp returns commit and build date, preferring ldflags values.
func buildStamp() (commit, date string) {
	commit, date = Commit, BuildDate

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if commit == "" {
					commit = s.Value
				}
			case "vcs.time":
				if date == "" {
					date = s.Value
				}
			}
		}
	}

	if len(commit) > 7 {
		commit = commit[:7]
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return commit, date
}

func printVersion(out io.Writer, commit, date, compiler string) {
	fmt.Fprintln(out, "Donation Receipt Generator")
	fmt.Fprintf(out, "Version:    %s\n", Version)
	fmt.Fprintf(out, "Commit:     %s\n", commit)
	fmt.Fprintf(out, "Build Date: %s\n", date)
	fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())

	if path, err := exec.LookPath(compiler); err == nil {
		fmt.Fprintf(out, "Compiler:   %s (%s)\n", compiler, path)
	} else {
		fmt.Fprintf(out, "Compiler:   %s (not found)\n", compiler)
	}
}
