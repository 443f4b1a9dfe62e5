// =============================================================================
// Donation Receipt Generator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Donation Receipt Generator CLI. It
// delegates command execution to the cmd package.
//
// USAGE:
//   receipts <input-file>       - Create the receipts for a donation list
//   receipts validate <input>   - Check a donation list without compiling
//   receipts version            - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Parsing, validation, aggregation, rendering, compiling
//   - pkg/           : Shared file and report utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/donation-receipts/cmd"
)

// main is the entry point of the application.
func main() {
	cmd.Execute()
}
