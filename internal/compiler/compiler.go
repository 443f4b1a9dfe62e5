// =============================================================================
// Donation Receipt Generator - Compile Orchestrator
// =============================================================================
//
// The compile orchestrator turns rendered documents into finished receipts by
// running an external compiler (pdflatex by default) once per document.
//
// PER DOCUMENT:
//   1. Write <base>.tex into the run's work directory
//   2. Run "<command> <args...> <base>.tex" inside the work directory, bounded
//      by the configured timeout
//   3. On exit code 0 with <base>.pdf present, move the PDF to the output
//      directory
//   4. Remove intermediate files; with retention enabled the source and the
//      compiler log are moved next to the outputs instead
//
// FAILURES:
//   Every failure is a *types.CompileError for that document alone. There are
//   no retries. A compiler that is not installed fails each document instead
//   of aborting the run.
//
// =============================================================================

package compiler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/donation-receipts/internal/config"
	"github.com/ginjaninja78/donation-receipts/internal/types"
	"github.com/ginjaninja78/donation-receipts/pkg/utils"
)

const (
	// diagnosticLines is the number of output lines kept in a CompileError.
	diagnosticLines = 20

	// diagnosticChars caps the diagnostic length.
	diagnosticChars = 2000

	// waitDelay bounds how long output pipes are drained after the compiler
	// was killed.
	waitDelay = 2 * time.Second
)

// Compiler turns one rendered document into a file in the output directory.
type Compiler interface {
	// Compile returns the path of the produced file, or a *types.CompileError.
	Compile(ctx context.Context, doc types.RenderedDocument) (string, error)
}

// Options configures an External compiler.
type Options struct {
	Settings config.CompilerSettings

	// WorkDir is the run's scratch directory. It must exist.
	WorkDir string

	// OutputDir receives the compiled files.
	OutputDir string

	// KeepSources moves the source and log files to OutputDir instead of
	// deleting them.
	KeepSources bool
}

// External runs an external compiler process per document.
type External struct {
	opts    Options
	command string
	lookErr error
}

// NewExternal prepares an External compiler. The command is looked up in PATH
// once; if it is missing, every Compile call reports that. The resolved path is
// made absolute because the compiler runs inside the work directory.
func NewExternal(opts Options) *External {
	c := &External{opts: opts}
	c.command, c.lookErr = exec.LookPath(opts.Settings.Command)
	if c.lookErr == nil {
		c.command, c.lookErr = filepath.Abs(c.command)
	}
	return c
}

// Available reports whether the compiler command was found.
func (c *External) Available() error {
	return c.lookErr
}

// Compile compiles a single document.
//
// PARAMETERS:
//   - ctx: Cancels the compiler process when done.
//   - doc: The rendered document.
//
// RETURNS:
//   - The path of the compiled file in the output directory.
//   - *types.CompileError when the document could not be produced.
func (c *External) Compile(ctx context.Context, doc types.RenderedDocument) (string, error) {
	if c.lookErr != nil {
		return "", &types.CompileError{
			Document: doc.Label,
			Err:      fmt.Errorf("compiler %q not available: %w", c.opts.Settings.Command, c.lookErr),
		}
	}

	base := doc.OutputBaseName
	sourceName := base + c.opts.Settings.SourceExt
	sourcePath := filepath.Join(c.opts.WorkDir, sourceName)

	defer c.cleanup(base)

	if err := os.WriteFile(sourcePath, []byte(doc.SourceText), 0644); err != nil {
		return "", &types.CompileError{Document: doc.Label, Err: fmt.Errorf("failed to write source: %w", err)}
	}

	output, err := c.run(ctx, sourceName)
	if err != nil {
		var compileErr *types.CompileError
		if errors.As(err, &compileErr) {
			compileErr.Document = doc.Label
			compileErr.Diagnostic = Diagnostic(output)
		}
		return "", err
	}

	producedPath := filepath.Join(c.opts.WorkDir, base+c.opts.Settings.OutputExt)
	if !utils.FileExists(producedPath) {
		return "", &types.CompileError{
			Document:   doc.Label,
			Err:        fmt.Errorf("compiler finished without producing %s", filepath.Base(producedPath)),
			Diagnostic: Diagnostic(output),
		}
	}

	finalPath, err := utils.MoveFile(producedPath, c.opts.OutputDir)
	if err != nil {
		return "", &types.CompileError{Document: doc.Label, Err: err}
	}

	return finalPath, nil
}

// run executes the compiler and returns its combined output.
func (c *External) run(ctx context.Context, sourceName string) (string, error) {
	runCtx := ctx
	if c.opts.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Settings.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), c.opts.Settings.Args...), sourceName)
	cmd := exec.CommandContext(runCtx, c.command, args...)
	cmd.Dir = c.opts.WorkDir
	cmd.WaitDelay = waitDelay

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err == nil {
		return output, nil
	}

	// A deadline of our own is a timeout; a cancelled caller is passed on.
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return output, &types.CompileError{TimedOut: true, Err: err}
	}
	if ctx.Err() != nil {
		return output, &types.CompileError{Err: ctx.Err()}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return output, &types.CompileError{ExitCode: exitErr.ExitCode(), Err: err}
	}
	return output, &types.CompileError{Err: err}
}

// cleanup removes everything the compiler left for base in the work
// directory. Retained sources are moved to the output directory first.
func (c *External) cleanup(base string) {
	settings := c.opts.Settings

	if c.opts.KeepSources {
		for _, ext := range []string{settings.SourceExt, ".log"} {
			path := filepath.Join(c.opts.WorkDir, base+ext)
			if utils.FileExists(path) {
				_, _ = utils.MoveFile(path, c.opts.OutputDir)
			}
		}
	}

	exts := append([]string{settings.SourceExt, settings.OutputExt}, settings.ArtifactExts...)
	for _, ext := range exts {
		_ = os.Remove(filepath.Join(c.opts.WorkDir, base+ext))
	}
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Diagnostic extracts the useful part of compiler output.
//
// LaTeX reports errors on lines starting with "!"; when present, output from
// the first such line on is used. Otherwise the tail of the output is used.
// At most diagnosticLines lines and diagnosticChars characters are kept.
func Diagnostic(output string) string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), " \r"); line != "" {
			lines = append(lines, line)
		}
	}

	first := -1
	for i, line := range lines {
		if strings.HasPrefix(line, "!") {
			first = i
			break
		}
	}

	switch {
	case first >= 0:
		lines = lines[first:]
		if len(lines) > diagnosticLines {
			lines = lines[:diagnosticLines]
		}
	case len(lines) > diagnosticLines:
		lines = lines[len(lines)-diagnosticLines:]
	}

	return utils.TruncateText(strings.Join(lines, "\n"), diagnosticChars)
}
