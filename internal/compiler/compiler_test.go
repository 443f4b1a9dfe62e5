package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/donation-receipts/internal/config"
	"github.com/ginjaninja78/donation-receipts/internal/types"
)

// Fake compilers. Each receives the source file name as its last argument.
const (
	succeedingScript = `#!/bin/sh
for last; do :; done
base="${last%.tex}"
echo "This is fakeTeX"
printf '%%PDF-1.4 fake' > "$base.pdf"
echo "log of $base" > "$base.log"
echo aux > "$base.aux"
`

	failingScript = `#!/bin/sh
for last; do :; done
base="${last%.tex}"
echo "This is fakeTeX"
echo "! Undefined control sequence."
echo "l.12 foo"
echo "log" > "$base.log"
exit 1
`

	silentScript = `#!/bin/sh
exit 0
`

	sleepingScript = `#!/bin/sh
exec sleep 10
`
)

func fakeCompiler(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compilers are shell scripts")
	}

	path := filepath.Join(t.TempDir(), "faketex")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func newCompiler(t *testing.T, command string, keep bool) (*External, string, string) {
	t.Helper()

	settings := config.Default().Compiler
	settings.Command = command
	settings.Timeout = 5 * time.Second

	workDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")

	return NewExternal(Options{
		Settings:    settings,
		WorkDir:     workDir,
		OutputDir:   outputDir,
		KeepSources: keep,
	}), workDir, outputDir
}

func document() types.RenderedDocument {
	return types.RenderedDocument{
		Kind:           types.KindIndividual,
		SourceText:     `\documentclass{article}\begin{document}x\end{document}`,
		OutputBaseName: "Mustermensch_Erika_01-01-2025",
		Label:          "Erika Mustermensch (row 1)",
	}
}

func entries(t *testing.T, dir string) []string {
	t.Helper()
	list, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var names []string
	for _, e := range list {
		names = append(names, e.Name())
	}
	return names
}

func TestCompile_Success(t *testing.T) {
	c, workDir, outputDir := newCompiler(t, fakeCompiler(t, succeedingScript), false)

	path, err := c.Compile(context.Background(), document())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "Mustermensch_Erika_01-01-2025.pdf"), path)
	assert.FileExists(t, path)
	assert.Empty(t, entries(t, workDir), "work directory cleaned")
	assert.Equal(t, []string{"Mustermensch_Erika_01-01-2025.pdf"}, entries(t, outputDir))
}

func TestCompile_KeepSources(t *testing.T) {
	c, workDir, outputDir := newCompiler(t, fakeCompiler(t, succeedingScript), true)

	_, err := c.Compile(context.Background(), document())

	require.NoError(t, err)
	assert.Empty(t, entries(t, workDir))
	assert.ElementsMatch(t, []string{
		"Mustermensch_Erika_01-01-2025.pdf",
		"Mustermensch_Erika_01-01-2025.tex",
		"Mustermensch_Erika_01-01-2025.log",
	}, entries(t, outputDir))

	source, err := os.ReadFile(filepath.Join(outputDir, "Mustermensch_Erika_01-01-2025.tex"))
	require.NoError(t, err)
	assert.Equal(t, document().SourceText, string(source))
}

func TestCompile_Failure(t *testing.T) {
	c, workDir, outputDir := newCompiler(t, fakeCompiler(t, failingScript), false)

	_, err := c.Compile(context.Background(), document())

	var compileErr *types.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, 1, compileErr.ExitCode)
	assert.False(t, compileErr.TimedOut)
	assert.Equal(t, "Erika Mustermensch (row 1)", compileErr.Document)
	assert.True(t, strings.HasPrefix(compileErr.Diagnostic, "! Undefined control sequence."))
	assert.NotContains(t, compileErr.Diagnostic, "This is fakeTeX")

	assert.Empty(t, entries(t, workDir))
	assert.Empty(t, entries(t, outputDir))
}

func TestCompile_NoOutput(t *testing.T) {
	c, _, _ := newCompiler(t, fakeCompiler(t, silentScript), false)

	_, err := c.Compile(context.Background(), document())

	var compileErr *types.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Error(), "without producing")
}

func TestCompile_Timeout(t *testing.T) {
	c, workDir, _ := newCompiler(t, fakeCompiler(t, sleepingScript), false)
	c.opts.Settings.Timeout = 200 * time.Millisecond

	start := time.Now()
	_, err := c.Compile(context.Background(), document())

	var compileErr *types.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.True(t, compileErr.TimedOut)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Empty(t, entries(t, workDir))
}

func TestCompile_RelativeCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake compilers are shell scripts")
	}

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tools"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tools", "faketex"), []byte(succeedingScript), 0755))
	t.Chdir(dir)

	c, _, outputDir := newCompiler(t, "./tools/faketex", false)

	require.NoError(t, c.Available())
	assert.True(t, filepath.IsAbs(c.command))

	path, err := c.Compile(context.Background(), document())

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "Mustermensch_Erika_01-01-2025.pdf"), path)
	assert.FileExists(t, path)
}

func TestCompile_MissingCompiler(t *testing.T) {
	c, _, _ := newCompiler(t, "definitely-not-a-latex-compiler-xyz", false)

	require.Error(t, c.Available())

	_, err := c.Compile(context.Background(), document())

	var compileErr *types.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Error(), "not available")
}

func TestDiagnostic(t *testing.T) {
	t.Run("prefers error lines", func(t *testing.T) {
		out := "noise\nmore noise\n! LaTeX Error: File `x.sty' not found.\nl.3 \\usepackage\n"
		assert.Equal(t, "! LaTeX Error: File `x.sty' not found.\nl.3 \\usepackage", Diagnostic(out))
	})

	t.Run("keeps the tail", func(t *testing.T) {
		var b strings.Builder
		for i := 1; i <= 30; i++ {
			fmt.Fprintf(&b, "line %d\n", i)
		}
		got := Diagnostic(b.String())
		lines := strings.Split(got, "\n")
		require.Len(t, lines, diagnosticLines)
		assert.Equal(t, "line 11", lines[0])
		assert.Equal(t, "line 30", lines[len(lines)-1])
	})

	t.Run("caps length", func(t *testing.T) {
		got := Diagnostic(strings.Repeat("x", 5000))
		assert.Len(t, got, diagnosticChars)
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "", Diagnostic(""))
	})
}
