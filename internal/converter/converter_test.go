package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/donation-receipts/internal/config"
	"github.com/ginjaninja78/donation-receipts/internal/logger"
	"github.com/ginjaninja78/donation-receipts/internal/types"
)

var issueDate = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

// fakeCompiler writes the document source as the "compiled" file.
type fakeCompiler struct {
	outputDir string
	fail      map[string]bool
	docs      []types.RenderedDocument
}

func (f *fakeCompiler) Compile(_ context.Context, doc types.RenderedDocument) (string, error) {
	f.docs = append(f.docs, doc)
	if f.fail[doc.OutputBaseName] {
		return "", &types.CompileError{Document: doc.Label, ExitCode: 1, Diagnostic: "! Emergency stop."}
	}
	path := filepath.Join(f.outputDir, doc.OutputBaseName+".pdf")
	return path, os.WriteFile(path, []byte(doc.SourceText), 0644)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.WorkDir = t.TempDir()
	require.NoError(t, cfg.Validate())
	return cfg
}

func run(t *testing.T, cfg *config.Config, input string, fake *fakeCompiler) (*Result, error) {
	t.Helper()
	fake.outputDir = cfg.OutputDir
	conv := New(cfg, Options{IssueDate: issueDate, Compiler: fake}, logger.Discard())
	return conv.Run(context.Background(), filepath.Join("testdata", input))
}

func TestRun_Example(t *testing.T) {
	cfg := testConfig(t)
	fake := &fakeCompiler{}

	result, err := run(t, cfg, "spenden.csv", fake)

	require.NoError(t, err)
	assert.Empty(t, result.Failures)
	assert.Len(t, result.Successes, 3)
	assert.Equal(t, 2, result.Stats.RowsRead)
	assert.Equal(t, 2, result.Stats.ValidRecords)
	assert.Equal(t, 3, result.Stats.DocumentsSucceeded)

	require.Len(t, fake.docs, 3)
	assert.Equal(t, types.KindIndividual, fake.docs[0].Kind)
	assert.Equal(t, "Mustermensch_Erika_01-01-2025", fake.docs[0].OutputBaseName)
	assert.Equal(t, "Menschmuster_Max_15-07-2025", fake.docs[1].OutputBaseName)
	assert.Equal(t, types.KindCollective, fake.docs[2].Kind)
	assert.Equal(t, "Sammelbestaetigung_2025", fake.docs[2].OutputBaseName)

	assert.Equal(t, "150.00", result.Summary.TotalAmount.StringFixed(2))
	assert.Contains(t, fake.docs[2].SourceText, "150,00")
	assert.Contains(t, fake.docs[0].SourceText, "10.01.2026", "issue date from options")

	assert.Empty(t, result.ErrorLogPath, "nothing failed")
	assert.FileExists(t, result.ReportPath)
	assert.NotEmpty(t, result.RunID)
}

func TestRun_SkipsInvalidRows(t *testing.T) {
	cfg := testConfig(t)
	fake := &fakeCompiler{}

	result, err := run(t, cfg, "mixed.csv", fake)

	require.NoError(t, err)
	assert.Equal(t, 5, result.Stats.RowsRead)
	assert.Equal(t, 2, result.Stats.RowsSkipped)
	assert.Equal(t, 3, result.Stats.ValidRecords)

	require.Len(t, result.RowIssues, 2)
	assert.Equal(t, 3, result.RowIssues[0].Row)
	var formatErr *types.RowFormatError
	assert.ErrorAs(t, result.RowIssues[0].Err, &formatErr)
	var amountErr *types.AmountParseError
	assert.ErrorAs(t, result.RowIssues[1].Err, &amountErr)

	assert.Len(t, result.Successes, 4, "three individual receipts plus the collective one")
	assert.Len(t, result.Failures, 2)
	assert.FileExists(t, result.ErrorLogPath)
}

func TestRun_DonorMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Collective.Mode = config.ModeDonor
	fake := &fakeCompiler{}

	result, err := run(t, cfg, "mixed.csv", fake)

	require.NoError(t, err)
	require.Len(t, fake.docs, 2)

	assert.Equal(t, types.KindCollective, fake.docs[0].Kind)
	assert.Equal(t, "Mustermensch_Erika_sammel", fake.docs[0].OutputBaseName)
	assert.Contains(t, fake.docs[0].SourceText, "75,50")

	assert.Equal(t, types.KindIndividual, fake.docs[1].Kind)
	assert.Equal(t, "Menschmuster_Max_15-07-2025", fake.docs[1].OutputBaseName)
	assert.Len(t, result.Successes, 2)
}

func TestRun_CollectiveDisabled(t *testing.T) {
	cfg := testConfig(t)
	disabled := false
	cfg.Collective.Enabled = &disabled
	fake := &fakeCompiler{}

	result, err := run(t, cfg, "spenden.csv", fake)

	require.NoError(t, err)
	assert.Len(t, result.Successes, 2)
	for _, doc := range fake.docs {
		assert.Equal(t, types.KindIndividual, doc.Kind)
	}
}

func TestRun_CompileFailureIsolated(t *testing.T) {
	cfg := testConfig(t)
	fake := &fakeCompiler{fail: map[string]bool{"Mustermensch_Erika_01-01-2025": true}}

	result, err := run(t, cfg, "spenden.csv", fake)

	require.NoError(t, err, "document failures do not fail the run")
	assert.Len(t, result.Successes, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, FailureCompile, result.Failures[0].Kind)
	assert.Equal(t, "Erika Mustermensch (row 2)", result.Failures[0].Identifier)
	assert.Contains(t, result.Failures[0].Reason, "Emergency stop")
	assert.Equal(t, 1, result.Stats.DocumentsFailed)
}

func TestRun_TemplateFailureIsolated(t *testing.T) {
	cfg := testConfig(t)
	tmpl := filepath.Join(t.TempDir(), "collective.tex")
	require.NoError(t, os.WriteFile(tmpl, []byte("<<DONOR_NAME>>: <<TOTAL_FIGURES>>"), 0644))
	cfg.Templates.Collective = tmpl
	fake := &fakeCompiler{}

	result, err := run(t, cfg, "spenden.csv", fake)

	require.NoError(t, err)
	assert.Len(t, result.Successes, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, FailureTemplate, result.Failures[0].Kind)
	assert.Contains(t, result.Failures[0].Reason, "DONOR_NAME")
}

func TestRun_FatalErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		fake := &fakeCompiler{}
		_, err := run(t, testConfig(t), "does-not-exist.csv", fake)

		var notFound *types.FileNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Empty(t, fake.docs)
	})

	t.Run("no valid records", func(t *testing.T) {
		cfg := testConfig(t)
		fake := &fakeCompiler{}
		result, err := run(t, cfg, "invalid.csv", fake)

		require.ErrorIs(t, err, types.ErrNoValidRecords)
		assert.Len(t, result.RowIssues, 2)
		assert.Empty(t, fake.docs)
		assert.NoDirExists(t, cfg.OutputDir, "nothing written")
	})
}

func TestRun_WorkDirRemoved(t *testing.T) {
	cfg := testConfig(t)

	_, err := run(t, cfg, "spenden.csv", &fakeCompiler{})
	require.NoError(t, err)

	entries, err := os.ReadDir(cfg.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNew_DefaultIssueDate(t *testing.T) {
	conv := New(config.Default(), Options{}, logger.Discard())

	now := time.Now()
	assert.Equal(t, now.Day(), conv.opts.IssueDate.Day())
	assert.Equal(t, 0, conv.opts.IssueDate.Hour())
}
