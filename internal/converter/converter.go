// =============================================================================
// Donation Receipt Generator - Converter Module
// =============================================================================
//
// This module contains the core generation logic. It orchestrates the whole
// pipeline for one input file, from reading donation rows to compiled
// receipts in the output directory.
//
// GENERATION PIPELINE:
//   1. Read the input file (CSV or XLSX)
//   2. Validate every row; invalid rows are skipped and recorded
//   3. Plan the documents (individual and collective receipts)
//   4. Render each document from its template
//   5. Compile each document with the external compiler
//   6. Write the error log and the run report
//
// FAILURE SCOPES:
//   Row      - the row is skipped, the run continues
//   Document - the document is reported as failed, the run continues
//   Run      - missing input, unreadable encoding or no valid rows abort
//              the run before any document is produced
//
// Documents are produced one after another. The issue date is fixed once
// per run.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ginjaninja78/donation-receipts/internal/aggregator"
	"github.com/ginjaninja78/donation-receipts/internal/compiler"
	"github.com/ginjaninja78/donation-receipts/internal/config"
	"github.com/ginjaninja78/donation-receipts/internal/csvparser"
	"github.com/ginjaninja78/donation-receipts/internal/renderer"
	"github.com/ginjaninja78/donation-receipts/internal/types"
	"github.com/ginjaninja78/donation-receipts/internal/validation"
	"github.com/ginjaninja78/donation-receipts/internal/xlsxparser"
	"github.com/ginjaninja78/donation-receipts/pkg/utils"
)

// Failure kinds recorded in the run result.
const (
	FailureRow      = "row"
	FailureTemplate = "template"
	FailureCompile  = "compile"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one run.
type Result struct {
	// InputFile is the path to the input file that was processed.
	InputFile string

	// RunID identifies the run; it also names the work directory.
	RunID string

	// RunResult lists produced files and failures. Row failures are included
	// with kind "row".
	types.RunResult

	// RowIssues are the skipped input rows in row order.
	RowIssues []types.RowIssue

	// Summary is the combined total over all valid records.
	Summary types.AggregateSummary

	// Entries describes every planned document for the run report.
	Entries []utils.ReportEntry

	// ErrorLogPath and ReportPath are empty when the file was not written.
	ErrorLogPath string
	ReportPath   string

	Stats ProcessingStats
}

// ProcessingStats contains statistics about the run.
type ProcessingStats struct {
	// RowsRead counts data rows, valid or not.
	RowsRead int

	// RowsSkipped counts rows that produced no record.
	RowsSkipped int

	// ValidRecords counts validated donations.
	ValidRecords int

	DocumentsPlanned   int
	DocumentsSucceeded int
	DocumentsFailed    int

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options are the per-run settings that do not come from the config file.
type Options struct {
	// IssueDate is printed on every receipt. Zero means today.
	IssueDate time.Time

	// KeepSources retains the rendered source files next to the outputs.
	KeepSources bool

	// Compiler replaces the external compiler. Nil means the configured one.
	Compiler compiler.Compiler
}

// Logger is an interface for logging. *logrus.Logger and *logrus.Entry
// satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Converter generates the receipts of one input file.
type Converter struct {
	cfg    *config.Config
	opts   Options
	logger Logger
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - cfg: The validated application configuration.
//   - opts: Per-run options.
//   - logger: Receives diagnostic messages.
func New(cfg *config.Config, opts Options, logger Logger) *Converter {
	if opts.IssueDate.IsZero() {
		now := time.Now()
		opts.IssueDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	return &Converter{
		cfg:    cfg,
		opts:   opts,
		logger: logger,
	}
}

// =============================================================================
// INPUT
// =============================================================================

// Input is the validated content of an input file.
type Input struct {
	// RowsRead counts data rows, including rows the reader already rejected.
	RowsRead int

	Records []types.DonationRecord

	// Issues are all skipped rows, ordered by row number.
	Issues []types.RowIssue
}

// LoadInput reads and validates an input file. XLSX workbooks are selected
// by extension, everything else is read as CSV.
//
// RETURNS:
//   - The validated input.
//   - *types.FileNotFoundError, *types.EncodingError or a read error.
func LoadInput(path string, settings config.InputSettings) (*Input, error) {
	var rows []types.Row
	var issues []types.RowIssue

	if xlsxparser.IsWorkbook(path) {
		parsed, err := xlsxparser.Parse(path, settings.Sheet)
		if err != nil {
			return nil, err
		}
		rows = parsed
	} else {
		data, err := csvparser.Parse(path, settings)
		if err != nil {
			return nil, err
		}
		rows = data.Rows
		issues = data.Issues
	}

	rowsRead := len(rows) + len(issues)

	result := validation.ValidateRows(rows)
	issues = append(issues, result.Issues...)
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Row < issues[j].Row
	})

	return &Input{
		RowsRead: rowsRead,
		Records:  result.Records,
		Issues:   issues,
	}, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the generation pipeline for the input file.
//
// RETURNS:
//   - The Result. It is returned together with run-level errors as far as it
//     was filled.
//   - A run-level error: *types.FileNotFoundError, *types.EncodingError,
//     types.ErrNoValidRecords, or a setup failure (templates, directories).
//     Document failures are not errors; they are listed in the Result.
func (c *Converter) Run(ctx context.Context, inputPath string) (*Result, error) {
	startTime := time.Now()
	result := &Result{InputFile: inputPath}
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1: READ AND VALIDATE INPUT
	// =========================================================================

	c.logger.Infof("Processing file: %s", inputPath)

	input, err := LoadInput(inputPath, c.cfg.Input)
	if err != nil {
		return result, err
	}

	result.RowIssues = input.Issues
	result.Stats.RowsRead = input.RowsRead
	result.Stats.RowsSkipped = len(input.Issues)
	result.Stats.ValidRecords = len(input.Records)

	for _, issue := range input.Issues {
		c.logger.Warnf("Skipping row %d: %v", issue.Row, issue.Err)
		result.RunResult = result.RunResult.Failed(types.Failure{
			Identifier: fmt.Sprintf("row %d", issue.Row),
			Reason:     issue.Err.Error(),
			Kind:       FailureRow,
		})
	}

	if len(input.Records) == 0 {
		return result, types.ErrNoValidRecords
	}

	c.logger.Infof("Read %d valid record(s), skipped %d row(s)", len(input.Records), len(input.Issues))

	// =========================================================================
	// STEP 2: PREPARE TEMPLATES AND DIRECTORIES
	// =========================================================================

	templates, err := renderer.LoadTemplates(c.cfg.Templates.Individual, c.cfg.Templates.Collective)
	if err != nil {
		return result, err
	}

	if err := utils.EnsureDir(c.cfg.OutputDir); err != nil {
		return result, err
	}

	workDir, runID, err := utils.NewWorkDir(c.cfg.WorkDir)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			c.logger.Warnf("Failed to remove work directory %s: %v", workDir, err)
		}
	}()

	result.RunID = runID
	c.logger.Debugf("Run %s uses work directory %s", runID, workDir)

	comp := c.opts.Compiler
	if comp == nil {
		external := compiler.NewExternal(compiler.Options{
			Settings:    c.cfg.Compiler,
			WorkDir:     workDir,
			OutputDir:   c.cfg.OutputDir,
			KeepSources: c.opts.KeepSources,
		})
		if err := external.Available(); err != nil {
			c.logger.Errorf("Compiler %q not found, every document will fail: %v", c.cfg.Compiler.Command, err)
		}
		comp = external
	}

	// =========================================================================
	// STEP 3: RENDER AND COMPILE DOCUMENTS
	// =========================================================================

	result.Summary = aggregator.Aggregate(input.Records, c.opts.IssueDate)

	rend := renderer.New(templates)
	for _, job := range c.plan(input.Records, result.Summary) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		c.produce(ctx, rend, comp, job, result)
	}

	// =========================================================================
	// STEP 4: WRITE REPORTS
	// =========================================================================

	c.writeReports(result)

	return result, nil
}

// =============================================================================
// DOCUMENT PLANNING
// =============================================================================

// job is one document to produce.
type job struct {
	kind     types.DocumentKind
	record   types.DonationRecord
	summary  types.AggregateSummary
	perDonor bool
	label    string
}

// plan lists the documents of the run.
//
// MODES:
//   single - one individual receipt per record plus one collective receipt
//            over all records
//   donor  - donors with one donation get an individual receipt, donors with
//            several get one collective receipt each
//
// With collective receipts disabled only individual receipts are planned.
func (c *Converter) plan(records []types.DonationRecord, summary types.AggregateSummary) []job {
	var jobs []job

	individual := func(r types.DonationRecord) job {
		return job{
			kind:   types.KindIndividual,
			record: r,
			label:  fmt.Sprintf("%s (row %d)", r.DisplayName(), r.RowNumber),
		}
	}

	if c.cfg.Collective.Mode == config.ModeDonor && c.cfg.CollectiveEnabled() {
		for _, group := range aggregator.GroupByDonor(records, c.opts.IssueDate) {
			if group.RecordCount == 1 {
				jobs = append(jobs, individual(group.Records[0]))
				continue
			}
			jobs = append(jobs, job{
				kind:     types.KindCollective,
				summary:  group,
				perDonor: true,
				label:    fmt.Sprintf("%s (%d donations)", group.Donor.DisplayName(), group.RecordCount),
			})
		}
		return jobs
	}

	for _, r := range records {
		jobs = append(jobs, individual(r))
	}
	if c.cfg.CollectiveEnabled() {
		jobs = append(jobs, job{
			kind:    types.KindCollective,
			summary: summary,
			label:   fmt.Sprintf("collective receipt (%d donations)", summary.RecordCount),
		})
	}
	return jobs
}

// produce renders and compiles one document and folds the outcome into result.
func (c *Converter) produce(ctx context.Context, rend *renderer.Renderer, comp compiler.Compiler, j job, result *Result) {
	result.Stats.DocumentsPlanned++

	fail := func(kind string, err error) {
		c.logger.Errorf("Failed to produce %s: %v", j.label, err)
		result.Stats.DocumentsFailed++
		result.RunResult = result.RunResult.Failed(types.Failure{
			Identifier: j.label,
			Reason:     err.Error(),
			Kind:       kind,
		})
		result.Entries = append(result.Entries, utils.ReportEntry{
			Document: j.label,
			Kind:     string(j.kind),
			Status:   utils.StatusFailed,
			Detail:   err.Error(),
		})
	}

	var doc types.RenderedDocument
	var err error
	if j.kind == types.KindIndividual {
		doc, err = rend.Individual(j.record, c.opts.IssueDate)
	} else {
		doc, err = rend.Collective(j.summary, j.perDonor)
	}
	if err != nil {
		fail(FailureTemplate, err)
		return
	}

	c.logger.Debugf("Compiling %s as %s", doc.Label, doc.OutputBaseName)

	path, err := comp.Compile(ctx, doc)
	if err != nil {
		fail(FailureCompile, err)
		return
	}

	c.logger.Infof("Created %s", path)
	result.Stats.DocumentsSucceeded++
	result.RunResult = result.RunResult.Succeeded(path)
	result.Entries = append(result.Entries, utils.ReportEntry{
		Document: j.label,
		Kind:     string(j.kind),
		Status:   utils.StatusCreated,
		Detail:   path,
	})
}

// =============================================================================
// REPORTS
// =============================================================================

// writeReports writes the error log and the XLSX run report. Report failures
// are logged; they do not change the outcome of the run.
func (c *Converter) writeReports(result *Result) {
	if c.cfg.ErrorLogEnabled() && len(result.Failures) > 0 {
		entries := make([]utils.ErrorLogEntry, 0, len(result.Failures))
		for _, issue := range result.RowIssues {
			entries = append(entries, utils.ErrorLogEntry{
				Identifier:   fmt.Sprintf("row %d", issue.Row),
				ErrorType:    FailureRow,
				ErrorMessage: issue.Err.Error(),
				RowNumber:    issue.Row,
			})
		}
		for _, f := range result.Failures {
			if f.Kind == FailureRow {
				continue
			}
			entries = append(entries, utils.ErrorLogEntry{
				Identifier:   f.Identifier,
				ErrorType:    f.Kind,
				ErrorMessage: f.Reason,
			})
		}

		path, err := utils.WriteErrorLog(entries, result.InputFile, c.cfg.OutputDir)
		if err != nil {
			c.logger.Warnf("Failed to write error log: %v", err)
		} else {
			result.ErrorLogPath = path
		}
	}

	if c.cfg.XLSXReportEnabled() {
		skipped := make([]utils.SkippedRow, len(result.RowIssues))
		for i, issue := range result.RowIssues {
			skipped[i] = utils.SkippedRow{Row: issue.Row, Reason: issue.Err.Error()}
		}

		path, err := utils.WriteXLSXReport(result.Entries, skipped, c.cfg.OutputDir)
		if err != nil {
			c.logger.Warnf("Failed to write run report: %v", err)
		} else {
			result.ReportPath = path
		}
	}
}
