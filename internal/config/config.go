// =============================================================================
// Donation Receipt Generator - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Settings are resolved in
// this order, later sources winning:
//   1. Built-in defaults
//   2. YAML file (receipts.yaml, or --config)
//   3. Environment variables (RECEIPTS_*), optionally from a .env file
//   4. Command line flags (applied by the cmd package)
//
// The configuration is validated once after all sources are applied.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Collective receipt modes.
const (
	// ModeSingle renders one receipt per donation and one collective receipt
	// over all donations.
	ModeSingle = "single"

	// ModeDonor renders an individual receipt for donors with one donation and
	// a collective receipt for every donor with several donations.
	ModeDonor = "donor"
)

// DefaultConfigFile is read when --config is not given. It may be absent.
const DefaultConfigFile = "receipts.yaml"

// supportedEncodings lists the accepted input.encoding values.
var supportedEncodings = map[string]bool{
	"utf-8":        true,
	"windows-1252": true,
	"iso-8859-1":   true,
	"iso-8859-15":  true,
}

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the complete application configuration.
type Config struct {
	// OutputDir receives the compiled receipts (and retained sources).
	// Default: "./spendenbescheinigungen"
	OutputDir string `yaml:"output_dir"`

	// WorkDir is the parent of the per-run scratch directory.
	// Default: the system temp directory.
	WorkDir string `yaml:"work_dir"`

	Templates  TemplateSettings   `yaml:"templates"`
	Compiler   CompilerSettings   `yaml:"compiler"`
	Input      InputSettings      `yaml:"input"`
	Collective CollectiveSettings `yaml:"collective"`
	Report     ReportSettings     `yaml:"report"`
	Log        LogSettings        `yaml:"log"`
}

// TemplateSettings points at the receipt templates. Empty paths select the
// built-in templates.
type TemplateSettings struct {
	Individual string `yaml:"individual"`
	Collective string `yaml:"collective"`
}

// CompilerSettings describes the external document compiler.
type CompilerSettings struct {
	// Command is the executable, looked up in PATH.
	// Default: "pdflatex"
	Command string `yaml:"command"`

	// Args are passed before the source file name.
	// Default: ["-interaction=nonstopmode", "-halt-on-error"]
	Args []string `yaml:"args"`

	// Timeout bounds a single compiler invocation.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// SourceExt is the extension of the rendered source file. Default: ".tex"
	SourceExt string `yaml:"source_ext"`

	// OutputExt is the extension of the compiled document. Default: ".pdf"
	OutputExt string `yaml:"output_ext"`

	// ArtifactExts are intermediate files removed after each document.
	// Default: [".aux", ".log", ".out"]
	ArtifactExts []string `yaml:"artifact_exts"`
}

// InputSettings controls how the donation list is read.
type InputSettings struct {
	// Encoding of CSV input: utf-8, windows-1252, iso-8859-1, iso-8859-15.
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// Sheet selects the worksheet of XLSX input. Empty means the first sheet.
	Sheet string `yaml:"sheet"`
}

// CollectiveSettings controls collective receipts.
type CollectiveSettings struct {
	// Mode is "single" or "donor". Default: "single"
	Mode string `yaml:"mode"`

	// Enabled turns collective receipts on. Default: true
	Enabled *bool `yaml:"enabled"`
}

// ReportSettings controls the run reports written to the output directory.
type ReportSettings struct {
	// XLSX writes a run report workbook. Default: true
	XLSX *bool `yaml:"xlsx"`

	// ErrorLog writes a text error log when anything failed. Default: true
	ErrorLog *bool `yaml:"error_log"`
}

// LogSettings controls diagnostic logging.
type LogSettings struct {
	// Level is debug, info, warn or error. Default: "info"
	Level string `yaml:"level"`

	// Format is text or json. Default: "text"
	Format string `yaml:"format"`
}

// CollectiveEnabled reports whether collective receipts are produced.
func (c *Config) CollectiveEnabled() bool {
	return c.Collective.Enabled == nil || *c.Collective.Enabled
}

// XLSXReportEnabled reports whether the run report workbook is written.
func (c *Config) XLSXReportEnabled() bool {
	return c.Report.XLSX == nil || *c.Report.XLSX
}

// ErrorLogEnabled reports whether the text error log is written.
func (c *Config) ErrorLogEnabled() bool {
	return c.Report.ErrorLog == nil || *c.Report.ErrorLog
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the configuration file at path and applies defaults.
//
// PARAMETERS:
//   - path: The YAML file. Empty means defaults only.
//   - required: When false a missing file is not an error.
//
// RETURNS:
//   - The configuration with defaults applied (not yet validated, so that
//     environment and flags can still change it).
//   - An error if the file cannot be read or parsed.
func Load(path string, required bool) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
			// Optional file, defaults only.
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./spendenbescheinigungen"
	}
	if cfg.Compiler.Command == "" {
		cfg.Compiler.Command = "pdflatex"
		if cfg.Compiler.Args == nil {
			cfg.Compiler.Args = []string{"-interaction=nonstopmode", "-halt-on-error"}
		}
	}
	if cfg.Compiler.Timeout == 0 {
		cfg.Compiler.Timeout = 30 * time.Second
	}
	if cfg.Compiler.SourceExt == "" {
		cfg.Compiler.SourceExt = ".tex"
	}
	if cfg.Compiler.OutputExt == "" {
		cfg.Compiler.OutputExt = ".pdf"
	}
	if cfg.Compiler.ArtifactExts == nil {
		cfg.Compiler.ArtifactExts = []string{".aux", ".log", ".out"}
	}
	if cfg.Input.Encoding == "" {
		cfg.Input.Encoding = "utf-8"
	}
	if cfg.Collective.Mode == "" {
		cfg.Collective.Mode = ModeSingle
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides settings from RECEIPTS_* environment variables.
//
// Supported variables:
//   RECEIPTS_OUTPUT_DIR, RECEIPTS_WORK_DIR,
//   RECEIPTS_TEMPLATE_INDIVIDUAL, RECEIPTS_TEMPLATE_COLLECTIVE,
//   RECEIPTS_COMPILER, RECEIPTS_COMPILER_ARGS (space separated; a compiler
//   override without it runs the command with no extra arguments),
//   RECEIPTS_COMPILER_TIMEOUT (Go duration or seconds),
//   RECEIPTS_INPUT_ENCODING, RECEIPTS_INPUT_SHEET,
//   RECEIPTS_COLLECTIVE_MODE, RECEIPTS_LOG_LEVEL, RECEIPTS_LOG_FORMAT
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("RECEIPTS_OUTPUT_DIR", &cfg.OutputDir)
	str("RECEIPTS_WORK_DIR", &cfg.WorkDir)
	str("RECEIPTS_TEMPLATE_INDIVIDUAL", &cfg.Templates.Individual)
	str("RECEIPTS_TEMPLATE_COLLECTIVE", &cfg.Templates.Collective)
	str("RECEIPTS_INPUT_ENCODING", &cfg.Input.Encoding)
	str("RECEIPTS_INPUT_SHEET", &cfg.Input.Sheet)
	str("RECEIPTS_COLLECTIVE_MODE", &cfg.Collective.Mode)
	str("RECEIPTS_LOG_LEVEL", &cfg.Log.Level)
	str("RECEIPTS_LOG_FORMAT", &cfg.Log.Format)

	command := cfg.Compiler.Command
	str("RECEIPTS_COMPILER", &cfg.Compiler.Command)

	if v, ok := lookup("RECEIPTS_COMPILER_ARGS"); ok {
		cfg.Compiler.Args = strings.Fields(v)
	} else if cfg.Compiler.Command != command {
		cfg.Compiler.Args = nil
	}

	if v, ok := lookup("RECEIPTS_COMPILER_TIMEOUT"); ok && v != "" {
		timeout, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("RECEIPTS_COMPILER_TIMEOUT: %w", err)
		}
		cfg.Compiler.Timeout = timeout
	}

	return nil
}

// parseTimeout accepts a Go duration ("45s", "2m") or a plain number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the final configuration.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.OutputDir) == "" {
		problems = append(problems, "output_dir must not be empty")
	}
	if strings.TrimSpace(c.Compiler.Command) == "" {
		problems = append(problems, "compiler.command must not be empty")
	}
	if c.Compiler.Timeout <= 0 {
		problems = append(problems, "compiler.timeout must be positive")
	}
	if !strings.HasPrefix(c.Compiler.SourceExt, ".") || !strings.HasPrefix(c.Compiler.OutputExt, ".") {
		problems = append(problems, "compiler.source_ext and compiler.output_ext must start with a dot")
	}
	if !supportedEncodings[NormalizeEncoding(c.Input.Encoding)] {
		problems = append(problems, fmt.Sprintf("input.encoding %q is not supported", c.Input.Encoding))
	}
	switch c.Collective.Mode {
	case ModeSingle, ModeDonor:
	default:
		problems = append(problems, fmt.Sprintf("collective.mode must be %q or %q, got %q", ModeSingle, ModeDonor, c.Collective.Mode))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// NormalizeEncoding maps common spellings onto the canonical encoding names.
func NormalizeEncoding(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return "utf-8"
	case "windows-1252", "cp1252", "win1252":
		return "windows-1252"
	case "iso-8859-1", "latin1", "latin-1":
		return "iso-8859-1"
	case "iso-8859-15", "latin9", "latin-9":
		return "iso-8859-15"
	default:
		return strings.ToLower(strings.TrimSpace(name))
	}
}
