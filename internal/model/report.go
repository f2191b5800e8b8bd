package model

import "time"

// VariantReport is the per-variant section of the aggregate report.
type VariantReport struct {
	Kind           SanitizerKind `json:"kind" yaml:"kind"`
	CompilerPath   string        `json:"compiler,omitempty" yaml:"compiler,omitempty"`
	CompilerFamily string        `json:"compiler_family,omitempty" yaml:"compiler_family,omitempty"`
	BuildDir       string        `json:"build_dir,omitempty" yaml:"build_dir,omitempty"`
	Skipped        bool          `json:"skipped" yaml:"skipped"`
	SkipReason     string        `json:"skip_reason,omitempty" yaml:"skip_reason,omitempty"`
	BuildSucceeded bool          `json:"build_succeeded" yaml:"build_succeeded"`
	BuildError     string        `json:"build_error,omitempty" yaml:"build_error,omitempty"`
	Tests          []TestReport  `json:"tests" yaml:"tests"`
	TestsPassed    int           `json:"tests_passed" yaml:"tests_passed"`
	TestsFailed    int           `json:"tests_failed" yaml:"tests_failed"`
}

// TestReport is the serializable form of a TestOutcome.
type TestReport struct {
	Name     string        `json:"name" yaml:"name"`
	Status   string        `json:"status" yaml:"status"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Duration time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Summary holds the aggregate counters for one run. Build failures and test
// failures are tracked separately and never conflated.
type Summary struct {
	TotalVariants   int  `json:"total_variants" yaml:"total_variants"`
	SkippedVariants int  `json:"skipped_variants" yaml:"skipped_variants"`
	BuildFailures   int  `json:"build_failures" yaml:"build_failures"`
	TestsPassed     int  `json:"tests_passed" yaml:"tests_passed"`
	TestsFailed     int  `json:"tests_failed" yaml:"tests_failed"`
	Success         bool `json:"success" yaml:"success"`
}

// ReportFormat selects one rendered report representation.
type ReportFormat string

const (
	// FormatText is the human-readable report.
	FormatText ReportFormat = "text"
	// FormatJSON is the machine-readable summary.
	FormatJSON ReportFormat = "json"
	// FormatHTML is the static report page.
	FormatHTML ReportFormat = "html"
)

// AllFormats lists every supported report format.
var AllFormats = []ReportFormat{FormatText, FormatJSON, FormatHTML}

// FileName returns the report file name for the format.
func (f ReportFormat) FileName() string {
	switch f {
	case FormatJSON:
		return "analysis_report.json"
	case FormatHTML:
		return "analysis_report.html"
	default:
		return "analysis_report.txt"
	}
}

// Report is the aggregate over all variants of one orchestrator run. It is
// derived state, recomputed fully on each run, never merged with a previous
// run's report.
type Report struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time       `json:"generated_at" yaml:"generated_at"`
	SourceDir   string          `json:"source_dir" yaml:"source_dir"`
	Summary     Summary         `json:"summary" yaml:"summary"`
	Variants    []VariantReport `json:"variants" yaml:"variants"`
}
