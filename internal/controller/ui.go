// Package controller provides output controllers for displaying build-matrix progress and results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

// StartOption is a functional option for the Start method.
type StartOption func(*StartConfig)

// StartConfig holds configuration for starting the UI.
type StartConfig struct {
	quiet  bool
	dryRun bool
}

// WithQuiet suppresses per-test progress lines; summaries still print.
func WithQuiet() StartOption {
	return func(c *StartConfig) {
		c.quiet = true
	}
}

// WithDryRun marks the session as a dry run.
func WithDryRun() StartOption {
	return func(c *StartConfig) {
		c.dryRun = true
	}
}

// CapabilityRow is one compiler's sanitizer support, for the probe table.
type CapabilityRow struct {
	Compiler  m.Compiler
	Supported map[m.SanitizerKind]bool
}

// UI defines the interface for displaying orchestrator progress and results.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	Start(ctx context.Context, options ...StartOption) error
	Close(ctx context.Context)
	Warn(ctx context.Context, message string)
	DisplayPlannedVariant(ctx context.Context, variant m.Variant)
	DisplayVariantSkipped(ctx context.Context, kind m.SanitizerKind, reason string)
	DisplayBuildResult(ctx context.Context, result m.BuildResult)
	DisplayTestOutcome(ctx context.Context, kind m.SanitizerKind, outcome m.TestOutcome)
	DisplayDryRunCommand(ctx context.Context, kind m.SanitizerKind, command string)
	DisplayCapabilityMatrix(ctx context.Context, rows []CapabilityRow, kinds []m.SanitizerKind)
	DisplaySummary(ctx context.Context, report m.Report)
	DisplayReportText(ctx context.Context, text string)
}

// NewUI selects the controller implementation: the live TUI on interactive
// terminals, plain output otherwise.
func NewUI(cmd *cobra.Command, interactive bool) UI {
	if interactive {
		return NewTUI(cmd.OutOrStdout())
	}

	return NewSimpleUI(cmd)
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(file.Fd()))
}
