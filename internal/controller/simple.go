package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// SimpleUI implements UI using the cobra Command's output writer.
type SimpleUI struct {
	cmd   *cobra.Command
	quiet bool
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var config StartConfig
	for _, option := range options {
		option(&config)
	}

	s.quiet = config.quiet

	if config.dryRun {
		s.printf("%s\n", dimStyle.Render("dry run: printing planned commands, executing nothing"))
	}

	return nil
}

// Close finalizes the UI (no-op for SimpleUI).
func (s *SimpleUI) Close(ctx context.Context) {
	if err := ctx.Err(); err != nil {
		return
	}
}

// Warn prints a highlighted warning line.
func (s *SimpleUI) Warn(ctx context.Context, message string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s %s\n", warnStyle.Render("warning:"), message)
}

// DisplayPlannedVariant announces the compiler selected for a kind.
func (s *SimpleUI) DisplayPlannedVariant(ctx context.Context, variant m.Variant) {
	if err := ctx.Err(); err != nil || s.quiet {
		return
	}

	s.printf("[%s] using %s (%s)\n", variant.Kind, variant.Compiler.Path, variant.Compiler.Family)
}

// DisplayVariantSkipped reports a kind that could not be planned.
func (s *SimpleUI) DisplayVariantSkipped(ctx context.Context, kind m.SanitizerKind, reason string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("[%s] %s: %s\n", kind, warnStyle.Render("skipped"), reason)
}

// DisplayBuildResult reports the configure+build outcome for a variant.
func (s *SimpleUI) DisplayBuildResult(ctx context.Context, result m.BuildResult) {
	if err := ctx.Err(); err != nil {
		return
	}

	if result.Succeeded {
		if !s.quiet {
			s.printf("[%s] build %s\n", result.Variant.Kind, passStyle.Render("ok"))
		}

		return
	}

	s.printf("[%s] build %s\n%s\n", result.Variant.Kind, failStyle.Render("FAILED"), result.ErrorDetail)
}

// DisplayTestOutcome reports one finished test.
func (s *SimpleUI) DisplayTestOutcome(ctx context.Context, kind m.SanitizerKind, outcome m.TestOutcome) {
	if err := ctx.Err(); err != nil || s.quiet {
		return
	}

	if outcome.Status == m.TestPassed {
		s.printf("[%s] %s %s\n", kind, outcome.Name, passStyle.Render("passed"))
		return
	}

	s.printf("[%s] %s %s (%s)\n", kind, outcome.Name, failStyle.Render("failed"), outcome.Reason)
}

// DisplayDryRunCommand prints a command that would have been executed.
func (s *SimpleUI) DisplayDryRunCommand(ctx context.Context, kind m.SanitizerKind, command string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("[%s] would run: %s\n", kind, command)
}

// DisplayCapabilityMatrix renders the compiler support table.
func (s *SimpleUI) DisplayCapabilityMatrix(ctx context.Context, rows []CapabilityRow, kinds []m.SanitizerKind) {
	if err := ctx.Err(); err != nil {
		return
	}

	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)

	header := []string{"Compiler", "Family", "Version"}
	for _, kind := range kinds {
		header = append(header, string(kind))
	}

	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")

	for _, row := range rows {
		line := []string{string(row.Compiler.Path), string(row.Compiler.Family), row.Compiler.Version}

		for _, kind := range kinds {
			if row.Supported[kind] {
				line = append(line, "yes")
			} else {
				line = append(line, "no")
			}
		}

		table.Append(line)
	}

	table.Render()

	s.printf("\n%s", tableBuffer.String())
}

// DisplaySummary prints the final aggregate summary.
func (s *SimpleUI) DisplaySummary(ctx context.Context, report m.Report) {
	if err := ctx.Err(); err != nil {
		return
	}

	verdict := failStyle.Render("FAILED")
	if report.Summary.Success {
		verdict = passStyle.Render("ok")
	}

	s.printf("\nVariants: %d (%d skipped) | Build failures: %d | Tests: %d passed, %d failed | %s\n",
		report.Summary.TotalVariants,
		report.Summary.SkippedVariants,
		report.Summary.BuildFailures,
		report.Summary.TestsPassed,
		report.Summary.TestsFailed,
		verdict,
	)
}

// DisplayReportText prints a rendered text report verbatim.
func (s *SimpleUI) DisplayReportText(ctx context.Context, text string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s", text)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
