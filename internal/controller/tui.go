package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

// TUI implements UI with a live Bubble Tea view: a spinner for the current
// activity above the log of completed steps.
type TUI struct {
	output  io.Writer
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI writing to output.
func NewTUI(output io.Writer) *TUI {
	return &TUI{output: output}
}

// Start launches the Bubble Tea program in the background.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var config StartConfig
	for _, option := range options {
		option(&config)
	}

	t.program = tea.NewProgram(newRunModel(config), tea.WithOutput(t.output), tea.WithoutSignalHandler())
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)

		_, _ = t.program.Run()
	}()

	return nil
}

// Close shuts the program down and waits for the final frame.
func (t *TUI) Close(_ context.Context) {
	if t.program == nil {
		return
	}

	t.program.Quit()
	<-t.done

	t.program = nil
}

// Warn displays a warning line.
func (t *TUI) Warn(ctx context.Context, message string) {
	t.appendLine(ctx, fmt.Sprintf("%s %s", warnStyle.Render("warning:"), message))
}

// DisplayPlannedVariant announces the compiler selected for a kind.
func (t *TUI) DisplayPlannedVariant(ctx context.Context, variant m.Variant) {
	t.setActivity(ctx, fmt.Sprintf("building %s variant with %s", variant.Kind, variant.Compiler.Path))
	t.appendLine(ctx, fmt.Sprintf("[%s] using %s (%s)", variant.Kind, variant.Compiler.Path, variant.Compiler.Family))
}

// DisplayVariantSkipped reports a kind that could not be planned.
func (t *TUI) DisplayVariantSkipped(ctx context.Context, kind m.SanitizerKind, reason string) {
	t.appendLine(ctx, fmt.Sprintf("[%s] %s: %s", kind, warnStyle.Render("skipped"), reason))
}

// DisplayBuildResult reports the configure+build outcome for a variant.
func (t *TUI) DisplayBuildResult(ctx context.Context, result m.BuildResult) {
	if result.Succeeded {
		t.setActivity(ctx, fmt.Sprintf("testing %s variant", result.Variant.Kind))
		t.appendLine(ctx, fmt.Sprintf("[%s] build %s", result.Variant.Kind, passStyle.Render("ok")))

		return
	}

	t.appendLine(ctx, fmt.Sprintf("[%s] build %s\n%s", result.Variant.Kind, failStyle.Render("FAILED"), result.ErrorDetail))
}

// DisplayTestOutcome reports one finished test.
func (t *TUI) DisplayTestOutcome(ctx context.Context, kind m.SanitizerKind, outcome m.TestOutcome) {
	if outcome.Status == m.TestPassed {
		t.appendLine(ctx, fmt.Sprintf("[%s] %s %s", kind, outcome.Name, passStyle.Render("passed")))
		return
	}

	t.appendLine(ctx, fmt.Sprintf("[%s] %s %s (%s)", kind, outcome.Name, failStyle.Render("failed"), outcome.Reason))
}

// DisplayDryRunCommand prints a command that would have been executed.
func (t *TUI) DisplayDryRunCommand(ctx context.Context, kind m.SanitizerKind, command string) {
	t.appendLine(ctx, fmt.Sprintf("[%s] would run: %s", kind, command))
}

// DisplayCapabilityMatrix renders the compiler support table. The table is a
// one-shot display; it reuses the SimpleUI rendering path via plain lines.
func (t *TUI) DisplayCapabilityMatrix(ctx context.Context, rows []CapabilityRow, kinds []m.SanitizerKind) {
	for _, row := range rows {
		supported := make([]string, 0, len(kinds))

		for _, kind := range kinds {
			if row.Supported[kind] {
				supported = append(supported, string(kind))
			}
		}

		t.appendLine(ctx, fmt.Sprintf("%s (%s): %s",
			row.Compiler.Path, row.Compiler.Family, strings.Join(supported, ", ")))
	}
}

// DisplaySummary shows the final aggregate summary.
func (t *TUI) DisplaySummary(ctx context.Context, report m.Report) {
	verdict := failStyle.Render("FAILED")
	if report.Summary.Success {
		verdict = passStyle.Render("ok")
	}

	t.setActivity(ctx, "")
	t.appendLine(ctx, fmt.Sprintf("Variants: %d (%d skipped) | Build failures: %d | Tests: %d passed, %d failed | %s",
		report.Summary.TotalVariants,
		report.Summary.SkippedVariants,
		report.Summary.BuildFailures,
		report.Summary.TestsPassed,
		report.Summary.TestsFailed,
		verdict,
	))
}

// DisplayReportText prints a rendered text report verbatim.
func (t *TUI) DisplayReportText(ctx context.Context, text string) {
	t.appendLine(ctx, strings.TrimRight(text, "\n"))
}

func (t *TUI) appendLine(ctx context.Context, line string) {
	if err := ctx.Err(); err != nil {
		return
	}

	if t.program == nil {
		// Start was not called; degrade to direct output.
		_, _ = fmt.Fprintln(t.output, line)
		return
	}

	t.program.Send(lineMsg(line))
}

func (t *TUI) setActivity(ctx context.Context, activity string) {
	if err := ctx.Err(); err != nil || t.program == nil {
		return
	}

	t.program.Send(activityMsg(activity))
}

type lineMsg string

type activityMsg string

type runModel struct {
	spinner  spinner.Model
	lines    []string
	activity string
	quiet    bool
	quitting bool
}

func newRunModel(config StartConfig) runModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))

	return runModel{spinner: s, quiet: config.quiet}
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case lineMsg:
		rm.lines = append(rm.lines, string(msg))
		return rm, nil

	case activityMsg:
		rm.activity = string(msg)
		return rm, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			rm.quitting = true
			return rm, tea.Quit
		}

		return rm, nil

	case tea.QuitMsg:
		rm.quitting = true
		return rm, tea.Quit

	default:
		var cmd tea.Cmd

		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd
	}
}

func (rm runModel) View() string {
	var b strings.Builder

	for _, line := range rm.lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if rm.activity != "" && !rm.quitting {
		b.WriteString(fmt.Sprintf("%s %s\n", rm.spinner.View(), rm.activity))
	}

	return b.String()
}
