package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sanmat.dev/pkg/sanmat/internal/adapter"
	"sanmat.dev/pkg/sanmat/internal/controller"
	m "sanmat.dev/pkg/sanmat/internal/model"
)

// RunArgs is the immutable configuration for one orchestrator run. It is
// threaded through every component call; no component reads ambient
// environment or global flags.
type RunArgs struct {
	SourceDir        m.Path
	Kinds            []m.SanitizerKind
	CompilerOverride string
	Candidates       []string
	Generator        string
	BuildType        string
	Jobs             int
	BuildRoot        m.Path
	TestTimeout      time.Duration
	DryRun           bool
	Quiet            bool
	Reports          m.Path
	WriteReports     bool
	PrimaryArtifact  string
}

// ProbeArgs configures the standalone capability probe.
type ProbeArgs struct {
	Candidates []string
	Kinds      []m.SanitizerKind
}

// ViewArgs configures re-rendering of a saved run.
type ViewArgs struct {
	Reports m.Path
}

// Workflow is the top-level orchestration: probe compilers, plan variants,
// build and test them sequentially, aggregate and persist the report.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) error
	Probe(ctx context.Context, args ProbeArgs) error
	View(ctx context.Context, args ViewArgs) error
}

type workflow struct {
	runner     adapter.CommandRunner
	fs         adapter.BuildFSAdapter
	store      adapter.ReportStore
	ui         controller.UI
	probe      CompilerProbe
	aggregator ReportAggregator
}

// NewWorkflow creates a Workflow instance with the provided dependencies.
func NewWorkflow(
	runner adapter.CommandRunner,
	fs adapter.BuildFSAdapter,
	store adapter.ReportStore,
	ui controller.UI,
	probe CompilerProbe,
	aggregator ReportAggregator,
) Workflow {
	return &workflow{
		runner:     runner,
		fs:         fs,
		store:      store,
		ui:         ui,
		probe:      probe,
		aggregator: aggregator,
	}
}

// Run executes the build matrix. Variants run strictly sequentially:
// sanitizer runtimes are process-global and concurrent variants would fight
// over temp paths, environment and test resources.
func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	if err := w.startUI(ctx, args); err != nil {
		return err
	}
	defer w.ui.Close(ctx)

	compilers, err := w.probe.Probe(ctx, args.Candidates)
	if err != nil {
		return fmt.Errorf("probe compilers: %w", err)
	}

	if len(compilers) == 0 {
		return fmt.Errorf("%w (candidates: %v)", ErrNoCompilerFound, args.Candidates)
	}

	override, err := w.resolveOverride(ctx, args.CompilerOverride, compilers)
	if err != nil {
		return err
	}

	for _, warning := range ConflictWarnings(args.Kinds) {
		slog.Warn(warning)
		w.ui.Warn(ctx, warning)
	}

	planner := w.newPlanner(compilers, args)
	matrix := NewBuildMatrix(w.runner, w.fs, args.SourceDir, args.Generator, args.Jobs)
	executor := NewTestExecutor(w.runner, DefaultStrategies(w.fs, args.PrimaryArtifact)...)

	results := make([]VariantResult, 0, len(args.Kinds))

	for _, kind := range args.Kinds {
		results = append(results, w.runVariant(ctx, kind, override, planner, matrix, executor, args))
	}

	if args.DryRun {
		return nil
	}

	report := w.aggregator.Aggregate(args.SourceDir, results)

	if args.WriteReports {
		w.writeReports(ctx, report, args.Reports)
	}

	w.ui.DisplaySummary(ctx, report)

	if !report.Summary.Success {
		return ErrRunFailed
	}

	return nil
}

func (w *workflow) startUI(ctx context.Context, args RunArgs) error {
	var options []controller.StartOption

	if args.Quiet {
		options = append(options, controller.WithQuiet())
	}

	if args.DryRun {
		options = append(options, controller.WithDryRun())
	}

	if err := w.ui.Start(ctx, options...); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}

	return nil
}

func (w *workflow) newPlanner(compilers []m.Compiler, args RunArgs) VariantPlanner {
	var options []PlannerOption

	// Dry run must not spawn toolchain processes, so planning trusts
	// family-level capability instead of trial compiles.
	if args.DryRun {
		options = append(options, WithFamilyCheckOnly())
	}

	return NewVariantPlanner(w.probe, compilers, args.BuildRoot, args.BuildType, options...)
}

// runVariant drives one sanitizer kind through plan, build and test. Every
// failure below this level is recorded in the result and never aborts
// sibling variants.
func (w *workflow) runVariant(
	ctx context.Context,
	kind m.SanitizerKind,
	override *m.Compiler,
	planner VariantPlanner,
	matrix BuildMatrixController,
	executor TestExecutor,
	args RunArgs,
) VariantResult {
	variant, err := planner.Plan(ctx, kind, override)
	if err != nil {
		slog.Warn("sanitizer kind skipped", "kind", kind, "reason", err)
		w.ui.DisplayVariantSkipped(ctx, kind, err.Error())

		return VariantResult{Kind: kind, SkipReason: err.Error()}
	}

	w.ui.DisplayPlannedVariant(ctx, variant)

	if args.DryRun {
		w.ui.DisplayDryRunCommand(ctx, kind, matrix.ConfigureCommand(variant).String())
		w.ui.DisplayDryRunCommand(ctx, kind, matrix.BuildCommand(variant).String())
		w.ui.DisplayDryRunCommand(ctx, kind, executor.ManifestCommand(variant, args.TestTimeout).String())

		return VariantResult{Kind: kind, Variant: &variant}
	}

	buildResult := matrix.Build(ctx, variant)
	w.ui.DisplayBuildResult(ctx, buildResult)

	if !buildResult.Succeeded {
		return VariantResult{Kind: kind, Variant: &variant, Build: &buildResult}
	}

	outcomes := executor.Run(ctx, variant, args.TestTimeout)
	for _, outcome := range outcomes {
		w.ui.DisplayTestOutcome(ctx, kind, outcome)
	}

	return VariantResult{Kind: kind, Variant: &variant, Build: &buildResult, Outcomes: outcomes}
}

// writeReports renders and persists the report. Report-write failures are
// surfaced as warnings only; they never change the run's exit status.
func (w *workflow) writeReports(ctx context.Context, report m.Report, dir m.Path) {
	documents, err := w.aggregator.Render(report, m.AllFormats)
	if err != nil {
		slog.Error("failed to render reports", "error", err)
		w.ui.Warn(ctx, fmt.Sprintf("failed to render reports: %v", err))

		return
	}

	if err := w.store.WriteDocuments(dir, documents); err != nil {
		slog.Error("failed to write report files", "dir", dir, "error", err)
		w.ui.Warn(ctx, fmt.Sprintf("failed to write report files: %v", err))
	}

	if err := w.store.SaveRun(dir, report); err != nil {
		slog.Error("failed to save run state", "dir", dir, "error", err)
		w.ui.Warn(ctx, fmt.Sprintf("failed to save run state: %v", err))
	}
}

// resolveOverride maps the --compiler flag onto a probed compiler, probing it
// directly when it was not among the default candidates. An unresolvable
// override is fatal: the user named a specific toolchain.
func (w *workflow) resolveOverride(ctx context.Context, name string, compilers []m.Compiler) (*m.Compiler, error) {
	if name == "" {
		return nil, nil
	}

	for i := range compilers {
		if compilers[i].Name == name || string(compilers[i].Path) == name {
			return &compilers[i], nil
		}
	}

	probed, err := w.probe.Probe(ctx, []string{name})
	if err != nil {
		return nil, fmt.Errorf("probe override compiler: %w", err)
	}

	if len(probed) == 0 {
		return nil, fmt.Errorf("compiler override %q not found on search path", name)
	}

	return &probed[0], nil
}

// Probe runs the standalone capability matrix and displays it.
func (w *workflow) Probe(ctx context.Context, args ProbeArgs) error {
	if err := w.ui.Start(ctx); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.ui.Close(ctx)

	compilers, err := w.probe.Probe(ctx, args.Candidates)
	if err != nil {
		return fmt.Errorf("probe compilers: %w", err)
	}

	if len(compilers) == 0 {
		return fmt.Errorf("%w (candidates: %v)", ErrNoCompilerFound, args.Candidates)
	}

	kinds := args.Kinds
	if len(kinds) == 0 {
		kinds = m.AllSanitizers
	}

	matrix := CapabilityMatrix(ctx, w.probe, compilers, kinds)

	rows := make([]controller.CapabilityRow, 0, len(compilers))
	byPath := map[m.Path]int{}

	for _, compiler := range compilers {
		byPath[compiler.Path] = len(rows)
		rows = append(rows, controller.CapabilityRow{
			Compiler:  compiler,
			Supported: map[m.SanitizerKind]bool{},
		})
	}

	for _, capability := range matrix {
		if i, ok := byPath[capability.Compiler.Path]; ok {
			rows[i].Supported[capability.Kind] = capability.Supported
		}
	}

	w.ui.DisplayCapabilityMatrix(ctx, rows, kinds)

	return nil
}

// View re-renders the persisted run report.
func (w *workflow) View(ctx context.Context, args ViewArgs) error {
	if err := w.ui.Start(ctx); err != nil {
		return fmt.Errorf("start ui: %w", err)
	}
	defer w.ui.Close(ctx)

	report, err := w.store.LoadRun(args.Reports)
	if err != nil {
		return fmt.Errorf("load saved run: %w", err)
	}

	documents, err := w.aggregator.Render(report, []m.ReportFormat{m.FormatText})
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	w.ui.DisplayReportText(ctx, string(documents[m.FormatText]))

	return nil
}
