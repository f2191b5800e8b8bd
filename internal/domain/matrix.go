package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"sanmat.dev/pkg/sanmat/internal/adapter"
	m "sanmat.dev/pkg/sanmat/internal/model"
)

// BuildMatrixController drives the configure-then-build cycle for variants.
// Independent variants share no build state.
type BuildMatrixController interface {
	// Build configures and builds the variant. It never retries; a failed
	// variant is reported and excluded from test execution by the caller.
	Build(ctx context.Context, variant m.Variant) m.BuildResult

	// ConfigureCommand and BuildCommand expose the exact invocations Build
	// would run, for dry-run output.
	ConfigureCommand(variant m.Variant) adapter.CommandSpec
	BuildCommand(variant m.Variant) adapter.CommandSpec
}

type buildMatrix struct {
	runner    adapter.CommandRunner
	fs        adapter.BuildFSAdapter
	sourceDir m.Path
	generator string
	jobs      int
}

// NewBuildMatrix constructs a BuildMatrixController for one source tree.
// jobs bounds the build system's parallelism; values below 1 become 1.
func NewBuildMatrix(runner adapter.CommandRunner, fs adapter.BuildFSAdapter, sourceDir m.Path, generator string, jobs int) BuildMatrixController {
	if jobs < 1 {
		jobs = 1
	}

	return &buildMatrix{
		runner:    runner,
		fs:        fs,
		sourceDir: sourceDir,
		generator: generator,
		jobs:      jobs,
	}
}

// Build recreates the variant's exclusive build directory and runs configure
// then build. Rebuilding must not depend on residual state from a previous
// partial build, hence the clean-on-reconfigure.
func (b *buildMatrix) Build(ctx context.Context, variant m.Variant) m.BuildResult {
	if err := b.fs.RemoveAll(variant.BuildDir); err != nil {
		return failedBuild(variant, fmt.Sprintf("clean build dir: %v", err))
	}

	if err := b.fs.EnsureDir(variant.BuildDir); err != nil {
		return failedBuild(variant, fmt.Sprintf("create build dir: %v", err))
	}

	slog.Info("configuring variant", "kind", variant.Kind, "buildDir", variant.BuildDir)

	result, err := b.runner.Run(ctx, b.ConfigureCommand(variant))
	if err != nil {
		return failedBuild(variant, fmt.Sprintf("configure: %v", err))
	}

	if !result.Succeeded() {
		return failedBuild(variant, fmt.Sprintf("configure failed:\n%s", result.Output))
	}

	slog.Info("building variant", "kind", variant.Kind, "jobs", b.jobs)

	result, err = b.runner.Run(ctx, b.BuildCommand(variant))
	if err != nil {
		return failedBuild(variant, fmt.Sprintf("build: %v", err))
	}

	if !result.Succeeded() {
		return failedBuild(variant, fmt.Sprintf("build failed:\n%s", result.Output))
	}

	return m.BuildResult{Variant: variant, Succeeded: true}
}

func (b *buildMatrix) ConfigureCommand(variant m.Variant) adapter.CommandSpec {
	args := []string{"-S", string(b.sourceDir), "-B", string(variant.BuildDir)}

	if b.generator != "" {
		args = append(args, "-G", b.generator)
	}

	args = append(args, variant.CMakeArgs...)

	return adapter.CommandSpec{Name: "cmake", Args: args}
}

func (b *buildMatrix) BuildCommand(variant m.Variant) adapter.CommandSpec {
	return adapter.CommandSpec{
		Name: "cmake",
		Args: []string{"--build", string(variant.BuildDir), "--parallel", strconv.Itoa(b.jobs)},
	}
}

func failedBuild(variant m.Variant, detail string) m.BuildResult {
	slog.Error("variant build failed", "kind", variant.Kind, "detail", detail)

	return m.BuildResult{Variant: variant, Succeeded: false, ErrorDetail: detail}
}
