package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

// VariantPlanner selects a compiler for a sanitizer kind and constructs the
// variant's build configuration.
type VariantPlanner interface {
	// Plan returns the variant for kind, or an error wrapping
	// ErrNoCompatibleCompiler / ErrMemoryNeedsClang when the kind must be
	// skipped. Plan never aborts the run.
	Plan(ctx context.Context, kind m.SanitizerKind, override *m.Compiler) (m.Variant, error)
}

type variantPlanner struct {
	probe     CompilerProbe
	compilers []m.Compiler
	buildRoot m.Path
	buildType string
	// familyCheckOnly skips trial compilations and trusts family-level
	// capability. Used by dry-run, where no toolchain may be invoked.
	familyCheckOnly bool
}

// PlannerOption customizes a VariantPlanner.
type PlannerOption func(*variantPlanner)

// WithFamilyCheckOnly disables trial compilations during planning.
func WithFamilyCheckOnly() PlannerOption {
	return func(p *variantPlanner) {
		p.familyCheckOnly = true
	}
}

// NewVariantPlanner constructs a planner over the probed compiler set.
// Variants get exclusive build directories under buildRoot, one per kind.
func NewVariantPlanner(probe CompilerProbe, compilers []m.Compiler, buildRoot m.Path, buildType string, options ...PlannerOption) VariantPlanner {
	planner := &variantPlanner{
		probe:     probe,
		compilers: compilers,
		buildRoot: buildRoot,
		buildType: buildType,
	}

	for _, option := range options {
		option(planner)
	}

	return planner
}

func (p *variantPlanner) Plan(ctx context.Context, kind m.SanitizerKind, override *m.Compiler) (m.Variant, error) {
	if override != nil {
		// User intent wins, without a capability check. The one exception is
		// the memory sanitizer: on a non-clang family it fails silently in
		// harmful ways, so the combination is a hard precondition.
		if kind == m.SanitizerMemory && !override.SupportsFamilyOf(kind) {
			return m.Variant{}, fmt.Errorf("%w: %s is %s-family", ErrMemoryNeedsClang, override.Path, override.Family)
		}

		return p.variantFor(kind, *override), nil
	}

	for _, family := range m.FamilyPreferenceOrder {
		for _, compiler := range p.compilers {
			if compiler.Family != family || !compiler.SupportsFamilyOf(kind) {
				continue
			}

			if !p.familyCheckOnly && !p.probe.Supports(ctx, compiler, kind) {
				slog.Info("compiler failed capability probe", "compiler", compiler.Path, "kind", kind)
				continue
			}

			return p.variantFor(kind, compiler), nil
		}
	}

	return m.Variant{}, fmt.Errorf("%w for %s sanitizer", ErrNoCompatibleCompiler, kind)
}

func (p *variantPlanner) variantFor(kind m.SanitizerKind, compiler m.Compiler) m.Variant {
	profile := kind.Profile()

	return m.Variant{
		Kind:     kind,
		Compiler: compiler,
		BuildDir: m.Path(filepath.Join(string(p.buildRoot), string(kind))),
		CMakeArgs: []string{
			fmt.Sprintf("-DCMAKE_BUILD_TYPE=%s", p.buildType),
			fmt.Sprintf("-DCMAKE_CXX_COMPILER=%s", compiler.Path),
			fmt.Sprintf("-DCMAKE_CXX_FLAGS=%s", strings.Join(profile.CompileFlags, " ")),
			fmt.Sprintf("-DCMAKE_EXE_LINKER_FLAGS=%s", strings.Join(profile.LinkFlags, " ")),
		},
	}
}

// ConflictWarnings reports soft conflicts between requested kinds. Address
// and thread sanitizers cannot instrument one binary together; sequential
// isolated variants are fine, so this warns instead of rejecting.
func ConflictWarnings(kinds []m.SanitizerKind) []string {
	requested := map[m.SanitizerKind]bool{}
	for _, kind := range kinds {
		requested[kind] = true
	}

	var warnings []string

	if requested[m.SanitizerAddress] && requested[m.SanitizerThread] {
		warnings = append(warnings,
			"address and thread sanitizers are mutually incompatible within one binary; building both in isolated variants")
	}

	return warnings
}
