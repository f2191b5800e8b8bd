// Package domain implements the sanitizer build-and-test orchestration.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sanmat.dev/pkg/sanmat/internal/adapter"
	m "sanmat.dev/pkg/sanmat/internal/model"
)

// versionTimeout bounds the `--version` query per candidate.
const versionTimeout = 10 * time.Second

// probeTimeout bounds one trial compile+link.
const probeTimeout = time.Minute

// probeSource is the minimal translation unit compiled during a capability
// check. Linking matters as much as compiling: a missing sanitizer runtime
// library only shows up at link time.
const probeSource = "int main() { return 0; }\n"

// CompilerProbe discovers candidate compilers and checks, per sanitizer
// kind, whether a trial compile+link succeeds. Results are never cached
// across invocations; toolchain availability can change between runs.
type CompilerProbe interface {
	Probe(ctx context.Context, candidates []string) ([]m.Compiler, error)
	Supports(ctx context.Context, compiler m.Compiler, kind m.SanitizerKind) bool
}

type compilerProbe struct {
	runner adapter.CommandRunner
	fs     adapter.BuildFSAdapter
}

// NewCompilerProbe constructs a CompilerProbe backed by the provided runner
// and filesystem adapters.
func NewCompilerProbe(runner adapter.CommandRunner, fs adapter.BuildFSAdapter) CompilerProbe {
	return &compilerProbe{runner: runner, fs: fs}
}

// Probe returns every candidate resolvable on the search path, with version
// and family filled in. Unresolvable candidates are silently dropped; an
// empty result is the caller's signal that nothing can be planned.
func (p *compilerProbe) Probe(ctx context.Context, candidates []string) ([]m.Compiler, error) {
	var compilers []m.Compiler

	seen := map[string]bool{}

	for _, name := range candidates {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		path, err := p.runner.LookPath(name)
		if err != nil {
			slog.Debug("candidate compiler not on path", "candidate", name)
			continue
		}

		if seen[path] {
			continue
		}

		seen[path] = true

		compilers = append(compilers, p.describe(ctx, name, path))
	}

	return compilers, nil
}

// describe fills in version and family for a resolved binary. A failing
// version query does not disqualify the compiler; the family then falls back
// to name-based detection.
func (p *compilerProbe) describe(ctx context.Context, name, path string) m.Compiler {
	version := ""

	result, err := p.runner.Run(ctx, adapter.CommandSpec{
		Name:    path,
		Args:    []string{"--version"},
		Timeout: versionTimeout,
	})
	if err == nil && result.Succeeded() {
		version = firstLine(result.Output)
	}

	return m.Compiler{
		Path:    m.Path(path),
		Name:    name,
		Version: version,
		Family:  m.DetectFamily(name, version),
	}
}

// Supports synthesizes a minimal translation unit and compiles and links it
// with the kind's flags in a fresh temporary directory. The toolchain's exit
// status is the verdict.
func (p *compilerProbe) Supports(ctx context.Context, compiler m.Compiler, kind m.SanitizerKind) bool {
	tmpDir, err := p.fs.CreateTempDir("sanmat-probe-*")
	if err != nil {
		slog.Error("failed to create probe dir", "error", err)
		return false
	}

	defer func() {
		if err := p.fs.RemoveAll(tmpDir); err != nil {
			slog.Error("failed to clean probe dir", "dir", tmpDir, "error", err)
		}
	}()

	sourcePath := m.Path(filepath.Join(string(tmpDir), "probe.cpp"))
	if err := p.fs.WriteFile(sourcePath, []byte(probeSource), 0o600); err != nil {
		slog.Error("failed to write probe source", "error", err)
		return false
	}

	profile := kind.Profile()

	args := append([]string{}, profile.CompileFlags...)
	args = append(args, profile.LinkFlags...)
	args = append(args, "-o", filepath.Join(string(tmpDir), "probe"), string(sourcePath))

	result, err := p.runner.Run(ctx, adapter.CommandSpec{
		Name:    string(compiler.Path),
		Args:    args,
		Timeout: probeTimeout,
	})
	if err != nil {
		slog.Warn("capability probe could not run", "compiler", compiler.Path, "kind", kind, "error", err)
		return false
	}

	if !result.Succeeded() {
		slog.Debug("sanitizer not supported", "compiler", compiler.Path, "kind", kind)
	}

	return result.Succeeded()
}

// Capability is one cell of the compiler capability matrix.
type Capability struct {
	Compiler  m.Compiler
	Kind      m.SanitizerKind
	Supported bool
}

// CapabilityMatrix probes every (compiler, kind) pair. Probes run
// concurrently; each uses an isolated temporary directory so they cannot
// interfere with one another.
func CapabilityMatrix(ctx context.Context, probe CompilerProbe, compilers []m.Compiler, kinds []m.SanitizerKind) []Capability {
	matrix := make([]Capability, 0, len(compilers)*len(kinds))

	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)

	for _, compiler := range compilers {
		for _, kind := range kinds {
			group.Go(func() error {
				supported := compiler.SupportsFamilyOf(kind) && probe.Supports(groupCtx, compiler, kind)

				mu.Lock()
				matrix = append(matrix, Capability{Compiler: compiler, Kind: kind, Supported: supported})
				mu.Unlock()

				return nil
			})
		}
	}

	// Workers never return errors; Wait only orders completion.
	_ = group.Wait()

	sortCapabilities(matrix)

	return matrix
}

func sortCapabilities(matrix []Capability) {
	rank := func(c Capability) string {
		return fmt.Sprintf("%s|%s", c.Compiler.Path, c.Kind)
	}

	for i := 0; i < len(matrix); i++ {
		for j := i + 1; j < len(matrix); j++ {
			if rank(matrix[i]) > rank(matrix[j]) {
				matrix[i], matrix[j] = matrix[j], matrix[i]
			}
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}

	return strings.TrimSpace(s)
}
