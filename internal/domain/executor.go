package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sanmat.dev/pkg/sanmat/internal/adapter"
	m "sanmat.dev/pkg/sanmat/internal/model"
)

// ctestManifest is the test-runner manifest CMake drops into the build dir.
const ctestManifest = "CTestTestfile.cmake"

// DiscoveryStrategy finds executable tests for a built variant. Strategies
// are tried in fixed priority order; the first non-empty result wins.
type DiscoveryStrategy interface {
	Name() string
	Discover(ctx context.Context, variant m.Variant) ([]m.TestRef, error)
}

// TestExecutor runs a built variant's tests under the sanitizer's runtime
// policy. Runtime-option environment variables are scoped to the test
// subprocesses only.
type TestExecutor interface {
	Run(ctx context.Context, variant m.Variant, timeout time.Duration) []m.TestOutcome

	// ManifestCommand exposes the manifest-driven invocation for dry-run
	// output.
	ManifestCommand(variant m.Variant, timeout time.Duration) adapter.CommandSpec
}

type testExecutor struct {
	runner     adapter.CommandRunner
	strategies []DiscoveryStrategy
}

// NewTestExecutor constructs a TestExecutor over an ordered strategy chain.
func NewTestExecutor(runner adapter.CommandRunner, strategies ...DiscoveryStrategy) TestExecutor {
	return &testExecutor{runner: runner, strategies: strategies}
}

// DefaultStrategies is the standard fallback chain: manifest run, then
// heuristic binary discovery, then a smoke run of the primary artifact.
func DefaultStrategies(fs adapter.BuildFSAdapter, primaryArtifact string) []DiscoveryStrategy {
	return []DiscoveryStrategy{
		&manifestStrategy{fs: fs},
		&binaryStrategy{fs: fs},
		&smokeStrategy{fs: fs, artifact: primaryArtifact},
	}
}

// Run discovers and executes the variant's tests. It always finishes
// iterating the discovered set; a failing or hanging test never aborts the
// remainder.
func (e *testExecutor) Run(ctx context.Context, variant m.Variant, timeout time.Duration) []m.TestOutcome {
	refs := e.discover(ctx, variant)
	if len(refs) == 0 {
		slog.Warn("no tests discovered", "kind", variant.Kind, "buildDir", variant.BuildDir)
		return nil
	}

	var outcomes []m.TestOutcome

	for _, ref := range refs {
		switch ref.Kind {
		case m.RefManifest:
			outcomes = append(outcomes, e.runManifest(ctx, variant, timeout)...)
		case m.RefBinary, m.RefSmoke:
			outcomes = append(outcomes, e.runBinary(ctx, variant, ref, timeout))
		}
	}

	return outcomes
}

func (e *testExecutor) discover(ctx context.Context, variant m.Variant) []m.TestRef {
	for _, strategy := range e.strategies {
		refs, err := strategy.Discover(ctx, variant)
		if err != nil {
			slog.Warn("discovery strategy failed", "strategy", strategy.Name(), "error", err)
			continue
		}

		if len(refs) > 0 {
			slog.Debug("tests discovered", "strategy", strategy.Name(), "count", len(refs))
			return refs
		}
	}

	return nil
}

// ManifestCommand builds the ctest invocation for the variant.
func (e *testExecutor) ManifestCommand(variant m.Variant, timeout time.Duration) adapter.CommandSpec {
	seconds := int(timeout / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	return adapter.CommandSpec{
		Name: "ctest",
		Args: []string{
			"--test-dir", string(variant.BuildDir),
			"--output-on-failure",
			"--timeout", strconv.Itoa(seconds),
		},
		Env: runtimeEnv(variant.Kind),
	}
}

func (e *testExecutor) runManifest(ctx context.Context, variant m.Variant, timeout time.Duration) []m.TestOutcome {
	result, err := e.runner.Run(ctx, e.ManifestCommand(variant, timeout))
	if err != nil {
		return []m.TestOutcome{{
			Name:   "ctest",
			Status: m.TestFailed,
			Reason: err.Error(),
		}}
	}

	if outcomes := parseCTestOutput(result.Output); len(outcomes) > 0 {
		return outcomes
	}

	// No per-test detail available; fall back to the aggregate exit status.
	outcome := m.TestOutcome{Name: "ctest", Duration: result.Duration}
	if result.Succeeded() {
		outcome.Status = m.TestPassed
	} else {
		outcome.Status = m.TestFailed
		outcome.Reason = m.ReasonExitCode
	}

	return []m.TestOutcome{outcome}
}

func (e *testExecutor) runBinary(ctx context.Context, variant m.Variant, ref m.TestRef, timeout time.Duration) m.TestOutcome {
	result, err := e.runner.Run(ctx, adapter.CommandSpec{
		Name:    string(ref.Path),
		Dir:     string(variant.BuildDir),
		Env:     runtimeEnv(variant.Kind),
		Timeout: timeout,
	})

	outcome := m.TestOutcome{Name: ref.Name, Duration: result.Duration}

	switch {
	case err != nil:
		outcome.Status = m.TestFailed
		outcome.Reason = err.Error()
	case result.TimedOut:
		outcome.Status = m.TestFailed
		outcome.Reason = m.ReasonTimeout
	case result.ExitCode != 0:
		outcome.Status = m.TestFailed
		outcome.Reason = fmt.Sprintf("%s (%d)", m.ReasonExitCode, result.ExitCode)
	default:
		outcome.Status = m.TestPassed
	}

	slog.Info("test finished", "kind", variant.Kind, "test", ref.Name, "status", outcome.Status)

	return outcome
}

// runtimeEnv returns the sanitizer runtime policy for the kind, to be applied
// to the test subprocess only.
func runtimeEnv(kind m.SanitizerKind) map[string]string {
	profile := kind.Profile()

	return map[string]string{profile.RuntimeEnvVar: profile.RuntimeOptions}
}

// ctestResultLine matches per-test lines of ctest output, e.g.
//
//	2/3 Test #2: overflow_tests ...................***Failed    0.10 sec
var ctestResultLine = regexp.MustCompile(`(?m)^\s*\d+/\d+\s+Test\s+#\d+:\s+(\S+)\s+\.+\s*\**([A-Za-z]+).*?([0-9.]+)\s+sec`)

func parseCTestOutput(output string) []m.TestOutcome {
	matches := ctestResultLine.FindAllStringSubmatch(output, -1)

	outcomes := make([]m.TestOutcome, 0, len(matches))

	for _, match := range matches {
		name, verdict := match[1], match[2]

		outcome := m.TestOutcome{Name: name}

		if seconds, err := strconv.ParseFloat(match[3], 64); err == nil {
			outcome.Duration = time.Duration(seconds * float64(time.Second))
		}

		switch verdict {
		case "Passed":
			outcome.Status = m.TestPassed
		case "Timeout":
			outcome.Status = m.TestFailed
			outcome.Reason = m.ReasonTimeout
		default:
			outcome.Status = m.TestFailed
			outcome.Reason = m.ReasonExitCode
		}

		outcomes = append(outcomes, outcome)
	}

	return outcomes
}

// manifestStrategy discovers the test-runner manifest in the build dir.
type manifestStrategy struct {
	fs adapter.BuildFSAdapter
}

func (s *manifestStrategy) Name() string { return "ctest-manifest" }

func (s *manifestStrategy) Discover(_ context.Context, variant m.Variant) ([]m.TestRef, error) {
	manifest := m.Path(filepath.Join(string(variant.BuildDir), ctestManifest))
	if !s.fs.FileExists(manifest) {
		return nil, nil
	}

	return []m.TestRef{{Kind: m.RefManifest, Name: "ctest", Path: variant.BuildDir}}, nil
}

// binaryStrategy discovers executables matching a test-name heuristic under
// the build dir.
type binaryStrategy struct {
	fs adapter.BuildFSAdapter
}

func (s *binaryStrategy) Name() string { return "test-binaries" }

func (s *binaryStrategy) Discover(_ context.Context, variant m.Variant) ([]m.TestRef, error) {
	paths, err := s.fs.FindExecutables(variant.BuildDir, looksLikeTestBinary)
	if err != nil {
		return nil, err
	}

	refs := make([]m.TestRef, 0, len(paths))
	for _, path := range paths {
		refs = append(refs, m.TestRef{
			Kind: m.RefBinary,
			Name: filepath.Base(string(path)),
			Path: path,
		})
	}

	return refs, nil
}

func looksLikeTestBinary(name string) bool {
	if filepath.Ext(name) != "" {
		return false
	}

	return strings.Contains(strings.ToLower(name), "test")
}

// smokeStrategy falls back to running the primary built artifact once.
type smokeStrategy struct {
	fs       adapter.BuildFSAdapter
	artifact string
}

func (s *smokeStrategy) Name() string { return "smoke" }

func (s *smokeStrategy) Discover(_ context.Context, variant m.Variant) ([]m.TestRef, error) {
	paths, err := s.fs.FindExecutables(variant.BuildDir, func(name string) bool {
		return filepath.Ext(name) == ""
	})
	if err != nil {
		return nil, err
	}

	if len(paths) == 0 {
		return nil, nil
	}

	chosen := paths[0]

	if s.artifact != "" {
		for _, path := range paths {
			if filepath.Base(string(path)) == s.artifact {
				chosen = path
				break
			}
		}
	}

	name := fmt.Sprintf("smoke:%s", filepath.Base(string(chosen)))

	return []m.TestRef{{Kind: m.RefSmoke, Name: name, Path: chosen}}, nil
}
