package domain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sanmat.dev/pkg/sanmat/internal/adapter"
	"sanmat.dev/pkg/sanmat/internal/controller"
	m "sanmat.dev/pkg/sanmat/internal/model"
)

// fakeRunner records every command and answers from a scripted handler.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []adapter.CommandSpec
	lookPaths map[string]string
	handler   func(spec adapter.CommandSpec) (adapter.CommandResult, error)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{lookPaths: map[string]string{}}
}

func (f *fakeRunner) Run(_ context.Context, spec adapter.CommandSpec) (adapter.CommandResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	f.mu.Unlock()

	if f.handler != nil {
		return f.handler(spec)
	}

	return adapter.CommandResult{ExitCode: 0}, nil
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if path, ok := f.lookPaths[name]; ok {
		return path, nil
	}

	return "", fmt.Errorf("%s: executable file not found", name)
}

func (f *fakeRunner) recorded() []adapter.CommandSpec {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]adapter.CommandSpec{}, f.calls...)
}

// fakeFS is an in-memory BuildFSAdapter.
type fakeFS struct {
	mu      sync.Mutex
	dirs    map[string]bool
	files   map[string][]byte
	execs   []string
	tempSeq int
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		dirs:  map[string]bool{},
		files: map[string][]byte{},
	}
}

func (f *fakeFS) EnsureDir(path m.Path) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dirs[string(path)] = true

	return nil
}

func (f *fakeFS) RemoveAll(path m.Path) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.dirs, string(path))

	for file := range f.files {
		if strings.HasPrefix(file, string(path)+string(filepath.Separator)) {
			delete(f.files, file)
		}
	}

	return nil
}

func (f *fakeFS) CreateTempDir(pattern string) (m.Path, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.tempSeq++
	dir := fmt.Sprintf("/tmp/%s-%d", strings.TrimSuffix(pattern, "*"), f.tempSeq)
	f.dirs[dir] = true

	return m.Path(dir), nil
}

func (f *fakeFS) WriteFile(path m.Path, content []byte, _ os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.files[string(path)] = content

	return nil
}

func (f *fakeFS) FileExists(path m.Path) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.files[string(path)]

	return ok
}

func (f *fakeFS) FindExecutables(root m.Path, match func(name string) bool) ([]m.Path, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var found []m.Path

	for _, exe := range f.execs {
		if !strings.HasPrefix(exe, string(root)+string(filepath.Separator)) {
			continue
		}

		if match(filepath.Base(exe)) {
			found = append(found, m.Path(exe))
		}
	}

	return found, nil
}

// stubProbe is a scripted CompilerProbe for planner and workflow tests.
type stubProbe struct {
	mu            sync.Mutex
	compilers     []m.Compiler
	probeFunc     func(candidates []string) ([]m.Compiler, error)
	supports      func(compiler m.Compiler, kind m.SanitizerKind) bool
	supportsCalls int
}

func (s *stubProbe) Probe(_ context.Context, candidates []string) ([]m.Compiler, error) {
	if s.probeFunc != nil {
		return s.probeFunc(candidates)
	}

	return s.compilers, nil
}

func (s *stubProbe) Supports(_ context.Context, compiler m.Compiler, kind m.SanitizerKind) bool {
	s.mu.Lock()
	s.supportsCalls++
	s.mu.Unlock()

	if s.supports == nil {
		return true
	}

	return s.supports(compiler, kind)
}

// recordingUI captures UI calls for workflow tests.
type recordingUI struct {
	warnings    []string
	skipped     map[m.SanitizerKind]string
	dryCommands []string
	outcomes    []m.TestOutcome
	summaries   []m.Report
	started     bool
	closed      bool
}

func newRecordingUI() *recordingUI {
	return &recordingUI{skipped: map[m.SanitizerKind]string{}}
}

func (u *recordingUI) Start(_ context.Context, _ ...controller.StartOption) error {
	u.started = true
	return nil
}

func (u *recordingUI) Close(_ context.Context) { u.closed = true }

func (u *recordingUI) Warn(_ context.Context, message string) {
	u.warnings = append(u.warnings, message)
}

func (u *recordingUI) DisplayPlannedVariant(_ context.Context, _ m.Variant) {}

func (u *recordingUI) DisplayVariantSkipped(_ context.Context, kind m.SanitizerKind, reason string) {
	u.skipped[kind] = reason
}

func (u *recordingUI) DisplayBuildResult(_ context.Context, _ m.BuildResult) {}

func (u *recordingUI) DisplayTestOutcome(_ context.Context, _ m.SanitizerKind, outcome m.TestOutcome) {
	u.outcomes = append(u.outcomes, outcome)
}

func (u *recordingUI) DisplayDryRunCommand(_ context.Context, _ m.SanitizerKind, command string) {
	u.dryCommands = append(u.dryCommands, command)
}

func (u *recordingUI) DisplayCapabilityMatrix(_ context.Context, _ []controller.CapabilityRow, _ []m.SanitizerKind) {
}

func (u *recordingUI) DisplaySummary(_ context.Context, report m.Report) {
	u.summaries = append(u.summaries, report)
}

func (u *recordingUI) DisplayReportText(_ context.Context, _ string) {}

// memoryStore is an in-memory ReportStore.
type memoryStore struct {
	saved     []m.Report
	documents []map[m.ReportFormat][]byte
	failWith  error
}

func (s *memoryStore) SaveRun(_ m.Path, report m.Report) error {
	if s.failWith != nil {
		return s.failWith
	}

	s.saved = append(s.saved, report)

	return nil
}

func (s *memoryStore) LoadRun(_ m.Path) (m.Report, error) {
	if s.failWith != nil {
		return m.Report{}, s.failWith
	}

	if len(s.saved) == 0 {
		return m.Report{}, fmt.Errorf("no saved run")
	}

	return s.saved[len(s.saved)-1], nil
}

func (s *memoryStore) WriteDocuments(_ m.Path, documents map[m.ReportFormat][]byte) error {
	if s.failWith != nil {
		return s.failWith
	}

	s.documents = append(s.documents, documents)

	return nil
}
