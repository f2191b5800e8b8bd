package model

import "time"

// Variant is the unit of work: one sanitizer kind built with one compiler in
// an exclusive build directory. A Variant is immutable once planned;
// rebuilding recreates the directory rather than mutating it.
type Variant struct {
	Kind     SanitizerKind
	Compiler Compiler
	// BuildDir is owned exclusively by this variant. No two variants may
	// share a build directory.
	BuildDir Path
	// CMakeArgs are the extra configure arguments derived from the kind's
	// profile (compiler, build type, sanitizer flags).
	CMakeArgs []string
}

// BuildResult is the terminal outcome of configuring and building a variant.
type BuildResult struct {
	Variant   Variant
	Succeeded bool
	// ErrorDetail carries the captured toolchain diagnostic on failure.
	ErrorDetail string
}

// TestStatus is the verdict for a single test execution.
type TestStatus int

const (
	// TestPassed indicates the test exited zero.
	TestPassed TestStatus = iota
	// TestFailed indicates a non-zero exit or a timeout.
	TestFailed
)

func (s TestStatus) String() string {
	if s == TestPassed {
		return "passed"
	}

	return "failed"
}

// Failure reasons recorded on TestOutcome.Reason.
const (
	ReasonTimeout  = "timeout"
	ReasonExitCode = "non-zero exit"
)

// TestOutcome is the result of one test execution within a variant.
type TestOutcome struct {
	Name     string
	Status   TestStatus
	Reason   string
	Duration time.Duration
}

// TestRefKind tells the executor how a discovered test must be run.
type TestRefKind int

const (
	// RefManifest runs the whole suite through the test-runner manifest (ctest).
	RefManifest TestRefKind = iota
	// RefBinary runs a discovered test executable directly.
	RefBinary
	// RefSmoke runs the primary built artifact once as a smoke test.
	RefSmoke
)

// TestRef is an executable test discovered by a discovery strategy.
type TestRef struct {
	Kind TestRefKind
	Name string
	Path Path
}
