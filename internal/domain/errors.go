package domain

import "errors"

// Error taxonomy for the build matrix. Only ErrNoCompilerFound aborts a whole
// run; everything below the variant level is recorded and the run continues.
var (
	// ErrNoCompilerFound means no candidate compiler is usable at all.
	ErrNoCompilerFound = errors.New("no usable compiler found")

	// ErrNoCompatibleCompiler means no available compiler can instrument the
	// requested sanitizer kind. The kind is skipped, siblings continue.
	ErrNoCompatibleCompiler = errors.New("no compatible compiler")

	// ErrMemoryNeedsClang rejects an explicit compiler override for the
	// memory sanitizer when the compiler's family cannot support it. That
	// combination fails silently at runtime, so it is refused outright
	// instead of honoring user intent.
	ErrMemoryNeedsClang = errors.New("memory sanitizer requires a clang-family compiler")

	// ErrRunFailed maps any build or test failure to a non-zero exit.
	ErrRunFailed = errors.New("one or more variants failed")
)
