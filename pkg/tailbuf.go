// Package pkg is a package that provides utilities for sanmat.
package pkg

import (
	"fmt"
	"sync"
)

// TailBuffer is an io.Writer that retains only the last Limit bytes written.
// Toolchain and test output can run to many megabytes; diagnostics worth
// reporting are almost always at the end, so the head is discarded.
type TailBuffer struct {
	mu      sync.Mutex
	limit   int
	buf     []byte
	dropped int64
}

// DefaultTailLimit bounds captured subprocess output at 64 KiB.
const DefaultTailLimit = 64 * 1024

// NewTailBuffer creates a TailBuffer retaining at most limit bytes. A
// non-positive limit falls back to DefaultTailLimit.
func NewTailBuffer(limit int) *TailBuffer {
	if limit <= 0 {
		limit = DefaultTailLimit
	}

	return &TailBuffer{limit: limit}
}

// Write implements io.Writer. It never fails.
func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(p) >= t.limit {
		t.dropped += int64(len(t.buf)) + int64(len(p)-t.limit)
		t.buf = append(t.buf[:0], p[len(p)-t.limit:]...)

		return len(p), nil
	}

	overflow := len(t.buf) + len(p) - t.limit
	if overflow > 0 {
		t.dropped += int64(overflow)
		t.buf = t.buf[overflow:]
	}

	t.buf = append(t.buf, p...)

	return len(p), nil
}

// Len returns the number of retained bytes.
func (t *TailBuffer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.buf)
}

// Truncated reports whether any bytes were discarded.
func (t *TailBuffer) Truncated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.dropped > 0
}

// String returns the retained tail, prefixed with a truncation note when
// earlier output was discarded.
func (t *TailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dropped > 0 {
		return fmt.Sprintf("[... %d bytes truncated ...]\n%s", t.dropped, t.buf)
	}

	return string(t.buf)
}
