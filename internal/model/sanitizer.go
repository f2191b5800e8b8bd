// Package model defines the data structures for the sanitizer build matrix.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// SanitizerKind identifies one runtime-instrumentation configuration.
type SanitizerKind string

const (
	// SanitizerAddress detects memory errors (heap/stack overflows, use-after-free, leaks).
	SanitizerAddress SanitizerKind = "address"
	// SanitizerUndefined detects undefined behavior (overflow, misaligned access, etc).
	SanitizerUndefined SanitizerKind = "undefined"
	// SanitizerThread detects data races.
	SanitizerThread SanitizerKind = "thread"
	// SanitizerMemory detects reads of uninitialized memory. Clang-only.
	SanitizerMemory SanitizerKind = "memory"
)

// AllSanitizers lists every supported kind in the order variants are attempted.
var AllSanitizers = []SanitizerKind{
	SanitizerAddress,
	SanitizerUndefined,
	SanitizerThread,
	SanitizerMemory,
}

// SanitizerProfile holds the toolchain flags and runtime policy for one kind.
type SanitizerProfile struct {
	CompileFlags []string
	LinkFlags    []string
	// RuntimeEnvVar is the environment variable the sanitizer runtime reads
	// (e.g. ASAN_OPTIONS). It is set on test subprocesses only.
	RuntimeEnvVar string
	// RuntimeOptions is the baseline option string for RuntimeEnvVar.
	RuntimeOptions string
}

var sanitizerProfiles = map[SanitizerKind]SanitizerProfile{
	SanitizerAddress: {
		CompileFlags:   []string{"-fsanitize=address", "-fno-omit-frame-pointer", "-g"},
		LinkFlags:      []string{"-fsanitize=address"},
		RuntimeEnvVar:  "ASAN_OPTIONS",
		RuntimeOptions: "halt_on_error=1:abort_on_error=1:detect_leaks=1",
	},
	SanitizerUndefined: {
		CompileFlags:   []string{"-fsanitize=undefined", "-fno-omit-frame-pointer", "-g"},
		LinkFlags:      []string{"-fsanitize=undefined"},
		RuntimeEnvVar:  "UBSAN_OPTIONS",
		RuntimeOptions: "halt_on_error=1:abort_on_error=1:print_stacktrace=1",
	},
	SanitizerThread: {
		CompileFlags:   []string{"-fsanitize=thread", "-g"},
		LinkFlags:      []string{"-fsanitize=thread"},
		RuntimeEnvVar:  "TSAN_OPTIONS",
		RuntimeOptions: "halt_on_error=1:abort_on_error=1:second_deadlock_stack=1",
	},
	SanitizerMemory: {
		CompileFlags: []string{
			"-fsanitize=memory",
			"-fsanitize-memory-track-origins",
			"-fno-omit-frame-pointer",
			"-g",
		},
		LinkFlags:      []string{"-fsanitize=memory"},
		RuntimeEnvVar:  "MSAN_OPTIONS",
		RuntimeOptions: "halt_on_error=1:abort_on_error=1",
	},
}

// Profile returns the flag and runtime policy for the kind.
func (k SanitizerKind) Profile() SanitizerProfile {
	return sanitizerProfiles[k]
}

// Valid reports whether k names a known sanitizer kind.
func (k SanitizerKind) Valid() bool {
	_, ok := sanitizerProfiles[k]
	return ok
}

func (k SanitizerKind) String() string {
	return string(k)
}

// ParseSanitizers turns CLI input into an ordered, de-duplicated kind list.
// The single value "all" selects every kind.
func ParseSanitizers(names []string) ([]SanitizerKind, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no sanitizers requested")
	}

	if len(names) == 1 && strings.EqualFold(strings.TrimSpace(names[0]), "all") {
		kinds := make([]SanitizerKind, len(AllSanitizers))
		copy(kinds, AllSanitizers)

		return kinds, nil
	}

	seen := map[SanitizerKind]bool{}

	var kinds []SanitizerKind

	for _, name := range names {
		kind := SanitizerKind(strings.ToLower(strings.TrimSpace(name)))
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown sanitizer %q (valid: %s, or all)", name, sanitizerNames())
		}

		if seen[kind] {
			continue
		}

		seen[kind] = true

		kinds = append(kinds, kind)
	}

	// Keep the canonical attempt order regardless of input order.
	sort.SliceStable(kinds, func(i, j int) bool {
		return sanitizerRank(kinds[i]) < sanitizerRank(kinds[j])
	})

	return kinds, nil
}

func sanitizerRank(kind SanitizerKind) int {
	for i, k := range AllSanitizers {
		if k == kind {
			return i
		}
	}

	return len(AllSanitizers)
}

func sanitizerNames() string {
	names := make([]string, 0, len(AllSanitizers))
	for _, k := range AllSanitizers {
		names = append(names, string(k))
	}

	return strings.Join(names, ", ")
}
