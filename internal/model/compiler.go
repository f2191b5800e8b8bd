package model

import "strings"

// Path represents a file system path.
type Path string

// CompilerFamily groups compilers sharing sanitizer capability characteristics.
type CompilerFamily string

const (
	// FamilyClang covers clang/clang++; the only family with memory-sanitizer support.
	FamilyClang CompilerFamily = "clang"
	// FamilyGCC covers gcc/g++.
	FamilyGCC CompilerFamily = "gcc"
	// FamilyUnknown is anything the version output did not identify.
	FamilyUnknown CompilerFamily = "unknown"
)

// FamilyPreferenceOrder is the selection order when no compiler override is
// given. Clang first: its sanitizer instrumentation is the reference
// implementation and the only one covering all kinds.
var FamilyPreferenceOrder = []CompilerFamily{FamilyClang, FamilyGCC, FamilyUnknown}

// Compiler is an invocable toolchain binary found on the search path.
type Compiler struct {
	// Path is the resolved absolute path of the binary.
	Path Path
	// Name is the candidate name it was probed under (e.g. "clang++").
	Name string
	// Version is the first line of `<compiler> --version` output.
	Version string
	Family  CompilerFamily
}

// SupportsFamilyOf reports whether this compiler's family can instrument the
// kind at all. This is a family-level capability statement; the real
// compile+link probe is still authoritative for everything it permits.
func (c Compiler) SupportsFamilyOf(kind SanitizerKind) bool {
	if kind == SanitizerMemory {
		return c.Family == FamilyClang
	}

	return true
}

// DetectFamily classifies a compiler from its --version output, falling back
// to the binary name when the output is unhelpful.
func DetectFamily(name, versionOutput string) CompilerFamily {
	probe := strings.ToLower(versionOutput)

	switch {
	case strings.Contains(probe, "clang"):
		return FamilyClang
	case strings.Contains(probe, "free software foundation"),
		strings.Contains(probe, "gcc"),
		strings.Contains(probe, "g++"):
		return FamilyGCC
	}

	lowered := strings.ToLower(name)

	switch {
	case strings.Contains(lowered, "clang"):
		return FamilyClang
	case strings.Contains(lowered, "gcc"), strings.Contains(lowered, "g++"):
		return FamilyGCC
	}

	return FamilyUnknown
}
