package model

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseSanitizersAll(t *testing.T) {
	kinds, err := ParseSanitizers([]string{"all"})
	if err != nil {
		t.Fatalf("ParseSanitizers returned error: %v", err)
	}

	if !reflect.DeepEqual(kinds, AllSanitizers) {
		t.Errorf("expected every kind in canonical order, got %v", kinds)
	}
}

func TestParseSanitizersCanonicalOrderAndDedup(t *testing.T) {
	kinds, err := ParseSanitizers([]string{"thread", "Address", " address ", "undefined"})
	if err != nil {
		t.Fatalf("ParseSanitizers returned error: %v", err)
	}

	want := []SanitizerKind{SanitizerAddress, SanitizerUndefined, SanitizerThread}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("got %v, want %v", kinds, want)
	}
}

func TestParseSanitizersUnknown(t *testing.T) {
	_, err := ParseSanitizers([]string{"address", "leak"})
	if err == nil || !strings.Contains(err.Error(), `unknown sanitizer "leak"`) {
		t.Fatalf("expected unknown-sanitizer error, got %v", err)
	}
}

func TestParseSanitizersEmpty(t *testing.T) {
	if _, err := ParseSanitizers(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestProfilesCarryRuntimePolicy(t *testing.T) {
	wantEnv := map[SanitizerKind]string{
		SanitizerAddress:   "ASAN_OPTIONS",
		SanitizerUndefined: "UBSAN_OPTIONS",
		SanitizerThread:    "TSAN_OPTIONS",
		SanitizerMemory:    "MSAN_OPTIONS",
	}

	for kind, env := range wantEnv {
		profile := kind.Profile()

		if profile.RuntimeEnvVar != env {
			t.Errorf("%s: runtime env var %s, want %s", kind, profile.RuntimeEnvVar, env)
		}

		if !strings.Contains(profile.RuntimeOptions, "halt_on_error=1") {
			t.Errorf("%s: runtime options must halt on first error: %s", kind, profile.RuntimeOptions)
		}

		flag := "-fsanitize=" + string(kind)
		if profile.CompileFlags[0] != flag || profile.LinkFlags[0] != flag {
			t.Errorf("%s: sanitizer flag missing from compile or link flags", kind)
		}
	}
}

func TestProfileKindSpecificOptions(t *testing.T) {
	if !strings.Contains(SanitizerAddress.Profile().RuntimeOptions, "detect_leaks=1") {
		t.Error("address profile should enable leak detection")
	}

	if !strings.Contains(SanitizerUndefined.Profile().RuntimeOptions, "print_stacktrace=1") {
		t.Error("undefined profile should print stack traces")
	}
}

func TestSanitizerKindValid(t *testing.T) {
	if !SanitizerThread.Valid() {
		t.Error("thread should be valid")
	}

	if SanitizerKind("leak").Valid() {
		t.Error("leak is not a supported kind")
	}
}
