package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

func builtVariant(kind m.SanitizerKind) *m.Variant {
	return &m.Variant{
		Kind:     kind,
		Compiler: testClang,
		BuildDir: m.Path("/tmp/build/" + string(kind)),
	}
}

func okBuild(variant *m.Variant) *m.BuildResult {
	return &m.BuildResult{Variant: *variant, Succeeded: true}
}

func TestAggregateAllPassed(t *testing.T) {
	variant := builtVariant(m.SanitizerAddress)

	report := NewReportAggregator().Aggregate("/src/project", []VariantResult{{
		Kind:    m.SanitizerAddress,
		Variant: variant,
		Build:   okBuild(variant),
		Outcomes: []m.TestOutcome{
			{Name: "vector_tests", Status: m.TestPassed, Duration: time.Second},
			{Name: "map_tests", Status: m.TestPassed},
		},
	}})

	summary := report.Summary
	if !summary.Success || summary.TestsPassed != 2 || summary.TestsFailed != 0 || summary.BuildFailures != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	if report.RunID == "" {
		t.Error("run id missing")
	}

	if report.SourceDir != "/src/project" {
		t.Errorf("source dir not carried: %s", report.SourceDir)
	}
}

func TestAggregateSkippedKindDoesNotFailRun(t *testing.T) {
	address := builtVariant(m.SanitizerAddress)

	report := NewReportAggregator().Aggregate("/src/project", []VariantResult{
		{
			Kind:     m.SanitizerAddress,
			Variant:  address,
			Build:    okBuild(address),
			Outcomes: []m.TestOutcome{{Name: "unit_tests", Status: m.TestPassed}},
		},
		{
			Kind:       m.SanitizerMemory,
			SkipReason: "no compatible compiler for memory sanitizer",
		},
	})

	summary := report.Summary
	if !summary.Success {
		t.Error("skipped kinds must not count as failure")
	}

	if summary.TotalVariants != 2 || summary.SkippedVariants != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}

	if !report.Variants[1].Skipped || report.Variants[1].SkipReason == "" {
		t.Errorf("skip not recorded: %+v", report.Variants[1])
	}
}

func TestAggregateBuildFailureSeparateFromTestFailure(t *testing.T) {
	address := builtVariant(m.SanitizerAddress)
	thread := builtVariant(m.SanitizerThread)

	report := NewReportAggregator().Aggregate("/src/project", []VariantResult{
		{
			Kind:    m.SanitizerAddress,
			Variant: address,
			Build:   &m.BuildResult{Variant: *address, Succeeded: false, ErrorDetail: "configure failed:\nboom"},
		},
		{
			Kind:    m.SanitizerThread,
			Variant: thread,
			Build:   okBuild(thread),
			Outcomes: []m.TestOutcome{
				{Name: "race_tests", Status: m.TestFailed, Reason: m.ReasonTimeout},
				{Name: "lock_tests", Status: m.TestPassed},
			},
		},
	})

	summary := report.Summary
	if summary.Success {
		t.Error("failures must make the run unsuccessful")
	}

	if summary.BuildFailures != 1 || summary.TestsFailed != 1 || summary.TestsPassed != 1 {
		t.Errorf("build and test failures conflated: %+v", summary)
	}

	if report.Variants[0].BuildError == "" {
		t.Error("build error detail dropped")
	}

	if len(report.Variants[0].Tests) != 0 {
		t.Error("failed build must carry no test rows")
	}
}

func TestAggregateRunIDsAreUnique(t *testing.T) {
	aggregator := NewReportAggregator()

	first := aggregator.Aggregate("/src", nil)
	second := aggregator.Aggregate("/src", nil)

	if first.RunID == second.RunID {
		t.Errorf("run ids should differ: %s", first.RunID)
	}
}

func sampleReport() m.Report {
	address := builtVariant(m.SanitizerAddress)

	return NewReportAggregator().Aggregate("/src/project", []VariantResult{
		{
			Kind:    m.SanitizerAddress,
			Variant: address,
			Build:   okBuild(address),
			Outcomes: []m.TestOutcome{
				{Name: "vector_tests", Status: m.TestPassed},
				{Name: "overflow_tests", Status: m.TestFailed, Reason: "non-zero exit (1)"},
			},
		},
		{Kind: m.SanitizerMemory, SkipReason: "no compatible compiler for memory sanitizer"},
	})
}

func TestRenderAllFormats(t *testing.T) {
	documents, err := NewReportAggregator().Render(sampleReport(), m.AllFormats)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if len(documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(documents))
	}

	text := string(documents[m.FormatText])
	for _, want := range []string{"=== address sanitizer ===", "overflow_tests: failed (non-zero exit (1))", "skipped: no compatible compiler"} {
		if !strings.Contains(text, want) {
			t.Errorf("text report missing %q:\n%s", want, text)
		}
	}

	var decoded map[string]any
	if err := json.Unmarshal(documents[m.FormatJSON], &decoded); err != nil {
		t.Fatalf("json report not parseable: %v", err)
	}

	summary, ok := decoded["summary"].(map[string]any)
	if !ok {
		t.Fatalf("json report missing summary object: %v", decoded)
	}

	if summary["total_variants"].(float64) != 2 {
		t.Errorf("unexpected total_variants: %v", summary["total_variants"])
	}

	html := string(documents[m.FormatHTML])
	for _, want := range []string{"<!DOCTYPE html>", "address sanitizer", "overflow_tests"} {
		if !strings.Contains(html, want) {
			t.Errorf("html report missing %q", want)
		}
	}
}

func TestRenderSubsetOfFormats(t *testing.T) {
	documents, err := NewReportAggregator().Render(sampleReport(), []m.ReportFormat{m.FormatText})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if len(documents) != 1 {
		t.Errorf("expected only the requested format, got %d", len(documents))
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	_, err := NewReportAggregator().Render(sampleReport(), []m.ReportFormat{"pdf"})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRenderHTMLEscapesBuildOutput(t *testing.T) {
	variant := builtVariant(m.SanitizerAddress)

	report := NewReportAggregator().Aggregate("/src", []VariantResult{{
		Kind:    m.SanitizerAddress,
		Variant: variant,
		Build:   &m.BuildResult{Variant: *variant, Succeeded: false, ErrorDetail: "error: expected ';' before '<' token"},
	}})

	documents, err := NewReportAggregator().Render(report, []m.ReportFormat{m.FormatHTML})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	html := string(documents[m.FormatHTML])
	if !strings.Contains(html, "&lt;") {
		t.Error("compiler output not escaped in html report")
	}
}
