package adapter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

func sampleRun() m.Report {
	return m.Report{
		RunID:       "0b39cbb6-2f2b-4f29-9b6f-2f1f19a1a2aa",
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		SourceDir:   "/src/project",
		Summary: m.Summary{
			TotalVariants: 2,
			TestsPassed:   3,
			TestsFailed:   1,
		},
		Variants: []m.VariantReport{
			{
				Kind:           m.SanitizerAddress,
				CompilerPath:   "/usr/bin/clang++",
				CompilerFamily: "clang",
				BuildSucceeded: true,
				Tests: []m.TestReport{
					{Name: "vector_tests", Status: "passed", Duration: time.Second},
					{Name: "overflow_tests", Status: "failed", Reason: "timeout"},
				},
				TestsPassed: 1,
				TestsFailed: 1,
			},
			{
				Kind:       m.SanitizerMemory,
				Skipped:    true,
				SkipReason: "no compatible compiler",
			},
		},
	}
}

func TestSaveAndLoadRunRoundTrip(t *testing.T) {
	dir := m.Path(t.TempDir())
	store := NewLocalReportStore()

	original := sampleRun()
	require.NoError(t, store.SaveRun(dir, original))

	loaded, err := store.LoadRun(dir)
	require.NoError(t, err)

	assert.Equal(t, original.RunID, loaded.RunID)
	assert.True(t, original.GeneratedAt.Equal(loaded.GeneratedAt))
	assert.Equal(t, original.Summary, loaded.Summary)
	assert.Equal(t, original.Variants, loaded.Variants)
}

func TestSaveRunCreatesReportsDir(t *testing.T) {
	dir := m.Path(filepath.Join(t.TempDir(), "nested", "reports"))
	store := NewLocalReportStore()

	require.NoError(t, store.SaveRun(dir, sampleRun()))

	_, err := os.Stat(filepath.Join(string(dir), "run.yaml"))
	assert.NoError(t, err)
}

func TestSaveRunOverwritesPreviousRun(t *testing.T) {
	dir := m.Path(t.TempDir())
	store := NewLocalReportStore()

	first := sampleRun()
	require.NoError(t, store.SaveRun(dir, first))

	second := sampleRun()
	second.RunID = "22222222-2222-4222-8222-222222222222"
	require.NoError(t, store.SaveRun(dir, second))

	loaded, err := store.LoadRun(dir)
	require.NoError(t, err)
	assert.Equal(t, second.RunID, loaded.RunID)
}

func TestLoadRunMissing(t *testing.T) {
	store := NewLocalReportStore()

	_, err := store.LoadRun(m.Path(t.TempDir()))
	assert.Error(t, err)
}

func TestWriteDocuments(t *testing.T) {
	dir := m.Path(t.TempDir())
	store := NewLocalReportStore()

	documents := map[m.ReportFormat][]byte{
		m.FormatText: []byte("Sanitizer analysis report\n"),
		m.FormatJSON: []byte(`{"summary":{}}`),
		m.FormatHTML: []byte("<!DOCTYPE html>"),
	}

	require.NoError(t, store.WriteDocuments(dir, documents))

	for format, want := range map[m.ReportFormat]string{
		m.FormatText: "analysis_report.txt",
		m.FormatJSON: "analysis_report.json",
		m.FormatHTML: "analysis_report.html",
	} {
		content, err := os.ReadFile(filepath.Join(string(dir), want))
		require.NoError(t, err, "missing %s document", format)
		assert.Equal(t, documents[format], content)
	}
}
