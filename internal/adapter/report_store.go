package adapter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

// runFileName is the persisted run state consumed by `sanmat view`.
const runFileName = "run.yaml"

// ReportStore persists the run report and the rendered report documents.
// Report files are overwritten on each run, never merged.
type ReportStore interface {
	SaveRun(dir m.Path, report m.Report) error
	LoadRun(dir m.Path) (m.Report, error)
	WriteDocuments(dir m.Path, documents map[m.ReportFormat][]byte) error
}

// LocalReportStore writes reports under a directory on the local filesystem.
type LocalReportStore struct{}

// NewLocalReportStore constructs a LocalReportStore.
func NewLocalReportStore() *LocalReportStore {
	return &LocalReportStore{}
}

// SaveRun writes the report as YAML so later invocations can re-render it.
func (s *LocalReportStore) SaveRun(dir m.Path, report m.Report) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	path := filepath.Join(string(dir), runFileName)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", runFileName, err)
	}

	return nil
}

// LoadRun reads back the persisted run report.
func (s *LocalReportStore) LoadRun(dir m.Path) (m.Report, error) {
	path := filepath.Join(string(dir), runFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return m.Report{}, fmt.Errorf("read %s: %w", runFileName, err)
	}

	var report m.Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return m.Report{}, fmt.Errorf("parse %s: %w", runFileName, err)
	}

	return report, nil
}

// WriteDocuments writes each rendered document under its format's file name.
func (s *LocalReportStore) WriteDocuments(dir m.Path, documents map[m.ReportFormat][]byte) error {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}

	for format, content := range documents {
		path := filepath.Join(string(dir), format.FileName())
		if err := os.WriteFile(path, content, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", format.FileName(), err)
		}
	}

	return nil
}
