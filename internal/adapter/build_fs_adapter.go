package adapter

import (
	"io/fs"
	"os"
	"path/filepath"

	m "sanmat.dev/pkg/sanmat/internal/model"
)

// BuildFSAdapter abstracts the filesystem operations the domain layer needs
// for build directories and test discovery. It hides direct `os` access so
// planner, matrix and executor logic can be tested without touching disk.
type BuildFSAdapter interface {
	// EnsureDir creates the directory (and parents) if absent.
	EnsureDir(path m.Path) error

	// RemoveAll removes a directory tree. Used for clean-on-reconfigure.
	RemoveAll(path m.Path) error

	// CreateTempDir creates a temporary directory for capability probes.
	CreateTempDir(pattern string) (m.Path, error)

	// WriteFile writes content to a file with the given permissions.
	WriteFile(path m.Path, content []byte, perm os.FileMode) error

	// FileExists reports whether path exists as a regular file.
	FileExists(path m.Path) bool

	// FindExecutables walks root and returns every regular file with an
	// executable bit whose base name satisfies match.
	FindExecutables(root m.Path, match func(name string) bool) ([]m.Path, error)
}

// LocalBuildFSAdapter is the os-backed implementation of BuildFSAdapter.
type LocalBuildFSAdapter struct{}

// NewLocalBuildFSAdapter constructs a LocalBuildFSAdapter ready to be wired
// into the workflow.
func NewLocalBuildFSAdapter() *LocalBuildFSAdapter {
	return &LocalBuildFSAdapter{}
}

// EnsureDir creates the directory and any missing parents.
func (a *LocalBuildFSAdapter) EnsureDir(path m.Path) error {
	return os.MkdirAll(string(path), 0o750)
}

// RemoveAll removes a directory and all its contents.
func (a *LocalBuildFSAdapter) RemoveAll(path m.Path) error {
	return os.RemoveAll(string(path))
}

// CreateTempDir creates a temporary directory for capability probes.
func (a *LocalBuildFSAdapter) CreateTempDir(pattern string) (m.Path, error) {
	tmpDir, err := os.MkdirTemp("", pattern)
	if err != nil {
		return "", err
	}

	return m.Path(tmpDir), nil
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalBuildFSAdapter) WriteFile(path m.Path, content []byte, perm os.FileMode) error {
	return os.WriteFile(string(path), content, perm)
}

// FileExists reports whether path exists as a regular file.
func (a *LocalBuildFSAdapter) FileExists(path m.Path) bool {
	info, err := os.Stat(string(path))
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}

// FindExecutables walks root collecting executable regular files that match.
// CMake bookkeeping directories are skipped.
func (a *LocalBuildFSAdapter) FindExecutables(root m.Path, match func(name string) bool) ([]m.Path, error) {
	var found []m.Path

	err := filepath.WalkDir(string(root), func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if entry.Name() == "CMakeFiles" || entry.Name() == ".git" {
				return filepath.SkipDir
			}

			return nil
		}

		if !match(entry.Name()) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}

		if info.Mode().IsRegular() && info.Mode()&0o111 != 0 {
			found = append(found, m.Path(path))
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}
