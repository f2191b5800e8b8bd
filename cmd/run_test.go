package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sanmat.dev/pkg/sanmat/internal/domain"
	m "sanmat.dev/pkg/sanmat/internal/model"
)

type mockWorkflow struct {
	mock.Mock
}

func (w *mockWorkflow) Run(ctx context.Context, args domain.RunArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) Probe(ctx context.Context, args domain.ProbeArgs) error {
	return w.Called(ctx, args).Error(0)
}

func (w *mockWorkflow) View(ctx context.Context, args domain.ViewArgs) error {
	return w.Called(ctx, args).Error(0)
}

// swapWorkflow replaces the package workflow with a mock for the test's
// duration.
func swapWorkflow(t *testing.T) *mockWorkflow {
	t.Helper()

	mocked := &mockWorkflow{}

	original := workflow
	workflow = mocked

	t.Cleanup(func() { workflow = original })

	return mocked
}

// resetFlagState clears parsed-flag state left behind by a previous Execute
// on the shared command tree. pflag slice values append on re-parse once
// their internal "changed" bit is set, so without this reset a second test's
// --sanitizers value is appended to the first test's instead of replacing it.
func resetFlagState(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok && f.Changed {
			_ = sv.Replace(nil)
		}

		f.Changed = false
	})

	for _, sub := range cmd.Commands() {
		resetFlagState(sub)
	}
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Chdir(t.TempDir())

	resetFlagState(rootCmd)

	buffer := &bytes.Buffer{}
	rootCmd.SetOut(buffer)
	rootCmd.SetErr(buffer)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())

	return buffer.String(), err
}

func TestRunCommandPassesArgsToWorkflow(t *testing.T) {
	mocked := swapWorkflow(t)

	var captured domain.RunArgs

	mocked.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		captured = args
		return true
	})).Return(nil)

	_, err := executeCommand(t,
		"run", "/src/project",
		"--sanitizers", "thread,address",
		"--jobs", "3",
		"--test-timeout", "45s",
		"--build-root", "/tmp/sanmat-build",
		"--output", "/tmp/sanmat-reports",
	)
	require.NoError(t, err)

	mocked.AssertExpectations(t)

	assert.Equal(t, m.Path("/src/project"), captured.SourceDir)
	assert.Equal(t, []m.SanitizerKind{m.SanitizerAddress, m.SanitizerThread}, captured.Kinds)
	assert.Equal(t, 3, captured.Jobs)
	assert.Equal(t, 45*time.Second, captured.TestTimeout)
	assert.Equal(t, m.Path("/tmp/sanmat-build"), captured.BuildRoot)
	assert.Equal(t, m.Path("/tmp/sanmat-reports"), captured.Reports)
	assert.True(t, captured.WriteReports)
	assert.False(t, captured.DryRun)
}

func TestRunCommandDefaults(t *testing.T) {
	mocked := swapWorkflow(t)

	var captured domain.RunArgs

	mocked.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		captured = args
		return true
	})).Return(nil)

	_, err := executeCommand(t, "run",
		"--sanitizers", "all",
		"--jobs", "2",
		"--test-timeout", DefaultTestTimeout.String(),
		"--output", ".sanmat-reports",
		"--build-root", ".sanmat-build",
	)
	require.NoError(t, err)

	assert.Equal(t, m.Path("."), captured.SourceDir)
	assert.Equal(t, m.AllSanitizers, captured.Kinds)
	assert.Equal(t, DefaultTestTimeout, captured.TestTimeout)
	assert.Contains(t, captured.Candidates, "clang++")
	assert.Contains(t, captured.Candidates, "g++")
}

func TestRunCommandDryRunFlag(t *testing.T) {
	mocked := swapWorkflow(t)
	t.Cleanup(func() { runDryRunFlag = false })

	mocked.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.DryRun
	})).Return(nil)

	_, err := executeCommand(t, "run", "--dry-run", "--sanitizers", "address")
	require.NoError(t, err)

	mocked.AssertExpectations(t)
}

func TestRunCommandNoReportFlag(t *testing.T) {
	mocked := swapWorkflow(t)

	mocked.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return !args.WriteReports
	})).Return(nil)

	_, err := executeCommand(t, "run", "--no-report", "--sanitizers", "address")
	require.NoError(t, err)

	mocked.AssertExpectations(t)
}

func TestRunCommandCompilerOverride(t *testing.T) {
	mocked := swapWorkflow(t)

	mocked.On("Run", mock.Anything, mock.MatchedBy(func(args domain.RunArgs) bool {
		return args.CompilerOverride == "clang++-18"
	})).Return(nil)

	_, err := executeCommand(t, "run", "--compiler", "clang++-18", "--sanitizers", "memory")
	require.NoError(t, err)

	mocked.AssertExpectations(t)

	runCompilerFlag = ""
}

func TestRunCommandRejectsUnknownSanitizer(t *testing.T) {
	swapWorkflow(t)

	_, err := executeCommand(t, "run", "--sanitizers", "leak")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sanitizer")
}

func TestRunCommandPropagatesWorkflowFailure(t *testing.T) {
	mocked := swapWorkflow(t)

	mocked.On("Run", mock.Anything, mock.Anything).Return(domain.ErrRunFailed)

	_, err := executeCommand(t, "run", "--sanitizers", "address")
	require.ErrorIs(t, err, domain.ErrRunFailed)
}
