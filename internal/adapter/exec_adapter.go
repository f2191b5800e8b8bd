// Package adapter contains infrastructure adapters for the sanmat CLI.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"sanmat.dev/pkg/sanmat/pkg"
)

// CommandSpec describes one subprocess invocation. Extra environment
// variables are applied to the subprocess only and never leak into the
// parent process.
type CommandSpec struct {
	Name    string
	Args    []string
	Dir     string
	Env     map[string]string
	Timeout time.Duration
}

// String renders the spec as a command line for logging and dry-run output.
func (s CommandSpec) String() string {
	parts := make([]string, 0, len(s.Env)+len(s.Args)+1)

	keys := make([]string, 0, len(s.Env))
	for key := range s.Env {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, s.Env[key]))
	}

	parts = append(parts, s.Name)
	parts = append(parts, s.Args...)

	return strings.Join(parts, " ")
}

// CommandResult is the typed outcome of a subprocess run. Exit status is
// carried as data, not as an error: only failures to invoke the process at
// all surface as errors from CommandRunner.Run.
type CommandResult struct {
	ExitCode int
	Output   string
	TimedOut bool
	Duration time.Duration
}

// Succeeded reports whether the process ran to completion with exit code 0.
func (r CommandResult) Succeeded() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// CommandRunner abstracts subprocess execution so domain logic can be tested
// without spawning real toolchains.
type CommandRunner interface {
	Run(ctx context.Context, spec CommandSpec) (CommandResult, error)
	LookPath(name string) (string, error)
}

// LocalCommandRunner executes commands with os/exec, capturing the tail of
// combined stdout/stderr.
type LocalCommandRunner struct {
	outputLimit int
}

// NewLocalCommandRunner constructs a LocalCommandRunner with the default
// output capture limit.
func NewLocalCommandRunner() *LocalCommandRunner {
	return &LocalCommandRunner{outputLimit: pkg.DefaultTailLimit}
}

// Run executes the spec. A timeout forcibly terminates the subprocess; the
// result records TimedOut instead of returning an error.
func (r *LocalCommandRunner) Run(ctx context.Context, spec CommandSpec) (CommandResult, error) {
	runCtx := ctx

	var cancel context.CancelFunc

	if spec.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = mergedEnv(spec.Env)

	output := pkg.NewTailBuffer(r.outputLimit)
	cmd.Stdout = output
	cmd.Stderr = output

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	result := CommandResult{
		ExitCode: 0,
		Output:   output.String(),
		Duration: elapsed,
	}

	if runCtx.Err() != nil && ctx.Err() == nil {
		// The per-command deadline fired, not the caller's context.
		result.TimedOut = true
		result.ExitCode = -1

		slog.Warn("command timed out", "command", spec.Name, "timeout", spec.Timeout)

		return result, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		slog.Error("failed to start command", "command", spec.Name, "error", err)

		return result, fmt.Errorf("run %s: %w", spec.Name, err)
	}

	return result, nil
}

// LookPath resolves a binary name against the search path.
func (r *LocalCommandRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// mergedEnv builds the subprocess environment: the parent environment plus
// the spec's overrides, in deterministic order.
func mergedEnv(extra map[string]string) []string {
	if len(extra) == 0 {
		return os.Environ()
	}

	env := os.Environ()

	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		env = append(env, fmt.Sprintf("%s=%s", key, extra[key]))
	}

	return env
}
