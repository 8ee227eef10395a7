package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kzdp/fundingflow/pkg/logging"
)

func testLogger() *logging.Logger {
	logger := logging.NewLogger(logging.ERROR, false)
	logger.SetOutput(io.Discard)
	return logger
}

// TestRun_FailFast verifies the second step never runs when the first fails
func TestRun_FailFast(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	steps := []Step{
		{Name: "load", Command: "sh", Args: []string{"-c", "exit 3"}},
		{Name: "transform", Command: "touch", Args: []string{marker}},
	}

	runner := NewRunner(testLogger(), WithOutput(io.Discard, io.Discard))
	results, err := runner.Run(context.Background(), steps)

	if err == nil {
		t.Fatal("Expected error from failing step")
	}

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Expected *StepError, got %T", err)
	}
	if stepErr.Step != "load" {
		t.Errorf("Expected failing step 'load', got %q", stepErr.Step)
	}
	if stepErr.ExitCode != 3 {
		t.Errorf("Expected exit code 3, got %d", stepErr.ExitCode)
	}

	if _, statErr := os.Stat(marker); !os.IsNotExist(statErr) {
		t.Error("Second step ran despite first step failing")
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].ExitCode != 3 {
		t.Errorf("Expected first result exit code 3, got %d", results[0].ExitCode)
	}
	if !results[1].Skipped {
		t.Error("Expected second result to be marked skipped")
	}
}

// TestRun_SequentialSuccess verifies both steps run in order and timestamps
// are non-decreasing
func TestRun_SequentialSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	steps := []Step{
		{Name: "load", Command: "sh", Args: []string{"-c", "printf a >> " + out}},
		{Name: "transform", Command: "sh", Args: []string{"-c", "printf b >> " + out}},
	}

	runner := NewRunner(testLogger(), WithOutput(io.Discard, io.Discard))
	results, err := runner.Run(context.Background(), steps)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	content, readErr := os.ReadFile(out)
	if readErr != nil {
		t.Fatalf("Failed to read output file: %v", readErr)
	}
	if string(content) != "ab" {
		t.Errorf("Expected steps to run in order (ab), got %q", string(content))
	}

	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for i, result := range results {
		if !result.Succeeded() {
			t.Errorf("Expected step %d to succeed, exit=%d skipped=%v", i, result.ExitCode, result.Skipped)
		}
		if result.CompletedAt.Before(result.StartedAt) {
			t.Errorf("Step %d completed before it started", i)
		}
	}

	// Step B must not start before step A completed
	if results[1].StartedAt.Before(results[0].CompletedAt) {
		t.Error("Second step started before first step completed")
	}
}

// TestRun_DryRun verifies dry runs never execute commands
func TestRun_DryRun(t *testing.T) {
	steps := []Step{
		{Name: "load", Command: "this-binary-does-not-exist"},
		{Name: "transform", Command: "this-one-neither"},
	}

	runner := NewRunner(testLogger(), WithDryRun(true))
	results, err := runner.Run(context.Background(), steps)
	if err != nil {
		t.Fatalf("Dry run failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	for i, result := range results {
		if result.PID != 0 {
			t.Errorf("Dry-run step %d has a PID, a process was started", i)
		}
	}
}

// TestRun_DirAndEnv verifies steps run in their working directory with the
// extra environment applied
func TestRun_DirAndEnv(t *testing.T) {
	dir := t.TempDir()

	steps := []Step{
		{
			Name:    "load",
			Command: "sh",
			Args:    []string{"-c", "pwd -P > out && echo $PIPELINE_MODE >> out"},
			Dir:     dir,
			Env:     []string{"PIPELINE_MODE=incremental"},
		},
	}

	runner := NewRunner(testLogger(), WithOutput(io.Discard, io.Discard))
	if _, err := runner.Run(context.Background(), steps); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}

	resolved, _ := filepath.EvalSymlinks(dir)
	expected := resolved + "\nincremental\n"
	if string(content) != expected {
		t.Errorf("Expected %q, got %q", expected, string(content))
	}
}

// TestRun_StartFailure verifies a command that cannot start fails the run
func TestRun_StartFailure(t *testing.T) {
	steps := []Step{
		{Name: "load", Command: "this-binary-does-not-exist"},
	}

	runner := NewRunner(testLogger())
	results, err := runner.Run(context.Background(), steps)

	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Expected *StepError, got %v", err)
	}
	if stepErr.ExitCode != -1 {
		t.Errorf("Expected exit code -1 for start failure, got %d", stepErr.ExitCode)
	}
	if len(results) != 1 || results[0].ExitCode != -1 {
		t.Errorf("Expected one result with exit code -1, got %+v", results)
	}
}

// TestRun_Cancellation verifies a cancelled context aborts the in-flight step
func TestRun_Cancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	steps := []Step{
		{Name: "load", Command: "sleep", Args: []string{"30"}},
		{Name: "transform", Command: "sleep", Args: []string{"30"}},
	}

	runner := NewRunner(testLogger(), WithOutput(io.Discard, io.Discard))

	start := time.Now()
	results, err := runner.Run(ctx, steps)
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("Expected error from cancelled run")
	}
	if elapsed > 10*time.Second {
		t.Fatalf("Cancellation took too long: %v", elapsed)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if !results[1].Skipped {
		t.Error("Expected second step to be skipped after cancellation")
	}
}

// TestRun_StepTimeout verifies the per-step timeout kills slow steps
func TestRun_StepTimeout(t *testing.T) {
	steps := []Step{
		{Name: "load", Command: "sleep", Args: []string{"30"}},
	}

	runner := NewRunner(testLogger(),
		WithOutput(io.Discard, io.Discard),
		WithStepTimeout(200*time.Millisecond),
	)

	start := time.Now()
	_, err := runner.Run(context.Background(), steps)
	if err == nil {
		t.Fatal("Expected error from timed-out step")
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("Step timeout did not take effect")
	}
}
