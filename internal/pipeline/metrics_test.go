package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundingflow.prom")

	now := time.Now()
	results := []Result{
		{
			Step:        "incremental-load",
			ExitCode:    0,
			StartedAt:   now.Add(-2 * time.Minute),
			CompletedAt: now.Add(-time.Minute),
			Duration:    time.Minute,
		},
		{
			Step:        "transform-notebook",
			ExitCode:    1,
			StartedAt:   now.Add(-time.Minute),
			CompletedAt: now,
			Duration:    time.Minute,
		},
	}

	if err := WriteTextfile(path, results, false); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	text := string(content)

	for _, want := range []string{
		"fundingflow_last_run_success 0",
		`fundingflow_step_exit_code{step="incremental-load"} 0`,
		`fundingflow_step_exit_code{step="transform-notebook"} 1`,
		`fundingflow_step_duration_seconds{step="incremental-load"} 60`,
		"fundingflow_last_run_timestamp_seconds",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Textfile missing %q:\n%s", want, text)
		}
	}
}

func TestWriteTextfile_SkippedStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundingflow.prom")

	results := []Result{
		{Step: "incremental-load", ExitCode: 2, Duration: time.Second},
		{Step: "transform-notebook", Skipped: true},
	}

	if err := WriteTextfile(path, results, false); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	text := string(content)

	if !strings.Contains(text, `fundingflow_step_exit_code{step="transform-notebook"} -1`) {
		t.Errorf("Expected skipped step exit code -1:\n%s", text)
	}
	if strings.Contains(text, `fundingflow_step_duration_seconds{step="transform-notebook"}`) {
		t.Errorf("Skipped step should not report a duration:\n%s", text)
	}
}
