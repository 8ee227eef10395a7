package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// Step is one external command in the pipeline sequence
type Step struct {
	// Name identifies the step in logs, summaries, and metrics
	Name string

	// Command and Args are passed to the OS verbatim (no shell)
	Command string
	Args    []string

	// Dir is the working directory for the command
	Dir string

	// Env holds extra KEY=VALUE entries appended to the inherited
	// environment (later entries win)
	Env []string
}

// CommandLine renders the step's command for logs and dry runs
func (s Step) CommandLine() string {
	parts := append([]string{s.Command}, s.Args...)
	return strings.Join(parts, " ")
}

// Result is immutable step-level truth. Set once, never change.
type Result struct {
	Step    string `json:"step"`
	Command string `json:"command"`
	PID     int    `json:"pid"`

	// Timing (immutable)
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`

	// Outcome (immutable)
	ExitCode int  `json:"exit_code"`
	Skipped  bool `json:"skipped,omitempty"`
}

// Succeeded reports whether the step ran and exited zero
func (r Result) Succeeded() bool {
	return !r.Skipped && r.ExitCode == 0
}

// StepError reports a failed step and carries the child's exit code so
// the process can propagate it
type StepError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %s failed with exit code %d", e.Step, e.ExitCode)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
