package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kzdp/fundingflow/pkg/logging"
)

// Runner executes steps strictly in order and stops at the first failure.
// A step's process never starts before the previous one exited zero.
type Runner struct {
	log         *logging.Logger
	stdout      io.Writer
	stderr      io.Writer
	dryRun      bool
	stepTimeout time.Duration
}

// Option configures a Runner
type Option func(*Runner)

// WithDryRun makes the runner log commands without executing them
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithStepTimeout bounds each step's runtime. Zero means no timeout.
func WithStepTimeout(d time.Duration) Option {
	return func(r *Runner) { r.stepTimeout = d }
}

// WithOutput redirects the child processes' stdout/stderr
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewRunner creates a sequential fail-fast runner
func NewRunner(log *logging.Logger, opts ...Option) *Runner {
	r := &Runner{
		log:    log,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the steps in order. On the first failure it returns the
// results collected so far (the failed step included, later steps marked
// skipped) and a *StepError carrying the child's exit code.
func (r *Runner) Run(ctx context.Context, steps []Step) ([]Result, error) {
	results := make([]Result, 0, len(steps))

	for i, step := range steps {
		result, err := r.runStep(ctx, step)
		results = append(results, result)

		if err != nil {
			// Fail fast: remaining steps never run
			for _, skipped := range steps[i+1:] {
				results = append(results, Result{
					Step:    skipped.Name,
					Command: skipped.CommandLine(),
					Skipped: true,
				})
				r.log.Warn("Step skipped", map[string]interface{}{
					"step":   skipped.Name,
					"reason": "previous step failed",
				})
			}
			return results, err
		}
	}

	return results, nil
}

func (r *Runner) runStep(ctx context.Context, step Step) (Result, error) {
	r.log.Info("Step starting", map[string]interface{}{
		"step":       step.Name,
		"command":    step.CommandLine(),
		"started_at": time.Now().Format(time.RFC3339),
	})

	if r.dryRun {
		now := time.Now()
		return Result{
			Step:        step.Name,
			Command:     step.CommandLine(),
			StartedAt:   now,
			CompletedAt: now,
		}, nil
	}

	stepCtx := ctx
	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		defer cancel()
	}

	timing := NewTiming()

	cmd := exec.CommandContext(stepCtx, step.Command, step.Args...)
	cmd.Dir = step.Dir
	cmd.Env = append(os.Environ(), step.Env...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	// Own process group so cancellation reaches the step's children too
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = 30 * time.Second

	if err := cmd.Start(); err != nil {
		timing.Complete()
		result := Result{
			Step:        step.Name,
			Command:     step.CommandLine(),
			StartedAt:   timing.StartedAt,
			CompletedAt: timing.CompletedAt,
			Duration:    timing.Duration(),
			ExitCode:    -1,
		}
		return result, &StepError{
			Step:     step.Name,
			ExitCode: -1,
			Err:      fmt.Errorf("failed to start: %w", err),
		}
	}

	pid := cmd.Process.Pid
	waitErr := cmd.Wait()
	timing.Complete()

	exitCode := 0
	if waitErr != nil {
		exitCode = -1
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
	}

	result := Result{
		Step:        step.Name,
		Command:     step.CommandLine(),
		PID:         pid,
		StartedAt:   timing.StartedAt,
		CompletedAt: timing.CompletedAt,
		Duration:    timing.Duration(),
		ExitCode:    exitCode,
	}

	if waitErr != nil {
		r.log.Error("Step failed", map[string]interface{}{
			"step":     step.Name,
			"exit":     exitCode,
			"pid":      pid,
			"duration": timing.Duration().String(),
		})
		if ctxErr := stepCtx.Err(); ctxErr != nil {
			waitErr = fmt.Errorf("%w (%v)", waitErr, ctxErr)
		}
		return result, &StepError{
			Step:     step.Name,
			ExitCode: exitCode,
			Err:      waitErr,
		}
	}

	r.log.Info("Step finished", map[string]interface{}{
		"step":         step.Name,
		"exit":         0,
		"pid":          pid,
		"duration":     timing.Duration().String(),
		"completed_at": timing.CompletedAt.Format(time.RFC3339),
	})

	return result, nil
}
