package loader

import (
	"github.com/kzdp/fundingflow/internal/config"
	"github.com/kzdp/fundingflow/internal/pipeline"
)

// Loader builds the steps that invoke the external load scripts. The
// scripts own all load semantics (watermarks, queries, Parquet layout);
// this side only runs them.
type Loader struct {
	cfg *config.Config
}

// New creates a loader for the given configuration
func New(cfg *config.Config) *Loader {
	return &Loader{cfg: cfg}
}

// Incremental returns the step that appends records newer than the
// dataset's watermark
func (l *Loader) Incremental() pipeline.Step {
	return l.step("incremental-load", l.cfg.IncrementScript)
}

// Baseline returns the step that rebuilds the dataset from scratch
func (l *Loader) Baseline() pipeline.Step {
	return l.step("baseline-load", l.cfg.BaselineScript)
}

func (l *Loader) step(name, script string) pipeline.Step {
	return pipeline.Step{
		Name:    name,
		Command: l.cfg.PythonBin(),
		Args:    []string{script},
		Dir:     l.cfg.ProjectDir,
		Env:     l.cfg.VenvEnv(),
	}
}
