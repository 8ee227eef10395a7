package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/kzdp/fundingflow/internal/config"
	"github.com/kzdp/fundingflow/internal/notebook"
)

const (
	// MinFreeMemoryBytes is the free-memory floor below which a run is
	// likely to thrash (load scripts hold the dataset in memory)
	MinFreeMemoryBytes = 512 * 1024 * 1024

	// MinFreeDiskBytes is the free-disk floor for the project dir (the
	// incremental load rewrites the whole Parquet file)
	MinFreeDiskBytes = 1 * 1024 * 1024 * 1024
)

// Check is one preflight verification result
type Check struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Required bool   `json:"required"`
	Detail   string `json:"detail"`
}

// Run verifies the environment a pipeline run needs. Required failures
// mean the run cannot work; optional failures are warnings.
func Run(cfg *config.Config) []Check {
	checks := []Check{
		checkInterpreter(cfg),
		checkProjectDir(cfg),
		checkScript(cfg, "increment script", cfg.IncrementScript),
		checkScript(cfg, "baseline script", cfg.BaselineScript),
		checkNotebookInput(cfg),
		checkNotebookEngine(cfg),
		checkMemory(),
		checkDisk(cfg),
	}
	return checks
}

// Failed reports whether any required check failed
func Failed(checks []Check) bool {
	for _, c := range checks {
		if c.Required && !c.OK {
			return true
		}
	}
	return false
}

func checkInterpreter(cfg *config.Config) Check {
	bin := cfg.PythonBin()
	check := Check{Name: "python interpreter", Required: true}

	if filepath.IsAbs(bin) {
		if _, err := os.Stat(bin); err != nil {
			check.Detail = fmt.Sprintf("%s: %v", bin, err)
			return check
		}
	} else if _, err := exec.LookPath(bin); err != nil {
		check.Detail = fmt.Sprintf("%s not found on PATH", bin)
		return check
	}

	check.OK = true
	check.Detail = bin
	return check
}

func checkProjectDir(cfg *config.Config) Check {
	check := Check{Name: "project directory", Required: true}

	info, err := os.Stat(cfg.ProjectDir)
	if err != nil {
		check.Detail = fmt.Sprintf("%s: %v", cfg.ProjectDir, err)
		return check
	}
	if !info.IsDir() {
		check.Detail = fmt.Sprintf("%s is not a directory", cfg.ProjectDir)
		return check
	}

	check.OK = true
	check.Detail = cfg.ProjectDir
	return check
}

func checkScript(cfg *config.Config, name, script string) Check {
	check := Check{Name: name, Required: true}

	path := script
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.ProjectDir, script)
	}
	if _, err := os.Stat(path); err != nil {
		check.Detail = fmt.Sprintf("%s: %v", path, err)
		return check
	}

	check.OK = true
	check.Detail = path
	return check
}

func checkNotebookInput(cfg *config.Config) Check {
	check := Check{Name: "transformation notebook", Required: true}

	path := cfg.NotebookInput
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.ProjectDir, cfg.NotebookInput)
	}
	if _, err := os.Stat(path); err != nil {
		check.Detail = fmt.Sprintf("%s: %v", path, err)
		return check
	}

	check.OK = true
	check.Detail = path
	return check
}

func checkNotebookEngine(cfg *config.Config) Check {
	check := Check{Name: "notebook runner", Required: true}

	selector := notebook.NewSelector(cfg.VenvBin)
	engine, reason, err := selector.Select(notebook.EngineType(cfg.NotebookEngine))
	if err != nil {
		check.Detail = err.Error()
		return check
	}

	check.OK = true
	check.Detail = fmt.Sprintf("%s (%s)", engine.Name(), reason)
	return check
}

func checkMemory() Check {
	check := Check{Name: "free memory"}

	vm, err := mem.VirtualMemory()
	if err != nil {
		check.Detail = fmt.Sprintf("could not read memory stats: %v", err)
		return check
	}

	check.OK = vm.Available >= MinFreeMemoryBytes
	check.Detail = fmt.Sprintf("%.1f GB available", float64(vm.Available)/(1024*1024*1024))
	return check
}

func checkDisk(cfg *config.Config) Check {
	check := Check{Name: "free disk"}

	usage, err := disk.Usage(cfg.ProjectDir)
	if err != nil {
		check.Detail = fmt.Sprintf("could not read disk stats for %s: %v", cfg.ProjectDir, err)
		return check
	}

	check.OK = usage.Free >= MinFreeDiskBytes
	check.Detail = fmt.Sprintf("%.1f GB free on %s", float64(usage.Free)/(1024*1024*1024), cfg.ProjectDir)
	return check
}
