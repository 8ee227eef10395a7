package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the effective pipeline configuration. All paths that the
// original deployment hard-coded are settable via file, env, or flags.
type Config struct {
	// Python virtualenv root. Empty means "use whatever is on PATH".
	VenvPath string `mapstructure:"venv_path" json:"venv_path" yaml:"venv_path"`

	// Directory the load scripts and notebook expect to run from.
	ProjectDir string `mapstructure:"project_dir" json:"project_dir" yaml:"project_dir"`

	// Load scripts, relative to ProjectDir unless absolute.
	IncrementScript string `mapstructure:"increment_script" json:"increment_script" yaml:"increment_script"`
	BaselineScript  string `mapstructure:"baseline_script" json:"baseline_script" yaml:"baseline_script"`

	// Transformation notebook and where the executed copy is written.
	NotebookInput  string `mapstructure:"notebook_input" json:"notebook_input" yaml:"notebook_input"`
	NotebookOutput string `mapstructure:"notebook_output" json:"notebook_output" yaml:"notebook_output"`

	// Notebook runner: auto, papermill, or nbconvert.
	NotebookEngine string `mapstructure:"notebook_engine" json:"notebook_engine" yaml:"notebook_engine"`

	// Per-step timeout. Zero means no timeout.
	StepTimeout time.Duration `mapstructure:"step_timeout" json:"step_timeout" yaml:"step_timeout"`

	// Directory for daily log files.
	LogDir string `mapstructure:"log_dir" json:"log_dir" yaml:"log_dir"`

	// Prometheus textfile-collector output. Empty disables metrics export.
	MetricsTextfile string `mapstructure:"metrics_textfile" json:"metrics_textfile" yaml:"metrics_textfile"`
}

// SetDefaults registers defaults matching the original deployment layout
func SetDefaults(v *viper.Viper) {
	v.SetDefault("venv_path", "")
	v.SetDefault("project_dir", ".")
	v.SetDefault("increment_script", "increment_run.py")
	v.SetDefault("baseline_script", "initial_run.py")
	v.SetDefault("notebook_input", "transform_data.ipynb")
	v.SetDefault("notebook_output", "transform_data_output.ipynb")
	v.SetDefault("notebook_engine", "auto")
	v.SetDefault("step_timeout", time.Duration(0))
	v.SetDefault("log_dir", "logs")
	v.SetDefault("metrics_textfile", "")
}

// Load unmarshals and validates the configuration from viper
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for values that can never work
func (c *Config) Validate() error {
	if c.ProjectDir == "" {
		return fmt.Errorf("project_dir must not be empty")
	}
	if c.IncrementScript == "" {
		return fmt.Errorf("increment_script must not be empty")
	}
	if c.NotebookInput == "" {
		return fmt.Errorf("notebook_input must not be empty")
	}
	if c.NotebookOutput == "" {
		return fmt.Errorf("notebook_output must not be empty")
	}

	switch c.NotebookEngine {
	case "", "auto", "papermill", "nbconvert":
	default:
		return fmt.Errorf("notebook_engine must be auto, papermill, or nbconvert (got %q)", c.NotebookEngine)
	}

	if c.StepTimeout < 0 {
		return fmt.Errorf("step_timeout must not be negative")
	}

	return nil
}

// PythonBin returns the interpreter to run load scripts with
func (c *Config) PythonBin() string {
	if c.VenvPath == "" {
		return "python3"
	}
	return filepath.Join(c.VenvPath, "bin", "python")
}

// VenvBin resolves a tool name inside the virtualenv, or returns the
// bare name when no virtualenv is configured
func (c *Config) VenvBin(name string) string {
	if c.VenvPath == "" {
		return name
	}
	return filepath.Join(c.VenvPath, "bin", name)
}

// VenvEnv returns the environment entries equivalent to activating the
// virtualenv: VIRTUAL_ENV plus the venv bin dir prepended to PATH
func (c *Config) VenvEnv() []string {
	if c.VenvPath == "" {
		return nil
	}
	return []string{
		"VIRTUAL_ENV=" + c.VenvPath,
		"PATH=" + filepath.Join(c.VenvPath, "bin") + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}
