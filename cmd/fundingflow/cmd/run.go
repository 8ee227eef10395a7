package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kzdp/fundingflow/internal/config"
	"github.com/kzdp/fundingflow/internal/loader"
	"github.com/kzdp/fundingflow/internal/notebook"
	"github.com/kzdp/fundingflow/internal/pipeline"
	"github.com/kzdp/fundingflow/pkg/logging"
	"github.com/kzdp/fundingflow/pkg/shutdown"
)

var (
	runBaseline bool
	runOnly     string
	runDryRun   bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline",
	Long: `Run the pipeline: the load script followed by the transformation
notebook. Steps run strictly in order; the notebook never starts unless the
load succeeded.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runBaseline, "baseline", false, "run the full baseline load instead of the incremental load")
	runCmd.Flags().StringVar(&runOnly, "only", "", "run a single stage: load or transform")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the commands without executing them")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.NewDailyLogger(cfg.LogDir, logging.ParseLevel(logLevel), false)
	if err != nil {
		return err
	}

	sd := shutdown.New(10 * time.Second)
	sd.Register(shutdown.CloseResource(logger, "logger"))
	defer sd.Shutdown()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	stop := sd.CancelOnSignal(cancel)
	defer stop()

	steps, err := buildSteps(cfg)
	if err != nil {
		return err
	}

	logger.Info("Pipeline starting", map[string]interface{}{
		"steps":   len(steps),
		"dry_run": runDryRun,
	})

	runner := pipeline.NewRunner(logger,
		pipeline.WithDryRun(runDryRun),
		pipeline.WithStepTimeout(cfg.StepTimeout),
	)

	results, runErr := runner.Run(ctx, steps)

	if cfg.MetricsTextfile != "" && !runDryRun {
		if err := pipeline.WriteTextfile(cfg.MetricsTextfile, results, runErr == nil); err != nil {
			logger.Warn("Failed to write metrics textfile", map[string]interface{}{
				"path":  cfg.MetricsTextfile,
				"error": err.Error(),
			})
		}
	}

	if err := printResults(results); err != nil {
		logger.Warn("Failed to print summary", map[string]interface{}{"error": err.Error()})
	}

	if runErr != nil {
		return runErr
	}

	logger.Info("Pipeline completed successfully")
	return nil
}

// buildSteps assembles the step sequence for the requested run mode
func buildSteps(cfg *config.Config) ([]pipeline.Step, error) {
	var steps []pipeline.Step

	if runOnly != "" && runOnly != "load" && runOnly != "transform" {
		return nil, fmt.Errorf("invalid --only value %q: must be load or transform", runOnly)
	}

	if runOnly == "" || runOnly == "load" {
		ld := loader.New(cfg)
		if runBaseline {
			steps = append(steps, ld.Baseline())
		} else {
			steps = append(steps, ld.Incremental())
		}
	}

	if runOnly == "" || runOnly == "transform" {
		step, err := buildTransformStep(cfg)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return steps, nil
}

func buildTransformStep(cfg *config.Config) (pipeline.Step, error) {
	selector := notebook.NewSelector(cfg.VenvBin)

	engine, reason, err := selector.Select(notebook.EngineType(cfg.NotebookEngine))
	if err != nil {
		if !runDryRun {
			return pipeline.Step{}, err
		}
		// Dry runs still print a command even without the tool installed
		engine = notebook.NewPapermillEngine(cfg.VenvBin("papermill"))
		reason = "dry run: assuming papermill"
	}

	log.Printf("Notebook engine selection: %s (%s)", engine.Name(), reason)

	command, cmdArgs := engine.BuildCommand(cfg.NotebookInput, cfg.NotebookOutput)

	return pipeline.Step{
		Name:    "transform-notebook",
		Command: command,
		Args:    cmdArgs,
		Dir:     cfg.ProjectDir,
		Env:     cfg.VenvEnv(),
	}, nil
}

func printResults(results []pipeline.Result) error {
	if IsJSONOutput() {
		output, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Step", "Status", "Exit", "Duration", "Started", "Completed")

	for _, result := range results {
		status := "OK"
		switch {
		case result.Skipped:
			status = "SKIPPED"
		case result.ExitCode != 0:
			status = "FAILED"
		}

		started, completed := "-", "-"
		if !result.Skipped {
			started = result.StartedAt.Format("15:04:05")
			completed = result.CompletedAt.Format("15:04:05")
		}

		table.Append(
			result.Step,
			status,
			fmt.Sprintf("%d", result.ExitCode),
			result.Duration.Round(time.Millisecond).String(),
			started,
			completed,
		)
	}

	table.Render()
	return nil
}
