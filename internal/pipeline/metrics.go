package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile exports the run's outcome in Prometheus text format for
// the node_exporter textfile collector. Called once per run, after the
// last step completed or failed.
func WriteTextfile(path string, results []Result, success bool) error {
	reg := prometheus.NewRegistry()

	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fundingflow_last_run_timestamp_seconds",
		Help: "Unix time of the last pipeline run",
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fundingflow_last_run_success",
		Help: "1 if the last pipeline run succeeded, 0 otherwise",
	})
	stepDuration := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fundingflow_step_duration_seconds",
		Help: "Wall-clock duration of each step in the last run",
	}, []string{"step"})
	stepExit := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fundingflow_step_exit_code",
		Help: "Exit code of each step in the last run (-1 if not started)",
	}, []string{"step"})

	reg.MustRegister(lastRun, lastSuccess, stepDuration, stepExit)

	var lastCompleted float64
	for _, result := range results {
		if result.Skipped {
			stepExit.WithLabelValues(result.Step).Set(-1)
			continue
		}
		stepDuration.WithLabelValues(result.Step).Set(result.Duration.Seconds())
		stepExit.WithLabelValues(result.Step).Set(float64(result.ExitCode))
		if ts := float64(result.CompletedAt.Unix()); ts > lastCompleted {
			lastCompleted = ts
		}
	}
	lastRun.Set(lastCompleted)

	if success {
		lastSuccess.Set(1)
	} else {
		lastSuccess.Set(0)
	}

	return prometheus.WriteToTextfile(path, reg)
}
