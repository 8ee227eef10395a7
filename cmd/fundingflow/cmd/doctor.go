package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kzdp/fundingflow/internal/preflight"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the pipeline environment",
	Long: `Verifies everything a run needs before touching anything: the
virtualenv interpreter, the load scripts, the transformation notebook, a
notebook runner, and free memory and disk on the host.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checks := preflight.Run(cfg)

	if IsJSONOutput() {
		output, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	} else {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Check", "Status", "Detail")

		for _, check := range checks {
			status := "OK"
			if !check.OK {
				status = "WARN"
				if check.Required {
					status = "FAIL"
				}
			}
			table.Append(check.Name, status, check.Detail)
		}

		table.Render()
	}

	if preflight.Failed(checks) {
		return fmt.Errorf("environment is not ready: required checks failed")
	}

	return nil
}
