package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/kzdp/fundingflow/cmd/fundingflow/cmd"
	"github.com/kzdp/fundingflow/internal/pipeline"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Propagate the failing step's exit status
		var stepErr *pipeline.StepError
		if errors.As(err, &stepErr) && stepErr.ExitCode > 0 {
			os.Exit(stepErr.ExitCode)
		}
		os.Exit(1)
	}
}
