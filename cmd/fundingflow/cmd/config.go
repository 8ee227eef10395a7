package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Commands for inspecting and validating the effective pipeline configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Prints the configuration after merging defaults, the config file,
environment variables, and flags.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)

	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "text", "Output format: text, json, yaml")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch configFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(cfg)

	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		return encoder.Encode(cfg)

	default: // text
		if used := viper.ConfigFileUsed(); used != "" {
			fmt.Printf("Config file: %s\n\n", used)
		}
		fmt.Println("Pipeline configuration:")
		fmt.Printf("  Virtualenv:        %s\n", orUnset(cfg.VenvPath))
		fmt.Printf("  Project dir:       %s\n", cfg.ProjectDir)
		fmt.Printf("  Increment script:  %s\n", cfg.IncrementScript)
		fmt.Printf("  Baseline script:   %s\n", cfg.BaselineScript)
		fmt.Printf("  Notebook input:    %s\n", cfg.NotebookInput)
		fmt.Printf("  Notebook output:   %s\n", cfg.NotebookOutput)
		fmt.Printf("  Notebook engine:   %s\n", cfg.NotebookEngine)
		fmt.Printf("  Step timeout:      %s\n", cfg.StepTimeout)
		fmt.Printf("  Log dir:           %s\n", cfg.LogDir)
		fmt.Printf("  Metrics textfile:  %s\n", orUnset(cfg.MetricsTextfile))
		return nil
	}
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	fmt.Println("Configuration is valid")
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
