// Package cmd provides the CLI commands for finopsguard.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"finopsguard/internal/logging"
)

// Exit codes for CI integration.
const (
	exitOK        = 0
	exitBlocked   = 1
	exitInterrupt = 130
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "finopsguard",
	Short: "Cost-aware guardrails for infrastructure changes",
	Long: `finopsguard analyzes Terraform and Ansible documents, estimates
their monthly cost, and evaluates governance policies before the change
ships.

Examples:
  finopsguard check main.tf
  finopsguard check --format ansible playbook.yml
  finopsguard check --environment dev --budget 500 main.tf`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if err == errPolicyBlocked {
			return exitBlocked
		}
		if err == errInterrupted {
			return exitInterrupt
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitBlocked
	}
	return exitOK
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	cfg := logging.DefaultConfig()
	cfg.Format = "console"
	if verbose {
		cfg.Level = "debug"
	} else {
		cfg.Level = "warn"
	}
	_ = logging.Initialize(cfg)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("finopsguard version 0.1.0")
	},
}
