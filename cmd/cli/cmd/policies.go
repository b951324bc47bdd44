// Package cmd - The policies command
package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"finopsguard/core/policy"
)

var policiesJSON bool

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "Inspect governance policies",
}

var policiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in policies applied by check",
	RunE:  runPoliciesList,
}

func init() {
	policiesListCmd.Flags().BoolVar(&policiesJSON, "json", false, "emit raw JSON")
	policiesCmd.AddCommand(policiesListCmd)
	rootCmd.AddCommand(policiesCmd)
}

func runPoliciesList(cmd *cobra.Command, args []string) error {
	store := policy.NewStore(nil)
	policy.SeedDefaults(store)
	list := store.List()

	if policiesJSON {
		out, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	for _, p := range list {
		state := "enabled"
		if !p.Enabled {
			state = "disabled"
		}
		fmt.Printf("%-30s %-8s %-8s %s\n", p.ID, p.OnViolation, state, p.Name)
		if p.IsBudget() {
			fmt.Printf("%-30s budget $%.2f/month\n", "", *p.Budget)
		}
	}
	return nil
}
