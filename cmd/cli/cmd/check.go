// Package cmd - The check command
// Runs the analysis pipeline in-process against a local file and
// reports the cost and policy verdict.
package cmd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finopsguard/adapters/cache"
	"finopsguard/core/audit"
	"finopsguard/core/catalog"
	"finopsguard/core/engine"
	"finopsguard/core/parser"
	"finopsguard/core/policy"
	"finopsguard/core/pricing"
	"finopsguard/core/simulator"
	"finopsguard/core/types"
	"finopsguard/core/webhook"
	"finopsguard/internal/config"
)

var (
	errPolicyBlocked = fmt.Errorf("blocked by policy")
	errInterrupted   = fmt.Errorf("interrupted")
)

var (
	checkFormat      string
	checkEnvironment string
	checkBudget      float64
	checkJSON        bool
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Estimate cost impact and evaluate policies for an IaC file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFormat, "format", "terraform", "document format: terraform or ansible")
	checkCmd.Flags().StringVar(&checkEnvironment, "environment", "dev", "target environment: dev, staging, prod")
	checkCmd.Flags().Float64Var(&checkBudget, "budget", 0, "monthly budget in USD (0 disables)")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "emit the raw JSON response")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT)
	defer stop()

	source, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	req := &types.CheckRequest{
		IaCType:     checkFormat,
		IaCPayload:  base64.StdEncoding.EncodeToString(source),
		Environment: checkEnvironment,
	}
	if checkBudget > 0 {
		req.BudgetRules = &types.BudgetRules{MonthlyBudget: checkBudget}
	}

	resp, err := newLocalEngine().Check(ctx, req)
	if ctx.Err() != nil {
		return errInterrupted
	}
	if err != nil {
		return err
	}

	if checkJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
	} else {
		printSummary(resp)
	}

	if resp.HasRiskFlag(types.RiskFlagPolicyBlocked) {
		return errPolicyBlocked
	}
	return nil
}

// newLocalEngine builds a self-contained pipeline: static pricing, no
// cache, no webhooks, no durable stores.
func newLocalEngine() *engine.Engine {
	c := cache.NewDisabled()
	resolver := pricing.NewResolver(catalog.New(), c, config.PricingConfig{FallbackToStatic: true})

	store := policy.NewStore(nil)
	policy.SeedDefaults(store)

	deliveries := webhook.NewMemoryDeliveryStore()
	emitter := webhook.NewEmitter(webhook.NewMemoryStore(), deliveries, webhook.NewDispatcher(deliveries))
	auditor := audit.NewLogger(config.AuditConfig{}, nil)

	return engine.New(
		parser.New(),
		simulator.New(resolver),
		policy.NewEngine(store),
		store,
		engine.NewHistory(nil),
		emitter,
		auditor,
		c,
	)
}

func printSummary(resp *types.CheckResponse) {
	fmt.Printf("Estimated monthly cost: $%.2f\n", resp.EstimatedMonthlyCost)
	fmt.Printf("Estimated first week:   $%.2f\n", resp.EstimatedFirstWeekCost)
	fmt.Printf("Pricing confidence:     %s\n", resp.PricingConfidence)
	fmt.Println()

	if len(resp.BreakdownByResource) == 0 {
		fmt.Println("No costed resources found.")
	}
	for _, item := range resp.BreakdownByResource {
		fmt.Printf("  %-50s $%10.2f\n", item.ResourceID, item.MonthlyCost)
		for _, note := range item.Notes {
			fmt.Printf("    %s\n", note)
		}
	}

	if resp.PolicyEval != nil {
		fmt.Println()
		fmt.Printf("Policy verdict: %s (%s)\n", resp.PolicyEval.Status, resp.PolicyEval.PolicyID)
		if resp.PolicyEval.Reason != "" {
			fmt.Printf("  %s\n", resp.PolicyEval.Reason)
		}
	}
	if resp.PolicyResult != nil {
		for _, v := range resp.PolicyResult.BlockingViolations {
			fmt.Printf("  BLOCK    %s: %s\n", v.PolicyID, v.Reason)
		}
		for _, v := range resp.PolicyResult.AdvisoryViolations {
			fmt.Printf("  ADVISORY %s: %s\n", v.PolicyID, v.Reason)
		}
	}
}
