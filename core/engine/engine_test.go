// Package engine - Orchestration tests
package engine

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finopsguard/adapters/cache"
	"finopsguard/core/audit"
	"finopsguard/core/catalog"
	"finopsguard/core/parser"
	"finopsguard/core/policy"
	"finopsguard/core/pricing"
	"finopsguard/core/simulator"
	"finopsguard/core/types"
	"finopsguard/core/webhook"
	"finopsguard/internal/config"
	"finopsguard/internal/errors"
)

const baselineTerraform = `
provider "aws" {
  region = "us-east-1"
}

resource "aws_instance" "web" {
  instance_type = "t3.medium"
}
`

const largeDevTerraform = `
resource "aws_instance" "big" {
  instance_type = "m5.large"
}
`

func newTestEngine(t *testing.T, seedDefaults bool) *Engine {
	t.Helper()
	c := cache.NewDisabled()
	resolver := pricing.NewResolver(catalog.New(), c, config.PricingConfig{FallbackToStatic: true})

	store := policy.NewStore(nil)
	if seedDefaults {
		policy.SeedDefaults(store)
	}

	deliveries := webhook.NewMemoryDeliveryStore()
	emitter := webhook.NewEmitter(webhook.NewMemoryStore(), deliveries, webhook.NewDispatcher(deliveries))
	auditor := audit.NewLogger(config.AuditConfig{}, nil)

	return New(
		parser.New(),
		simulator.New(resolver),
		policy.NewEngine(store),
		store,
		NewHistory(nil),
		emitter,
		auditor,
		c,
	)
}

func encode(payload string) string {
	return base64.StdEncoding.EncodeToString([]byte(payload))
}

func TestCheckRejectsUnknownFormat(t *testing.T) {
	e := newTestEngine(t, false)
	_, err := e.Check(context.Background(), &types.CheckRequest{
		IaCType:    "pulumi",
		IaCPayload: encode(baselineTerraform),
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeValidation))
	assert.Equal(t, "invalid_request", errors.SlugOf(err, ""))
}

func TestCheckRejectsEmptyPayload(t *testing.T) {
	e := newTestEngine(t, false)
	_, err := e.Check(context.Background(), &types.CheckRequest{IaCType: "terraform"})
	require.Error(t, err)
	assert.Equal(t, "invalid_request", errors.SlugOf(err, ""))
}

func TestCheckRejectsBadBase64(t *testing.T) {
	e := newTestEngine(t, false)
	_, err := e.Check(context.Background(), &types.CheckRequest{
		IaCType:    "terraform",
		IaCPayload: "not-base64!!!",
	})
	require.Error(t, err)
	assert.Equal(t, "invalid_payload_encoding", errors.SlugOf(err, ""))
}

func TestCheckBaseline(t *testing.T) {
	e := newTestEngine(t, true)
	resp, err := e.Check(context.Background(), &types.CheckRequest{
		IaCType:     "terraform",
		IaCPayload:  encode(baselineTerraform),
		Environment: "dev",
	})
	require.NoError(t, err)

	assert.InDelta(t, 30.37, resp.EstimatedMonthlyCost, 0.001)
	assert.InDelta(t, 6.99, resp.EstimatedFirstWeekCost, 0.001)
	assert.Equal(t, types.ConfidenceHigh, resp.PricingConfidence)
	assert.GreaterOrEqual(t, resp.DurationMS, int64(1))
	require.Len(t, resp.BreakdownByResource, 1)
	assert.Equal(t, "web-ec2-us-east-1", resp.BreakdownByResource[0].ResourceID)

	require.NotNil(t, resp.PolicyEval)
	assert.Equal(t, "pass", resp.PolicyEval.Status)
	assert.Equal(t, "all_policies", resp.PolicyEval.PolicyID)
	assert.Empty(t, resp.RiskFlags)
}

func TestCheckGCPMixedWorkload(t *testing.T) {
	const payload = `
provider "google" {
  region = "us-central1"
}

resource "google_compute_instance" "workers" {
  machine_type = "e2-standard-4"
  count        = 2
}

resource "google_sql_database_instance" "primary" {
  settings {
    tier = "db-n1-standard-2"
  }
}
`
	e := newTestEngine(t, false)
	resp, err := e.Check(context.Background(), &types.CheckRequest{
		IaCType:     "terraform",
		IaCPayload:  encode(payload),
		Environment: "staging",
	})
	require.NoError(t, err)

	require.Len(t, resp.BreakdownByResource, 2)
	costs := map[string]float64{}
	for _, item := range resp.BreakdownByResource {
		costs[item.ResourceID] = item.MonthlyCost
	}
	// 0.134/hr * 730 * 2 and 0.193/hr * 730
	assert.InDelta(t, 195.64, costs["workers-gce-us-central1"], 0.001)
	assert.InDelta(t, 140.89, costs["primary-cloudsql-us-central1"], 0.001)
	assert.InDelta(t, 336.53, resp.EstimatedMonthlyCost, 0.001)
	assert.InDelta(t, 77.45, resp.EstimatedFirstWeekCost, 0.001)
}

func TestCheckBudgetAdvisory(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Check(context.Background(), &types.CheckRequest{
		IaCType:     "terraform",
		IaCPayload:  encode(baselineTerraform),
		Environment: "dev",
		BudgetRules: &types.BudgetRules{MonthlyBudget: 20},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.BudgetLimit)
	assert.Equal(t, 20.0, *resp.BudgetLimit)
	assert.Contains(t, resp.RiskFlags, types.RiskFlagOverBudget)
	assert.Contains(t, resp.RiskFlags, types.RiskFlagPolicyAdvisory)

	require.NotNil(t, resp.PolicyEval)
	assert.Equal(t, "pass", resp.PolicyEval.Status, "advisory violations do not fail the analysis")
	assert.Equal(t, "multiple_policies", resp.PolicyEval.PolicyID)
	assert.Equal(t, "Advisory policy violations: 1", resp.PolicyEval.Reason)

	require.NotNil(t, resp.PolicyResult)
	require.Len(t, resp.PolicyResult.AdvisoryViolations, 1)
	assert.Equal(t, "request_budget", resp.PolicyResult.AdvisoryViolations[0].PolicyID)
}

func TestCheckBudgetUnderLimit(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Check(context.Background(), &types.CheckRequest{
		IaCType:     "terraform",
		IaCPayload:  encode(baselineTerraform),
		Environment: "dev",
		BudgetRules: &types.BudgetRules{MonthlyBudget: 100},
	})
	require.NoError(t, err)

	assert.NotContains(t, resp.RiskFlags, types.RiskFlagOverBudget)
	assert.Equal(t, "pass", resp.PolicyEval.Status)
	assert.Equal(t, "all_policies", resp.PolicyEval.PolicyID)
}

func TestCheckBlockingPolicy(t *testing.T) {
	e := newTestEngine(t, true)
	resp, err := e.Check(context.Background(), &types.CheckRequest{
		IaCType:     "terraform",
		IaCPayload:  encode(largeDevTerraform),
		Environment: "dev",
	})
	require.NoError(t, err, "a policy block is a verdict, not an error")

	assert.Contains(t, resp.RiskFlags, types.RiskFlagPolicyBlocked)
	assert.True(t, resp.HasRiskFlag(types.RiskFlagPolicyBlocked))

	require.NotNil(t, resp.PolicyEval)
	assert.Equal(t, "fail", resp.PolicyEval.Status)
	assert.Equal(t, "multiple_policies", resp.PolicyEval.PolicyID)
	assert.Equal(t, "Blocking policy violations: 1", resp.PolicyEval.Reason)

	require.NotNil(t, resp.PolicyResult)
	assert.Equal(t, types.PolicyStatusBlock, resp.PolicyResult.OverallStatus)
}

func TestCheckAppendsHistory(t *testing.T) {
	e := newTestEngine(t, false)
	ctx := context.Background()

	req := &types.CheckRequest{IaCType: "terraform", IaCPayload: encode(baselineTerraform), Environment: "dev"}
	_, err := e.Check(ctx, req)
	require.NoError(t, err)
	_, err = e.Check(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 2, e.History().Len())
	latest := e.History().Latest()
	require.NotNil(t, latest)
	assert.Equal(t, "terraform", latest.IaCType)
	assert.Equal(t, "dev", latest.Environment)
	assert.InDelta(t, 30.37, latest.Response.EstimatedMonthlyCost, 0.001)
}

func TestCheckMalformedPayloadYieldsEmptyAnalysis(t *testing.T) {
	e := newTestEngine(t, true)
	resp, err := e.Check(context.Background(), &types.CheckRequest{
		IaCType:     "terraform",
		IaCPayload:  encode(`resource "aws_instance" {{{`),
		Environment: "dev",
	})
	require.NoError(t, err)

	assert.Zero(t, resp.EstimatedMonthlyCost)
	assert.Empty(t, resp.BreakdownByResource)
	assert.Equal(t, "pass", resp.PolicyEval.Status)
}

func TestEvaluatePolicyNotFound(t *testing.T) {
	e := newTestEngine(t, false)
	_, err := e.EvaluatePolicy(context.Background(), &types.PolicyRequest{
		IaCType:    "terraform",
		IaCPayload: encode(baselineTerraform),
		PolicyID:   "ghost",
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestEvaluatePolicyModeOverride(t *testing.T) {
	e := newTestEngine(t, true)
	ctx := context.Background()

	// no_large_instances_in_dev normally blocks; advisory mode downgrades it.
	result, err := e.EvaluatePolicy(ctx, &types.PolicyRequest{
		IaCType:     "terraform",
		IaCPayload:  encode(largeDevTerraform),
		PolicyID:    "no_large_instances_in_dev",
		Mode:        "advisory",
		Environment: "dev",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PolicyStatusAdvisory, result.OverallStatus)
	require.Len(t, result.AdvisoryViolations, 1)
	assert.Empty(t, result.BlockingViolations)
}

func TestEvaluatePolicyInvalidMode(t *testing.T) {
	e := newTestEngine(t, true)
	_, err := e.EvaluatePolicy(context.Background(), &types.PolicyRequest{
		IaCType:    "terraform",
		IaCPayload: encode(baselineTerraform),
		PolicyID:   "default_monthly_budget",
		Mode:       "loud",
	})
	require.Error(t, err)
	assert.Equal(t, "invalid_request", errors.SlugOf(err, ""))
}

func TestEvaluatePolicyIsolatesTarget(t *testing.T) {
	e := newTestEngine(t, true)

	// m5.large in dev violates no_large_instances_in_dev, but evaluating
	// the budget policy alone must not surface that violation.
	result, err := e.EvaluatePolicy(context.Background(), &types.PolicyRequest{
		IaCType:     "terraform",
		IaCPayload:  encode(largeDevTerraform),
		PolicyID:    "default_monthly_budget",
		Environment: "dev",
	})
	require.NoError(t, err)
	assert.Equal(t, types.PolicyStatusPass, result.OverallStatus)
	assert.Empty(t, result.BlockingViolations)
}

func TestHistoryRingAndPaging(t *testing.T) {
	h := NewHistory(nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		h.Append(ctx, AnalysisRecord{ID: string(rune('a' + i))})
	}

	recent := h.Recent(2, 0)
	require.Len(t, recent, 2)
	assert.Equal(t, "e", recent[0].ID, "newest first")
	assert.Equal(t, "d", recent[1].ID)

	offset := h.Recent(2, 3)
	require.Len(t, offset, 2)
	assert.Equal(t, "b", offset[0].ID)

	assert.Empty(t, h.Recent(10, 99))
	assert.Equal(t, 5, h.Len())
}
