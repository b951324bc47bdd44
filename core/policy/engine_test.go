// Package policy - Evaluation tests
package policy

import (
	"context"
	"testing"

	"finopsguard/core/types"
)

func newEmptyEngine() (*Engine, *Store) {
	store := NewStore(nil)
	return NewEngine(store), store
}

func budgetPolicy(id string, limit float64, action types.ViolationAction) types.Policy {
	return types.Policy{
		ID:          id,
		Name:        id,
		Budget:      &limit,
		OnViolation: action,
		Enabled:     true,
	}
}

func simpleModel(size string) *types.CanonicalResourceModel {
	return &types.CanonicalResourceModel{Resources: []types.CanonicalResource{
		{ID: "web-ec2-us-east-1", Type: "aws_instance", Name: "web", Region: "us-east-1", Size: size, Count: 1},
	}}
}

func responseWithCost(monthly float64) *types.CheckResponse {
	return &types.CheckResponse{
		EstimatedMonthlyCost: monthly,
		BreakdownByResource: []types.ResourceBreakdownItem{
			{ResourceID: "web-ec2-us-east-1", MonthlyCost: monthly},
		},
		RiskFlags:         []string{},
		PricingConfidence: types.ConfidenceHigh,
	}
}

func TestBudgetPolicyPassesUnderLimit(t *testing.T) {
	engine, store := newEmptyEngine()
	if err := store.Add(context.Background(), budgetPolicy("budget", 100, types.ActionAdvisory)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	result := engine.Evaluate(simpleModel("t3.medium"), responseWithCost(30.37), "dev", nil)

	if result.OverallStatus != types.PolicyStatusPass {
		t.Errorf("Expected pass, got %s", result.OverallStatus)
	}
	if len(result.PassedPolicies) != 1 {
		t.Errorf("Expected 1 passed policy, got %d", len(result.PassedPolicies))
	}
}

func TestBudgetPolicyViolationDetails(t *testing.T) {
	engine, store := newEmptyEngine()
	if err := store.Add(context.Background(), budgetPolicy("budget", 100, types.ActionAdvisory)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	result := engine.Evaluate(simpleModel("m5.24xlarge"), responseWithCost(250.50), "dev", nil)

	if result.OverallStatus != types.PolicyStatusAdvisory {
		t.Fatalf("Expected advisory, got %s", result.OverallStatus)
	}
	if len(result.AdvisoryViolations) != 1 {
		t.Fatalf("Expected 1 advisory violation, got %d", len(result.AdvisoryViolations))
	}

	v := result.AdvisoryViolations[0]
	if v.Details["actual_cost"] != 250.50 {
		t.Errorf("Expected actual_cost 250.50, got %v", v.Details["actual_cost"])
	}
	if v.Details["budget_limit"] != 100.0 {
		t.Errorf("Expected budget_limit 100, got %v", v.Details["budget_limit"])
	}
	if v.Details["overage"] != 150.50 {
		t.Errorf("Expected overage 150.50, got %v", v.Details["overage"])
	}
}

func TestBudgetAtExactLimitPasses(t *testing.T) {
	engine, store := newEmptyEngine()
	if err := store.Add(context.Background(), budgetPolicy("budget", 100, types.ActionBlock)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	result := engine.Evaluate(simpleModel("t3.medium"), responseWithCost(100), "dev", nil)
	if result.OverallStatus != types.PolicyStatusPass {
		t.Errorf("Expected pass at exact limit, got %s", result.OverallStatus)
	}
}

func TestBlockTakesPrecedenceOverAdvisory(t *testing.T) {
	engine, store := newEmptyEngine()
	ctx := context.Background()
	if err := store.Add(ctx, budgetPolicy("soft", 10, types.ActionAdvisory)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add(ctx, budgetPolicy("hard", 50, types.ActionBlock)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	result := engine.Evaluate(simpleModel("t3.medium"), responseWithCost(200), "prod", nil)

	if result.OverallStatus != types.PolicyStatusBlock {
		t.Errorf("Expected block to win precedence, got %s", result.OverallStatus)
	}
	if len(result.BlockingViolations) != 1 || len(result.AdvisoryViolations) != 1 {
		t.Errorf("Expected 1 blocking and 1 advisory violation, got %d/%d",
			len(result.BlockingViolations), len(result.AdvisoryViolations))
	}
}

func TestDisabledPolicyPasses(t *testing.T) {
	engine, store := newEmptyEngine()
	p := budgetPolicy("off", 1, types.ActionBlock)
	p.Enabled = false
	if err := store.Add(context.Background(), p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	result := engine.Evaluate(simpleModel("t3.medium"), responseWithCost(9999), "prod", nil)

	if result.OverallStatus != types.PolicyStatusPass {
		t.Errorf("Expected disabled policy to pass, got %s", result.OverallStatus)
	}
	if len(result.PassedPolicies) != 1 || result.PassedPolicies[0].Reason != "disabled" {
		t.Errorf("Expected disabled pass reason, got %+v", result.PassedPolicies)
	}
}

func TestResourceScopedExpression(t *testing.T) {
	engine, store := newEmptyEngine()
	SeedDefaults(store)

	result := engine.Evaluate(simpleModel("m5.large"), responseWithCost(70.08), "dev", nil)

	if result.OverallStatus != types.PolicyStatusBlock {
		t.Fatalf("Expected m5.large in dev to block, got %s", result.OverallStatus)
	}
	if len(result.BlockingViolations) != 1 {
		t.Fatalf("Expected 1 blocking violation, got %d", len(result.BlockingViolations))
	}
	v := result.BlockingViolations[0]
	if v.PolicyID != "no_large_instances_in_dev" {
		t.Errorf("Expected no_large_instances_in_dev, got %s", v.PolicyID)
	}
	if v.ResourceID != "web-ec2-us-east-1" {
		t.Errorf("Expected violation pinned to resource, got %s", v.ResourceID)
	}
}

func TestResourceScopedExpressionEnvironmentGate(t *testing.T) {
	engine, store := newEmptyEngine()
	SeedDefaults(store)

	// Same size in prod: the and-combined environment rule does not match.
	result := engine.Evaluate(simpleModel("m5.large"), responseWithCost(70.08), "prod", nil)

	if result.OverallStatus != types.PolicyStatusPass {
		t.Errorf("Expected m5.large in prod to pass, got %s", result.OverallStatus)
	}
}

func TestCustomPoliciesAugmentStore(t *testing.T) {
	engine, _ := newEmptyEngine()
	custom := []types.Policy{budgetPolicy("request_budget", 20, types.ActionAdvisory)}

	result := engine.Evaluate(simpleModel("t3.medium"), responseWithCost(30.37), "dev", custom)

	if result.OverallStatus != types.PolicyStatusAdvisory {
		t.Errorf("Expected request-scoped budget to trigger, got %s", result.OverallStatus)
	}
}

func TestExpressionOrCombinator(t *testing.T) {
	engine, store := newEmptyEngine()
	p := types.Policy{
		ID:   "regions",
		Name: "Approved Regions",
		Expression: &types.PolicyExpression{
			Operator: types.ExprOr,
			Rules: []types.PolicyRule{
				{Field: "resource.region", Operator: types.OpEqual, Value: "cn-north-1"},
				{Field: "resource.region", Operator: types.OpEqual, Value: "us-gov-west-1"},
			},
		},
		OnViolation: types.ActionBlock,
		Enabled:     true,
	}
	if err := store.Add(context.Background(), p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	model := &types.CanonicalResourceModel{Resources: []types.CanonicalResource{
		{ID: "a-ec2-us-east-1", Type: "aws_instance", Region: "us-east-1", Size: "t3.medium", Count: 1},
		{ID: "b-ec2-cn-north-1", Type: "aws_instance", Region: "cn-north-1", Size: "t3.medium", Count: 1},
	}}

	result := engine.Evaluate(model, responseWithCost(60), "prod", nil)

	if len(result.BlockingViolations) != 1 {
		t.Fatalf("Expected exactly the cn-north-1 resource to violate, got %d violations", len(result.BlockingViolations))
	}
	if result.BlockingViolations[0].ResourceID != "b-ec2-cn-north-1" {
		t.Errorf("Expected cn-north-1 resource flagged, got %s", result.BlockingViolations[0].ResourceID)
	}
}

func TestEmptyExpressionNeverFails(t *testing.T) {
	engine, store := newEmptyEngine()
	p := types.Policy{
		ID:          "vacuous",
		Name:        "Vacuous",
		Expression:  &types.PolicyExpression{Operator: types.ExprAnd, Rules: []types.PolicyRule{}},
		OnViolation: types.ActionBlock,
		Enabled:     true,
	}
	if err := store.Add(context.Background(), p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	result := engine.Evaluate(simpleModel("t3.medium"), responseWithCost(30.37), "dev", nil)
	if result.OverallStatus != types.PolicyStatusPass {
		t.Errorf("Expected empty rule set to pass, got %s", result.OverallStatus)
	}
}

func TestEvalRuleOperators(t *testing.T) {
	evalCtx := map[string]interface{}{
		"environment":            "dev",
		"estimated_monthly_cost": 150.0,
		"resource": map[string]interface{}{
			"type":   "aws_instance",
			"size":   "m5.large",
			"region": "us-east-1",
			"count":  3,
		},
	}

	cases := []struct {
		name string
		rule types.PolicyRule
		want bool
	}{
		{"equal", types.PolicyRule{Field: "environment", Operator: types.OpEqual, Value: "dev"}, true},
		{"not equal", types.PolicyRule{Field: "environment", Operator: types.OpNotEqual, Value: "prod"}, true},
		{"greater", types.PolicyRule{Field: "estimated_monthly_cost", Operator: types.OpGreater, Value: 100}, true},
		{"greater equal boundary", types.PolicyRule{Field: "estimated_monthly_cost", Operator: types.OpGreaterEqual, Value: 150}, true},
		{"less", types.PolicyRule{Field: "estimated_monthly_cost", Operator: types.OpLess, Value: 100}, false},
		{"less equal", types.PolicyRule{Field: "resource.count", Operator: types.OpLessEqual, Value: 3}, true},
		{"numeric string coercion", types.PolicyRule{Field: "estimated_monthly_cost", Operator: types.OpGreater, Value: "100"}, true},
		{"coercion failure is false", types.PolicyRule{Field: "environment", Operator: types.OpGreater, Value: 5}, false},
		{"in", types.PolicyRule{Field: "resource.size", Operator: types.OpIn, Value: []string{"m5.large", "m5.xlarge"}}, true},
		{"not in", types.PolicyRule{Field: "resource.size", Operator: types.OpIn, Value: []string{"t3.micro"}}, false},
		{"contains case insensitive", types.PolicyRule{Field: "resource.type", Operator: types.OpContains, Value: "INSTANCE"}, true},
		{"starts_with", types.PolicyRule{Field: "resource.region", Operator: types.OpStartsWith, Value: "us-"}, true},
		{"ends_with", types.PolicyRule{Field: "resource.size", Operator: types.OpEndsWith, Value: ".large"}, true},
		{"missing field is false", types.PolicyRule{Field: "resource.zone", Operator: types.OpEqual, Value: "a"}, false},
	}

	for _, tc := range cases {
		if got := evalRule(tc.rule, evalCtx); got != tc.want {
			t.Errorf("%s: evalRule = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestResolvePathThroughLists(t *testing.T) {
	evalCtx := map[string]interface{}{
		"resources": []map[string]interface{}{
			{"id": "first", "tags": map[string]string{"team": "platform"}},
			{"id": "second"},
		},
	}

	v, ok := resolvePath(evalCtx, "resources.0.id")
	if !ok || v != "first" {
		t.Errorf("Expected resources.0.id = first, got %v (ok=%v)", v, ok)
	}

	v, ok = resolvePath(evalCtx, "resources.0.tags.team")
	if !ok || v != "platform" {
		t.Errorf("Expected nested tag lookup, got %v (ok=%v)", v, ok)
	}

	if _, ok := resolvePath(evalCtx, "resources.7.id"); ok {
		t.Error("Expected out-of-range index to miss")
	}
	if _, ok := resolvePath(evalCtx, "resources.x.id"); ok {
		t.Error("Expected non-numeric index to miss")
	}
}

func TestEvaluationContextShape(t *testing.T) {
	engine, _ := newEmptyEngine()
	model := &types.CanonicalResourceModel{Resources: []types.CanonicalResource{
		{ID: "a-ec2-us-east-1", Type: "aws_instance", Region: "us-east-1", Size: "t3.medium", Count: 2},
		{ID: "b-ec2-us-east-1", Type: "aws_instance", Region: "us-east-1", Size: "t3.micro", Count: 1},
	}}

	result := engine.Evaluate(model, responseWithCost(60), "staging", nil)
	evalCtx := result.EvaluationContext

	if evalCtx["environment"] != "staging" {
		t.Errorf("Expected environment staging, got %v", evalCtx["environment"])
	}
	if evalCtx["total_resources"] != 2 {
		t.Errorf("Expected total_resources 2, got %v", evalCtx["total_resources"])
	}
	typeCounts, _ := evalCtx["resource_type_counts"].(map[string]interface{})
	if typeCounts["aws_instance"] != 3 {
		t.Errorf("Expected aws_instance count 3, got %v", typeCounts["aws_instance"])
	}
	regionCounts, _ := evalCtx["region_counts"].(map[string]interface{})
	if regionCounts["us-east-1"] != 3 {
		t.Errorf("Expected us-east-1 count 3, got %v", regionCounts["us-east-1"])
	}
}
