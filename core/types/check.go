// Package types - Analysis request/response types
package types

// WeeksPerMonth converts a monthly cost into a first-week estimate.
const WeeksPerMonth = 4.345

// CheckRequest is a single analysis request
type CheckRequest struct {
	// IaCType is the document format: terraform or ansible
	IaCType string `json:"iac_type"`

	// IaCPayload is the base64-encoded source document
	IaCPayload string `json:"iac_payload"`

	// Environment the change targets: dev, staging, prod
	Environment string `json:"environment"`

	// BudgetRules optionally carries a per-request budget
	BudgetRules *BudgetRules `json:"budget_rules,omitempty"`
}

// BudgetRules carries request-scoped budget constraints
type BudgetRules struct {
	MonthlyBudget float64 `json:"monthly_budget"`
}

// PolicyRequest evaluates one named policy against a document
type PolicyRequest struct {
	IaCType    string `json:"iac_type"`
	IaCPayload string `json:"iac_payload"`
	PolicyID   string `json:"policy_id"`

	// Mode optionally overrides the policy's on_violation action
	Mode string `json:"mode,omitempty"`

	Environment string `json:"environment,omitempty"`
}

// ResourceBreakdownItem is one costed resource in a response
type ResourceBreakdownItem struct {
	// ResourceID matches a CanonicalResource.ID with count > 0
	ResourceID string `json:"resource_id"`

	// MonthlyCost in USD, rounded to cents
	MonthlyCost float64 `json:"monthly_cost"`

	// Notes carries estimation assumptions
	Notes []string `json:"notes,omitempty"`
}

// PolicyEvalSummary is the condensed policy outcome on a response
type PolicyEvalSummary struct {
	Status   string `json:"status"`
	PolicyID string `json:"policy_id"`
	Reason   string `json:"reason,omitempty"`
}

// CheckResponse is the analysis result returned to the caller
type CheckResponse struct {
	// EstimatedMonthlyCost is round(sum(breakdown.monthly_cost), 2)
	EstimatedMonthlyCost float64 `json:"estimated_monthly_cost"`

	// EstimatedFirstWeekCost is round(monthly / 4.345, 2)
	EstimatedFirstWeekCost float64 `json:"estimated_first_week_cost"`

	// BreakdownByResource lists per-resource costs, parse order preserved
	BreakdownByResource []ResourceBreakdownItem `json:"breakdown_by_resource"`

	// RiskFlags carries advisory markers such as policy_blocked
	RiskFlags []string `json:"risk_flags"`

	// Recommendations carries optimization hints
	Recommendations []string `json:"recommendations"`

	// PolicyEval summarizes the policy outcome; nil before evaluation
	PolicyEval *PolicyEvalSummary `json:"policy_eval"`

	// PricingConfidence is the minimum confidence across consulted quotes
	PricingConfidence Confidence `json:"pricing_confidence"`

	// DurationMS is wall time of the analysis, at least 1
	DurationMS int64 `json:"duration_ms"`

	// BudgetLimit echoes the request budget when one was supplied
	BudgetLimit *float64 `json:"budget_limit,omitempty"`

	// PolicyResult carries the full evaluation; omitted from the
	// condensed wire shape when absent
	PolicyResult *PolicyEvaluationResult `json:"policy_result,omitempty"`
}

// HasRiskFlag reports whether the response carries the given flag
func (r *CheckResponse) HasRiskFlag(flag string) bool {
	for _, f := range r.RiskFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Risk flag values appended by the orchestrator
const (
	RiskFlagPolicyBlocked  = "policy_blocked"
	RiskFlagPolicyAdvisory = "policy_advisory"
	RiskFlagOverBudget     = "over_budget"
)
