// Package types - Policy types
package types

// ViolationAction is what happens when a policy fails
type ViolationAction string

const (
	// ActionAdvisory surfaces a warning without failing the pipeline
	ActionAdvisory ViolationAction = "advisory"

	// ActionBlock fails the pipeline
	ActionBlock ViolationAction = "block"
)

// PolicyStatus is the overall verdict of an evaluation
type PolicyStatus string

const (
	PolicyStatusPass     PolicyStatus = "pass"
	PolicyStatusAdvisory PolicyStatus = "advisory"
	PolicyStatusBlock    PolicyStatus = "block"
)

// RuleOperator is a comparison operator in a policy rule
type RuleOperator string

const (
	OpEqual        RuleOperator = "=="
	OpNotEqual     RuleOperator = "!="
	OpGreater      RuleOperator = ">"
	OpGreaterEqual RuleOperator = ">="
	OpLess         RuleOperator = "<"
	OpLessEqual    RuleOperator = "<="
	OpIn           RuleOperator = "in"
	OpContains     RuleOperator = "contains"
	OpStartsWith   RuleOperator = "starts_with"
	OpEndsWith     RuleOperator = "ends_with"
)

// PolicyRule is one comparison in an expression.
// Field is a dotted path resolved against the evaluation context.
type PolicyRule struct {
	Field    string       `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    interface{}  `json:"value"`
}

// ExpressionOperator combines rules in an expression
type ExpressionOperator string

const (
	ExprAnd ExpressionOperator = "and"
	ExprOr  ExpressionOperator = "or"
)

// PolicyExpression describes the forbidden condition: the owning
// policy fails when the expression evaluates TRUE.
type PolicyExpression struct {
	Rules    []PolicyRule       `json:"rules"`
	Operator ExpressionOperator `json:"operator"`
}

// Policy is a governance rule over an analysis result.
// Exactly one of Budget or Expression is typically set; Budget takes
// precedence when both are present.
type Policy struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Budget      *float64          `json:"budget,omitempty"`
	Expression  *PolicyExpression `json:"expression,omitempty"`
	OnViolation ViolationAction   `json:"on_violation"`
	Enabled     bool              `json:"enabled"`
}

// IsBudget reports whether the policy is budget-based
func (p *Policy) IsBudget() bool {
	return p.Budget != nil
}

// PolicyViolation records one failed policy check
type PolicyViolation struct {
	PolicyID   string                 `json:"policy_id"`
	PolicyName string                 `json:"policy_name"`
	Action     ViolationAction        `json:"action"`
	Reason     string                 `json:"reason"`
	ResourceID string                 `json:"resource_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// PassedPolicy records one passed policy check
type PassedPolicy struct {
	PolicyID string `json:"policy_id"`
	Reason   string `json:"reason,omitempty"`
}

// PolicyEvaluationResult aggregates all policy outcomes for one analysis
type PolicyEvaluationResult struct {
	// OverallStatus follows precedence: block > advisory > pass
	OverallStatus PolicyStatus `json:"overall_status"`

	// BlockingViolations from policies with on_violation=block
	BlockingViolations []PolicyViolation `json:"blocking_violations"`

	// AdvisoryViolations from policies with on_violation=advisory
	AdvisoryViolations []PolicyViolation `json:"advisory_violations"`

	// PassedPolicies that evaluated clean or were disabled
	PassedPolicies []PassedPolicy `json:"passed_policies"`

	// EvaluationContext is the context the rules ran against
	EvaluationContext map[string]interface{} `json:"evaluation_context,omitempty"`
}
