// Package policy evaluates governance rules against analysis results.
//
// A policy is either budget-based (a ceiling on estimated monthly cost)
// or expression-based (a rule set describing the forbidden condition;
// the policy fails when the expression is true).
package policy

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"finopsguard/core/types"
	"finopsguard/internal/logging"
)

// Engine evaluates policies from the store plus any request-scoped
// custom policies.
type Engine struct {
	store *Store
	log   *zap.Logger
}

// NewEngine creates a policy engine over the given store.
func NewEngine(store *Store) *Engine {
	return &Engine{
		store: store,
		log:   logging.Named("policy"),
	}
}

// Evaluate runs every stored policy plus the supplied custom policies
// against the analysis result.
func (e *Engine) Evaluate(model *types.CanonicalResourceModel, resp *types.CheckResponse, environment string, custom []types.Policy) *types.PolicyEvaluationResult {
	evalCtx := buildContext(model, resp, environment)

	result := &types.PolicyEvaluationResult{
		OverallStatus:      types.PolicyStatusPass,
		BlockingViolations: []types.PolicyViolation{},
		AdvisoryViolations: []types.PolicyViolation{},
		PassedPolicies:     []types.PassedPolicy{},
		EvaluationContext:  evalCtx,
	}

	policies := append(e.store.List(), custom...)
	for _, p := range policies {
		e.evaluateOne(p, model, resp, evalCtx, result)
	}

	switch {
	case len(result.BlockingViolations) > 0:
		result.OverallStatus = types.PolicyStatusBlock
	case len(result.AdvisoryViolations) > 0:
		result.OverallStatus = types.PolicyStatusAdvisory
	}

	e.log.Debug("policy evaluation complete",
		zap.String("status", string(result.OverallStatus)),
		zap.Int("policies", len(policies)),
		zap.Int("blocking", len(result.BlockingViolations)),
		zap.Int("advisory", len(result.AdvisoryViolations)))
	return result
}

func (e *Engine) evaluateOne(p types.Policy, model *types.CanonicalResourceModel, resp *types.CheckResponse, evalCtx map[string]interface{}, result *types.PolicyEvaluationResult) {
	if !p.Enabled {
		result.PassedPolicies = append(result.PassedPolicies, types.PassedPolicy{
			PolicyID: p.ID,
			Reason:   "disabled",
		})
		return
	}

	if p.IsBudget() {
		e.evaluateBudget(p, resp, result)
		return
	}
	if p.Expression == nil {
		result.PassedPolicies = append(result.PassedPolicies, types.PassedPolicy{
			PolicyID: p.ID,
			Reason:   "no condition",
		})
		return
	}
	e.evaluateExpression(p, model, evalCtx, result)
}

func (e *Engine) evaluateBudget(p types.Policy, resp *types.CheckResponse, result *types.PolicyEvaluationResult) {
	actual := resp.EstimatedMonthlyCost
	limit := *p.Budget
	if actual <= limit {
		result.PassedPolicies = append(result.PassedPolicies, types.PassedPolicy{PolicyID: p.ID})
		return
	}
	violation := types.PolicyViolation{
		PolicyID:   p.ID,
		PolicyName: p.Name,
		Action:     p.OnViolation,
		Reason:     fmt.Sprintf("Estimated monthly cost $%.2f exceeds budget $%.2f", actual, limit),
		Details: map[string]interface{}{
			"actual_cost":  actual,
			"budget_limit": limit,
			"overage":      actual - limit,
		},
	}
	routeViolation(violation, result)
}

func (e *Engine) evaluateExpression(p types.Policy, model *types.CanonicalResourceModel, evalCtx map[string]interface{}, result *types.PolicyEvaluationResult) {
	if isResourceScoped(p.Expression) {
		failed := false
		resources, _ := evalCtx["resources"].([]map[string]interface{})
		for i, res := range resources {
			scoped := withResource(evalCtx, res)
			if evalExpression(p.Expression, scoped) {
				failed = true
				violation := types.PolicyViolation{
					PolicyID:   p.ID,
					PolicyName: p.Name,
					Action:     p.OnViolation,
					Reason:     fmt.Sprintf("Resource matched forbidden condition: %s", model.Resources[i].ID),
					ResourceID: model.Resources[i].ID,
				}
				routeViolation(violation, result)
			}
		}
		if !failed {
			result.PassedPolicies = append(result.PassedPolicies, types.PassedPolicy{PolicyID: p.ID})
		}
		return
	}

	if evalExpression(p.Expression, evalCtx) {
		violation := types.PolicyViolation{
			PolicyID:   p.ID,
			PolicyName: p.Name,
			Action:     p.OnViolation,
			Reason:     "Analysis matched forbidden condition",
		}
		routeViolation(violation, result)
		return
	}
	result.PassedPolicies = append(result.PassedPolicies, types.PassedPolicy{PolicyID: p.ID})
}

func routeViolation(v types.PolicyViolation, result *types.PolicyEvaluationResult) {
	if v.Action == types.ActionBlock {
		result.BlockingViolations = append(result.BlockingViolations, v)
	} else {
		result.AdvisoryViolations = append(result.AdvisoryViolations, v)
	}
}

// buildContext assembles the shared evaluation context once per call.
func buildContext(model *types.CanonicalResourceModel, resp *types.CheckResponse, environment string) map[string]interface{} {
	costByResource := make(map[string]float64, len(resp.BreakdownByResource))
	notesByResource := make(map[string][]string, len(resp.BreakdownByResource))
	for _, item := range resp.BreakdownByResource {
		costByResource[item.ResourceID] = item.MonthlyCost
		notesByResource[item.ResourceID] = item.Notes
	}

	resources := make([]map[string]interface{}, 0, len(model.Resources))
	typeCounts := map[string]interface{}{}
	regionCounts := map[string]interface{}{}
	for _, r := range model.Resources {
		entry := map[string]interface{}{
			"id":       r.ID,
			"type":     r.Type,
			"name":     r.Name,
			"region":   r.Region,
			"size":     r.Size,
			"count":    r.Count,
			"tags":     r.Tags,
			"metadata": r.Metadata,
		}
		if cost, ok := costByResource[r.ID]; ok {
			entry["monthly_cost"] = cost
			entry["cost_notes"] = notesByResource[r.ID]
		}
		resources = append(resources, entry)

		typeCounts[r.Type] = intFromAny(typeCounts[r.Type]) + r.Count
		regionCounts[r.Region] = intFromAny(regionCounts[r.Region]) + r.Count
	}

	return map[string]interface{}{
		"environment":               environment,
		"estimated_monthly_cost":    resp.EstimatedMonthlyCost,
		"estimated_first_week_cost": resp.EstimatedFirstWeekCost,
		"pricing_confidence":        string(resp.PricingConfidence),
		"risk_flags":                resp.RiskFlags,
		"total_resources":           len(model.Resources),
		"resources":                 resources,
		"resource_type_counts":      typeCounts,
		"region_counts":             regionCounts,
	}
}

func intFromAny(v interface{}) int {
	if n, ok := v.(int); ok {
		return n
	}
	return 0
}

// withResource shallow-copies the context and sets the per-iteration
// resource binding.
func withResource(evalCtx map[string]interface{}, res map[string]interface{}) map[string]interface{} {
	scoped := make(map[string]interface{}, len(evalCtx)+1)
	for k, v := range evalCtx {
		scoped[k] = v
	}
	scoped["resource"] = res
	return scoped
}

func isResourceScoped(expr *types.PolicyExpression) bool {
	for _, rule := range expr.Rules {
		if strings.HasPrefix(rule.Field, "resource.") {
			return true
		}
	}
	return false
}

// evalExpression applies the combinator over the rule results.
func evalExpression(expr *types.PolicyExpression, evalCtx map[string]interface{}) bool {
	if len(expr.Rules) == 0 {
		return false
	}
	if expr.Operator == types.ExprOr {
		for _, rule := range expr.Rules {
			if evalRule(rule, evalCtx) {
				return true
			}
		}
		return false
	}
	for _, rule := range expr.Rules {
		if !evalRule(rule, evalCtx) {
			return false
		}
	}
	return true
}

func evalRule(rule types.PolicyRule, evalCtx map[string]interface{}) bool {
	field, ok := resolvePath(evalCtx, rule.Field)
	if !ok {
		return false
	}

	switch rule.Operator {
	case types.OpEqual:
		return looseEqual(field, rule.Value)
	case types.OpNotEqual:
		return !looseEqual(field, rule.Value)
	case types.OpGreater, types.OpGreaterEqual, types.OpLess, types.OpLessEqual:
		lhs, ok1 := toFloat(field)
		rhs, ok2 := toFloat(rule.Value)
		if !ok1 || !ok2 {
			return false
		}
		switch rule.Operator {
		case types.OpGreater:
			return lhs > rhs
		case types.OpGreaterEqual:
			return lhs >= rhs
		case types.OpLess:
			return lhs < rhs
		default:
			return lhs <= rhs
		}
	case types.OpIn:
		list, ok := toList(rule.Value)
		if !ok {
			return false
		}
		for _, candidate := range list {
			if looseEqual(field, candidate) {
				return true
			}
		}
		return false
	case types.OpContains:
		return strings.Contains(
			strings.ToLower(toString(field)),
			strings.ToLower(toString(rule.Value)),
		)
	case types.OpStartsWith:
		return strings.HasPrefix(toString(field), toString(rule.Value))
	case types.OpEndsWith:
		return strings.HasSuffix(toString(field), toString(rule.Value))
	}
	return false
}

// resolvePath walks a dotted path through nested maps and
// numeric-indexed lists.
func resolvePath(root map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = root
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case map[string]string:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			current = next
		case []interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		case []map[string]interface{}:
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// looseEqual compares numerically when both sides coerce to float,
// otherwise by string form.
func looseEqual(a, b interface{}) bool {
	if fa, ok1 := toFloat(a); ok1 {
		if fb, ok2 := toFloat(b); ok2 {
			return fa == fb
		}
	}
	return toString(a) == toString(b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toList(v interface{}) ([]interface{}, bool) {
	switch list := v.(type) {
	case []interface{}:
		return list, true
	case []string:
		out := make([]interface{}, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
