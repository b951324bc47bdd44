// Package engine orchestrates the analysis pipeline: decode, parse,
// simulate, evaluate policies, merge, persist, and notify.
package engine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finopsguard/adapters/cache"
	"finopsguard/core/audit"
	"finopsguard/core/parser"
	"finopsguard/core/policy"
	"finopsguard/core/simulator"
	"finopsguard/core/types"
	"finopsguard/core/webhook"
	"finopsguard/internal/errors"
	"finopsguard/internal/logging"
)

// Engine is the analysis orchestrator.
type Engine struct {
	parser    *parser.Parser
	simulator *simulator.Simulator
	policies  *policy.Engine
	store     *policy.Store
	history   *History
	emitter   *webhook.Emitter
	auditor   *audit.Logger
	cache     cache.Cache
	log       *zap.Logger
}

// New wires the orchestrator.
func New(p *parser.Parser, sim *simulator.Simulator, policies *policy.Engine, store *policy.Store, history *History, emitter *webhook.Emitter, auditor *audit.Logger, c cache.Cache) *Engine {
	return &Engine{
		parser:    p,
		simulator: sim,
		policies:  policies,
		store:     store,
		history:   history,
		emitter:   emitter,
		auditor:   auditor,
		cache:     c,
		log:       logging.Named("engine"),
	}
}

// Check runs one analysis. Only validation errors surface to the
// caller; everything else is recovered and logged.
func (e *Engine) Check(ctx context.Context, req *types.CheckRequest) (*types.CheckResponse, error) {
	start := time.Now()

	format := types.IaCType(req.IaCType)
	if format != types.IaCTerraform && format != types.IaCAnsible {
		return nil, errors.Validation("invalid_request", "iac_type must be terraform or ansible")
	}
	if req.IaCPayload == "" {
		return nil, errors.Validation("invalid_request", "iac_payload is required")
	}

	payload, err := base64.StdEncoding.DecodeString(req.IaCPayload)
	if err != nil {
		return nil, errors.Validation("invalid_payload_encoding", "iac_payload is not valid base64")
	}

	model := e.parseCached(ctx, string(payload), format)

	var custom []types.Policy
	if req.BudgetRules != nil && req.BudgetRules.MonthlyBudget > 0 {
		budget := req.BudgetRules.MonthlyBudget
		custom = append(custom, types.Policy{
			ID:          "request_budget",
			Name:        "Request Budget",
			Budget:      &budget,
			OnViolation: types.ActionAdvisory,
			Enabled:     true,
		})
	}

	resp := e.simulateCached(ctx, model)
	if req.BudgetRules != nil && req.BudgetRules.MonthlyBudget > 0 {
		limit := req.BudgetRules.MonthlyBudget
		resp.BudgetLimit = &limit
		if resp.EstimatedMonthlyCost > limit {
			resp.RiskFlags = append(resp.RiskFlags, types.RiskFlagOverBudget)
		}
	}

	evaluation := e.policies.Evaluate(model, resp, req.Environment, custom)
	mergeEvaluation(resp, evaluation)
	e.auditEvaluation(ctx, evaluation)

	record := AnalysisRecord{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		IaCType:     req.IaCType,
		Environment: req.Environment,
		Response:    resp,
	}
	previous := e.history.Latest()
	e.history.Append(ctx, record)

	// Anomaly detection and webhook fan-out never block the caller.
	go func() {
		var prev *types.CheckResponse
		if previous != nil {
			prev = previous.Response
		}
		e.emitter.NotifyAnalysis(context.Background(), resp, prev, req.Environment)
	}()

	elapsed := time.Since(start).Milliseconds()
	if elapsed < 1 {
		elapsed = 1
	}
	resp.DurationMS = elapsed

	e.log.Info("analysis complete",
		zap.String("analysis_id", record.ID),
		zap.String("iac_type", req.IaCType),
		zap.Float64("monthly_cost", resp.EstimatedMonthlyCost),
		zap.Int("resources", len(resp.BreakdownByResource)),
		zap.Int64("duration_ms", resp.DurationMS))
	return resp, nil
}

// EvaluatePolicy runs the pipeline against a single named policy.
// mode, when set, overrides the policy's on_violation action.
func (e *Engine) EvaluatePolicy(ctx context.Context, req *types.PolicyRequest) (*types.PolicyEvaluationResult, error) {
	target, ok := e.store.Get(req.PolicyID)
	if !ok {
		return nil, errors.Newf(errors.TypeNotFound, "policy %q not found", req.PolicyID)
	}
	if req.Mode != "" {
		switch types.ViolationAction(req.Mode) {
		case types.ActionAdvisory, types.ActionBlock:
			target.OnViolation = types.ViolationAction(req.Mode)
		default:
			return nil, errors.Validation("invalid_request", "mode must be advisory or block")
		}
	}

	format := types.IaCType(req.IaCType)
	if format != types.IaCTerraform && format != types.IaCAnsible {
		return nil, errors.Validation("invalid_request", "iac_type must be terraform or ansible")
	}
	payload, err := base64.StdEncoding.DecodeString(req.IaCPayload)
	if err != nil {
		return nil, errors.Validation("invalid_payload_encoding", "iac_payload is not valid base64")
	}

	model := e.parseCached(ctx, string(payload), format)
	resp := e.simulateCached(ctx, model)

	scratch := policy.NewStore(nil)
	single := policy.NewEngine(scratch)
	result := single.Evaluate(model, resp, req.Environment, []types.Policy{target})
	e.auditEvaluation(ctx, result)
	return result, nil
}

// History exposes the analysis history for the listing endpoint.
func (e *Engine) History() *History {
	return e.history
}

func mergeEvaluation(resp *types.CheckResponse, evaluation *types.PolicyEvaluationResult) {
	resp.PolicyResult = evaluation
	switch evaluation.OverallStatus {
	case types.PolicyStatusBlock:
		resp.RiskFlags = append(resp.RiskFlags, types.RiskFlagPolicyBlocked)
		resp.PolicyEval = &types.PolicyEvalSummary{
			Status:   "fail",
			PolicyID: "multiple_policies",
			Reason:   fmt.Sprintf("Blocking policy violations: %d", len(evaluation.BlockingViolations)),
		}
	case types.PolicyStatusAdvisory:
		resp.RiskFlags = append(resp.RiskFlags, types.RiskFlagPolicyAdvisory)
		resp.PolicyEval = &types.PolicyEvalSummary{
			Status:   "pass",
			PolicyID: "multiple_policies",
			Reason:   fmt.Sprintf("Advisory policy violations: %d", len(evaluation.AdvisoryViolations)),
		}
	default:
		resp.PolicyEval = &types.PolicyEvalSummary{
			Status:   "pass",
			PolicyID: "all_policies",
		}
	}
}

func (e *Engine) auditEvaluation(ctx context.Context, evaluation *types.PolicyEvaluationResult) {
	e.auditor.Log(ctx, types.AuditPolicyEvaluated, "policy evaluation",
		audit.WithDetails(map[string]interface{}{
			"overall_status": string(evaluation.OverallStatus),
			"blocking":       len(evaluation.BlockingViolations),
			"advisory":       len(evaluation.AdvisoryViolations),
		}))
	for _, v := range append(evaluation.BlockingViolations, evaluation.AdvisoryViolations...) {
		e.auditor.Log(ctx, types.AuditPolicyViolated, "policy violated",
			audit.WithSeverity(types.SeverityWarning),
			audit.WithResource("policy", v.PolicyID),
			audit.WithDetails(map[string]interface{}{
				"action":      string(v.Action),
				"reason":      v.Reason,
				"resource_id": v.ResourceID,
			}))
	}
}

func (e *Engine) parseCached(ctx context.Context, payload string, format types.IaCType) *types.CanonicalResourceModel {
	key := "parse:" + parser.ContentHash(payload, format)
	if raw, ok := e.cache.Get(ctx, key); ok {
		var model types.CanonicalResourceModel
		if err := json.Unmarshal([]byte(raw), &model); err == nil {
			return &model
		}
	}
	model := e.parser.Parse(payload, format)
	if data, err := json.Marshal(model); err == nil {
		e.cache.Set(ctx, key, string(data), time.Hour)
	}
	return model
}

func (e *Engine) simulateCached(ctx context.Context, model *types.CanonicalResourceModel) *types.CheckResponse {
	key := "simulate:" + simulator.ModelHash(model)
	if raw, ok := e.cache.Get(ctx, key); ok {
		var resp types.CheckResponse
		if err := json.Unmarshal([]byte(raw), &resp); err == nil {
			return &resp
		}
	}
	resp := e.simulator.Simulate(ctx, model)
	if data, err := json.Marshal(resp); err == nil {
		e.cache.Set(ctx, key, string(data), time.Hour)
	}
	return resp
}
