// Package webhook - Event emission
// Converts analysis outcomes into webhook events and fans deliveries
// out to subscribed endpoints.
package webhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"finopsguard/core/types"
	"finopsguard/internal/logging"
)

const (
	highCostThreshold  = 1000.0
	costSpikeThreshold = 50.0
)

// Emitter turns domain occurrences into webhook events.
type Emitter struct {
	webhooks   Store
	deliveries DeliveryStore
	dispatcher *Dispatcher
	log        *zap.Logger
}

// NewEmitter wires the event emitter.
func NewEmitter(webhooks Store, deliveries DeliveryStore, dispatcher *Dispatcher) *Emitter {
	return &Emitter{
		webhooks:   webhooks,
		deliveries: deliveries,
		dispatcher: dispatcher,
		log:        logging.Named("webhook.emitter"),
	}
}

// Emit builds an event and dispatches it to every enabled subscriber.
// Deliveries fan out concurrently; Emit returns once they are enqueued.
func (e *Emitter) Emit(ctx context.Context, eventType types.EventType, data, metadata map[string]interface{}) {
	event := types.WebhookEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Metadata:  metadata,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		e.log.Error("marshaling webhook event failed", zap.String("type", string(eventType)), zap.Error(err))
		return
	}

	subscribers, err := e.webhooks.ListSubscribed(ctx, eventType)
	if err != nil {
		e.log.Error("loading subscribers failed", zap.String("type", string(eventType)), zap.Error(err))
		return
	}

	for _, w := range subscribers {
		delivery := types.WebhookDelivery{
			ID:            uuid.New().String(),
			WebhookID:     w.ID,
			EventID:       event.ID,
			EventType:     eventType,
			Payload:       payload,
			Status:        types.DeliveryPending,
			AttemptNumber: 1,
			MaxAttempts:   w.RetryAttempts,
			CreatedAt:     time.Now().UTC(),
		}
		if err := e.deliveries.Create(ctx, delivery); err != nil {
			e.log.Error("creating delivery failed", zap.String("webhook_id", w.ID), zap.Error(err))
			continue
		}
		// Detached so a client disconnect never aborts dispatch.
		go e.dispatcher.Attempt(context.Background(), w, delivery)
	}
}

// NotifyAnalysis emits the event set derived from one completed
// analysis. previous may be nil when no earlier analysis exists.
func (e *Emitter) NotifyAnalysis(ctx context.Context, resp *types.CheckResponse, previous *types.CheckResponse, environment string) {
	meta := map[string]interface{}{"environment": environment}

	if resp.PolicyResult != nil {
		if len(resp.PolicyResult.BlockingViolations) > 0 {
			e.Emit(ctx, types.EventPolicyViolation, map[string]interface{}{
				"violation_type": "blocking",
				"violations":     resp.PolicyResult.BlockingViolations,
			}, meta)
		}
		if len(resp.PolicyResult.AdvisoryViolations) > 0 {
			e.Emit(ctx, types.EventPolicyViolation, map[string]interface{}{
				"violation_type": "advisory",
				"violations":     resp.PolicyResult.AdvisoryViolations,
			}, meta)
		}
	}

	if resp.BudgetLimit != nil && resp.EstimatedMonthlyCost > *resp.BudgetLimit {
		e.Emit(ctx, types.EventBudgetExceeded, map[string]interface{}{
			"estimated_monthly_cost": resp.EstimatedMonthlyCost,
			"budget_limit":           *resp.BudgetLimit,
			"overage":                resp.EstimatedMonthlyCost - *resp.BudgetLimit,
		}, meta)
	}

	if previous != nil && previous.EstimatedMonthlyCost > 0 {
		change := (resp.EstimatedMonthlyCost - previous.EstimatedMonthlyCost) / previous.EstimatedMonthlyCost * 100
		if change > costSpikeThreshold {
			e.Emit(ctx, types.EventCostSpike, map[string]interface{}{
				"previous_monthly_cost": previous.EstimatedMonthlyCost,
				"current_monthly_cost":  resp.EstimatedMonthlyCost,
				"change_percent":        change,
			}, meta)
		}
	}

	for _, item := range resp.BreakdownByResource {
		if item.MonthlyCost > highCostThreshold {
			e.Emit(ctx, types.EventHighCostResource, map[string]interface{}{
				"resource_id":  item.ResourceID,
				"monthly_cost": item.MonthlyCost,
				"threshold":    highCostThreshold,
			}, meta)
		}
	}

	e.Emit(ctx, types.EventAnalysisCompleted, map[string]interface{}{
		"estimated_monthly_cost":    resp.EstimatedMonthlyCost,
		"estimated_first_week_cost": resp.EstimatedFirstWeekCost,
		"resource_count":            len(resp.BreakdownByResource),
		"pricing_confidence":        string(resp.PricingConfidence),
		"risk_flags":                resp.RiskFlags,
	}, meta)
}

// NotifyPolicyMutation emits the policy lifecycle event for a store
// mutation.
func (e *Emitter) NotifyPolicyMutation(ctx context.Context, action string, p types.Policy) {
	var eventType types.EventType
	switch action {
	case "created":
		eventType = types.EventPolicyCreated
	case "updated":
		eventType = types.EventPolicyUpdated
	case "deleted":
		eventType = types.EventPolicyDeleted
	default:
		return
	}
	e.Emit(ctx, eventType, map[string]interface{}{
		"policy_id":   p.ID,
		"policy_name": p.Name,
	}, nil)
}

// EmitAnomaly forwards externally supplied anomaly details.
func (e *Emitter) EmitAnomaly(ctx context.Context, details map[string]interface{}) {
	e.Emit(ctx, types.EventCostAnomaly, details, nil)
}
