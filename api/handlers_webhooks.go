// Package api - Webhook management handlers
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"finopsguard/core/audit"
	"finopsguard/core/types"
)

const (
	defaultTimeoutSeconds    = 30
	defaultRetryAttempts     = 3
	defaultRetryDelaySeconds = 60
)

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var hook types.Webhook
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		s.writeError(w, "invalid_request", "request body is not valid JSON", http.StatusBadRequest)
		return
	}

	hook.ID = uuid.New().String()
	now := time.Now().UTC()
	hook.CreatedAt = now
	hook.UpdatedAt = now
	applyWebhookDefaults(&hook)

	if err := hook.Validate(); err != nil {
		s.writeError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.deps.Webhooks.Create(r.Context(), hook); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.auditWebhookMutation(r, "webhook created", hook.ID)
	s.writeJSON(w, hook, http.StatusCreated)
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := s.deps.Webhooks.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	for i := range hooks {
		hooks[i].Secret = ""
	}
	s.writeJSON(w, map[string]interface{}{"webhooks": hooks}, http.StatusOK)
}

func (s *Server) handleGetWebhook(w http.ResponseWriter, r *http.Request) {
	hook, err := s.deps.Webhooks.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	hook.Secret = ""
	s.writeJSON(w, hook, http.StatusOK)
}

func (s *Server) handleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	existing, err := s.deps.Webhooks.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var hook types.Webhook
	if err := json.NewDecoder(r.Body).Decode(&hook); err != nil {
		s.writeError(w, "invalid_request", "request body is not valid JSON", http.StatusBadRequest)
		return
	}
	hook.ID = id
	hook.CreatedAt = existing.CreatedAt
	hook.UpdatedAt = time.Now().UTC()
	if hook.Secret == "" {
		hook.Secret = existing.Secret
	}
	applyWebhookDefaults(&hook)

	if err := hook.Validate(); err != nil {
		s.writeError(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.deps.Webhooks.Update(r.Context(), hook); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.auditWebhookMutation(r, "webhook updated", id)
	hook.Secret = ""
	s.writeJSON(w, hook, http.StatusOK)
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.deps.Webhooks.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.auditWebhookMutation(r, "webhook deleted", id)
	s.writeJSON(w, map[string]string{"deleted": id}, http.StatusOK)
}

func (s *Server) handleListDeliveries(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.deps.Webhooks.Get(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	deliveries, err := s.deps.Deliveries.ListByWebhook(r.Context(), id, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"deliveries": deliveries}, http.StatusOK)
}

// handleTestWebhook fires a synthetic analysis_completed delivery.
func (s *Server) handleTestWebhook(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	hook, err := s.deps.Webhooks.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	event := types.WebhookEvent{
		ID:        uuid.New().String(),
		Type:      types.EventAnalysisCompleted,
		Timestamp: time.Now().UTC(),
		Data:      map[string]interface{}{"test": true},
	}
	payload, _ := json.Marshal(event)
	delivery := types.WebhookDelivery{
		ID:            uuid.New().String(),
		WebhookID:     hook.ID,
		EventID:       event.ID,
		EventType:     event.Type,
		Payload:       payload,
		Status:        types.DeliveryPending,
		AttemptNumber: 1,
		MaxAttempts:   1,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.deps.Deliveries.Create(r.Context(), delivery); err != nil {
		s.writeDomainError(w, err)
		return
	}

	delivered := s.deps.Dispatcher.Attempt(r.Context(), hook, delivery)
	result, err := s.deps.Deliveries.Get(r.Context(), delivery.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{
		"delivered": delivered,
		"delivery":  result,
	}, http.StatusOK)
}

func applyWebhookDefaults(hook *types.Webhook) {
	if hook.TimeoutSeconds <= 0 {
		hook.TimeoutSeconds = defaultTimeoutSeconds
	}
	if hook.RetryAttempts <= 0 {
		hook.RetryAttempts = defaultRetryAttempts
	}
	if hook.RetryDelaySeconds <= 0 {
		hook.RetryDelaySeconds = defaultRetryDelaySeconds
	}
	if len(hook.Events) == 0 {
		hook.Events = types.AllEventTypes()
	}
}

func (s *Server) auditWebhookMutation(r *http.Request, action, webhookID string) {
	s.deps.Auditor.Log(r.Context(), types.AuditWebhookMutation, action,
		audit.WithResource("webhook", webhookID))
}
