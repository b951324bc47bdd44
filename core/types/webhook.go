// Package types - Webhook types
package types

import (
	"strings"
	"time"
)

// EventType classifies webhook events
type EventType string

const (
	EventCostAnomaly       EventType = "cost_anomaly"
	EventBudgetExceeded    EventType = "budget_exceeded"
	EventPolicyViolation   EventType = "policy_violation"
	EventHighCostResource  EventType = "high_cost_resource"
	EventCostSpike         EventType = "cost_spike"
	EventAnalysisCompleted EventType = "analysis_completed"
	EventPolicyCreated     EventType = "policy_created"
	EventPolicyUpdated     EventType = "policy_updated"
	EventPolicyDeleted     EventType = "policy_deleted"
)

// AllEventTypes lists every event a webhook may subscribe to
func AllEventTypes() []EventType {
	return []EventType{
		EventCostAnomaly,
		EventBudgetExceeded,
		EventPolicyViolation,
		EventHighCostResource,
		EventCostSpike,
		EventAnalysisCompleted,
		EventPolicyCreated,
		EventPolicyUpdated,
		EventPolicyDeleted,
	}
}

// IsValidEventType reports whether t is a known event type
func IsValidEventType(t EventType) bool {
	for _, known := range AllEventTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// reservedHeaderNames may not appear in webhook custom headers
var reservedHeaderNames = map[string]bool{
	"content-type":   true,
	"content-length": true,
	"authorization":  true,
	"user-agent":     true,
}

// IsReservedHeader reports whether the header name is reserved
func IsReservedHeader(name string) bool {
	return reservedHeaderNames[strings.ToLower(name)]
}

// Webhook is a delivery subscription
type Webhook struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	URL               string            `json:"url"`
	Secret            string            `json:"secret,omitempty"`
	Events            []EventType       `json:"events"`
	Enabled           bool              `json:"enabled"`
	VerifySSL         bool              `json:"verify_ssl"`
	TimeoutSeconds    int               `json:"timeout_seconds"`
	RetryAttempts     int               `json:"retry_attempts"`
	RetryDelaySeconds int               `json:"retry_delay_seconds"`
	Headers           map[string]string `json:"headers,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// SubscribesTo reports whether the webhook wants the given event type
func (w *Webhook) SubscribesTo(t EventType) bool {
	for _, e := range w.Events {
		if e == t {
			return true
		}
	}
	return false
}

// Validate checks webhook invariants
func (w *Webhook) Validate() error {
	if w.Name == "" {
		return errMissingField("name")
	}
	if !strings.HasPrefix(w.URL, "http://") && !strings.HasPrefix(w.URL, "https://") {
		return errInvalidURL(w.URL)
	}
	for name := range w.Headers {
		if IsReservedHeader(name) {
			return errReservedHeader(name)
		}
	}
	for _, e := range w.Events {
		if !IsValidEventType(e) {
			return errUnknownEvent(string(e))
		}
	}
	return nil
}

// DeliveryStatus is the state of a webhook delivery
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryRetrying  DeliveryStatus = "retrying"
)

// IsTerminal reports whether the status admits no further transitions
func (s DeliveryStatus) IsTerminal() bool {
	return s == DeliveryDelivered || s == DeliveryFailed
}

// WebhookDelivery is one dispatch record with its own state machine
type WebhookDelivery struct {
	ID             string         `json:"id"`
	WebhookID      string         `json:"webhook_id"`
	EventID        string         `json:"event_id"`
	EventType      EventType      `json:"event_type"`
	Payload        []byte         `json:"payload"`
	Status         DeliveryStatus `json:"status"`
	AttemptNumber  int            `json:"attempt_number"`
	MaxAttempts    int            `json:"max_attempts"`
	NextRetryAt    *time.Time     `json:"next_retry_at,omitempty"`
	ResponseStatus *int           `json:"response_status,omitempty"`
	ResponseBody   string         `json:"response_body,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
}

// WebhookEvent is the wire payload delivered to endpoints
type WebhookEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}
