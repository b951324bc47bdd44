// Package types - Audit types
package types

import "time"

// AuditSeverity classifies audit events
type AuditSeverity string

const (
	SeverityInfo     AuditSeverity = "info"
	SeverityWarning  AuditSeverity = "warning"
	SeverityError    AuditSeverity = "error"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEventType names the family of audit events
type AuditEventType string

const (
	AuditAPIRequest        AuditEventType = "api.request"
	AuditAnalysisCompleted AuditEventType = "analysis.completed"
	AuditPolicyEvaluated   AuditEventType = "policy.evaluated"
	AuditPolicyViolated    AuditEventType = "policy.violated"
	AuditPolicyMutation    AuditEventType = "policy.mutation"
	AuditWebhookMutation   AuditEventType = "webhook.mutation"
	AuditWebhookDelivery   AuditEventType = "webhook.delivery"
	AuditAuthAttempt       AuditEventType = "auth.attempt"
	AuditAuthFailure       AuditEventType = "auth.failure"
	AuditSecurityViolation AuditEventType = "security.violation"
)

// AuditActor identifies who performed an action
type AuditActor struct {
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Role      string `json:"role,omitempty"`
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// AuditHTTP captures request context for API events
type AuditHTTP struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Status int    `json:"status"`
}

// AuditEvent is an append-only record of a core action
type AuditEvent struct {
	EventID        string                 `json:"event_id"`
	EventType      AuditEventType         `json:"event_type"`
	Severity       AuditSeverity          `json:"severity"`
	Timestamp      time.Time              `json:"timestamp"`
	Actor          AuditActor             `json:"actor"`
	RequestID      string                 `json:"request_id,omitempty"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type,omitempty"`
	ResourceID     string                 `json:"resource_id,omitempty"`
	Details        map[string]interface{} `json:"details,omitempty"`
	Success        bool                   `json:"success"`
	Error          string                 `json:"error,omitempty"`
	HTTP           *AuditHTTP             `json:"http,omitempty"`
	ComplianceTags []string               `json:"compliance_tags,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// AuditQuery filters the audit trail
type AuditQuery struct {
	Start         *time.Time
	End           *time.Time
	EventTypes    []AuditEventType
	Severities    []AuditSeverity
	Usernames     []string
	ResourceTypes []string
	Success       *bool
	Search        string
	Limit         int
	Offset        int
	SortBy        string
	SortDesc      bool
}

// AuditQueryResult is a page of audit events
type AuditQueryResult struct {
	Events     []AuditEvent `json:"events"`
	Total      int          `json:"total"`
	HasMore    bool         `json:"has_more"`
	NextOffset int          `json:"next_offset"`
}

// ComplianceReport aggregates audit activity over a window
type ComplianceReport struct {
	Start                     time.Time                 `json:"start"`
	End                       time.Time                 `json:"end"`
	TotalEvents               int                       `json:"total_events"`
	EventsByType              map[AuditEventType]int    `json:"events_by_type"`
	EventsBySeverity          map[AuditSeverity]int     `json:"events_by_severity"`
	EventsByUser              map[string]int            `json:"events_by_user"`
	APIRequests               int                       `json:"api_requests"`
	PolicyEvaluations         int                       `json:"policy_evaluations"`
	PolicyViolations          int                       `json:"policy_violations"`
	AuthAttempts              int                       `json:"auth_attempts"`
	AuthFailures              int                       `json:"auth_failures"`
	SecurityViolations        int                       `json:"security_violations"`
	PolicyComplianceRate      float64                   `json:"policy_compliance_rate"`
	AuthenticationSuccessRate float64                   `json:"authentication_success_rate"`
	ComplianceStatus          string                    `json:"compliance_status"`
}
