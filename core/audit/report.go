// Package audit - Compliance reporting
package audit

import (
	"context"
	"time"

	"finopsguard/core/types"
)

const authFailureRateThreshold = 10.0

// ComplianceReport aggregates audit activity over [start, end).
func (l *Logger) ComplianceReport(ctx context.Context, start, end time.Time) (*types.ComplianceReport, error) {
	var events []types.AuditEvent
	if l.store != nil {
		var err error
		events, err = l.store.Range(ctx, start, end)
		if err != nil {
			return nil, err
		}
	}

	report := &types.ComplianceReport{
		Start:            start,
		End:              end,
		TotalEvents:      len(events),
		EventsByType:     map[types.AuditEventType]int{},
		EventsBySeverity: map[types.AuditSeverity]int{},
		EventsByUser:     map[string]int{},
	}

	for _, ev := range events {
		report.EventsByType[ev.EventType]++
		report.EventsBySeverity[ev.Severity]++
		if ev.Actor.Username != "" {
			report.EventsByUser[ev.Actor.Username]++
		}
		switch ev.EventType {
		case types.AuditAPIRequest:
			report.APIRequests++
		case types.AuditPolicyEvaluated:
			report.PolicyEvaluations++
		case types.AuditPolicyViolated:
			report.PolicyViolations++
		case types.AuditAuthAttempt:
			report.AuthAttempts++
		case types.AuditAuthFailure:
			report.AuthFailures++
		case types.AuditSecurityViolation:
			report.SecurityViolations++
		}
	}

	report.PolicyComplianceRate = 100.0
	if report.PolicyEvaluations > 0 {
		report.PolicyComplianceRate = 100.0 *
			float64(report.PolicyEvaluations-report.PolicyViolations) /
			float64(report.PolicyEvaluations)
	}
	report.AuthenticationSuccessRate = 100.0
	if report.AuthAttempts > 0 {
		report.AuthenticationSuccessRate = 100.0 *
			float64(report.AuthAttempts-report.AuthFailures) /
			float64(report.AuthAttempts)
	}

	switch {
	case report.SecurityViolations > 0:
		report.ComplianceStatus = "non-compliant"
	case report.PolicyViolations > 0 || 100.0-report.AuthenticationSuccessRate > authFailureRateThreshold:
		report.ComplianceStatus = "review"
	default:
		report.ComplianceStatus = "compliant"
	}
	return report, nil
}
