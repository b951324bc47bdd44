// Package api - Audit trail handlers
package api

import (
	"net/http"
	"strconv"
	"time"

	"finopsguard/core/types"
)

func (s *Server) handleQueryAudit(w http.ResponseWriter, r *http.Request) {
	q := types.AuditQuery{
		Search:   r.URL.Query().Get("search"),
		SortBy:   r.URL.Query().Get("sort_by"),
		SortDesc: r.URL.Query().Get("order") == "desc",
	}
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	q.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	if raw := r.URL.Query().Get("start"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.Start = &t
		}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.End = &t
		}
	}
	for _, t := range r.URL.Query()["event_type"] {
		q.EventTypes = append(q.EventTypes, types.AuditEventType(t))
	}
	for _, sev := range r.URL.Query()["severity"] {
		q.Severities = append(q.Severities, types.AuditSeverity(sev))
	}
	q.Usernames = r.URL.Query()["username"]
	q.ResourceTypes = r.URL.Query()["resource_type"]
	if raw := r.URL.Query().Get("success"); raw != "" {
		success := raw == "true"
		q.Success = &success
	}

	result, err := s.deps.Auditor.Query(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

func (s *Server) handleComplianceReport(w http.ResponseWriter, r *http.Request) {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("start"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			start = t
		}
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			end = t
		}
	}

	report, err := s.deps.Auditor.ComplianceReport(r.Context(), start, end)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, report, http.StatusOK)
}
