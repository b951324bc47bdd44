// Package api - Usage integration handlers
package api

import (
	"net/http"
	"time"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

// handleUsageSummary serves historical billing aggregates. Advisory
// only: the response never feeds an analysis.
func (s *Server) handleUsageSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Usage == nil {
		s.writeError(w, "unavailable", "usage integration is not configured", http.StatusServiceUnavailable)
		return
	}

	cloud := types.Cloud(r.URL.Query().Get("cloud"))
	if cloud != types.CloudAWS && cloud != types.CloudGCP && cloud != types.CloudAzure {
		s.writeError(w, "invalid_request", "cloud must be aws, gcp, or azure", http.StatusBadRequest)
		return
	}

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

	summary, err := s.deps.Usage.Summary(r.Context(), cloud, start, end)
	if err != nil {
		if errors.IsType(err, errors.TypeConfig) {
			s.writeError(w, "unavailable", err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, summary, http.StatusOK)
}
