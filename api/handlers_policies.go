// Package api - Policy CRUD handlers
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"finopsguard/core/audit"
	"finopsguard/core/types"
)

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"policies": s.deps.Policies.List(),
	}, http.StatusOK)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := s.deps.Policies.Get(id)
	if !ok {
		s.writeError(w, "not_found", "policy not found: "+id, http.StatusNotFound)
		return
	}
	s.writeJSON(w, p, http.StatusOK)
}

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var p types.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.writeError(w, "invalid_request", "request body is not valid JSON", http.StatusBadRequest)
		return
	}
	if err := s.deps.Policies.Add(r.Context(), p); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.auditPolicyMutation(r, "policy created", p.ID)
	s.writeJSON(w, p, http.StatusCreated)
}

func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	var p types.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.writeError(w, "invalid_request", "request body is not valid JSON", http.StatusBadRequest)
		return
	}
	p.ID = mux.Vars(r)["id"]
	if err := s.deps.Policies.Update(r.Context(), p); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.auditPolicyMutation(r, "policy updated", p.ID)
	s.writeJSON(w, p, http.StatusOK)
}

func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.deps.Policies.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.auditPolicyMutation(r, "policy deleted", id)
	s.writeJSON(w, map[string]string{"deleted": id}, http.StatusOK)
}

func (s *Server) auditPolicyMutation(r *http.Request, action, policyID string) {
	s.deps.Auditor.Log(r.Context(), types.AuditPolicyMutation, action,
		audit.WithResource("policy", policyID))
}
