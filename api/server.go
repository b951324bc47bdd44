// Package api - Thin HTTP layer
// The API is only responsible for input ingestion, orchestration, and
// output serialization. It never performs cost or policy logic.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"finopsguard/adapters/cache"
	"finopsguard/adapters/storage"
	"finopsguard/core/audit"
	"finopsguard/core/engine"
	"finopsguard/core/policy"
	"finopsguard/core/pricing"
	"finopsguard/core/usage"
	"finopsguard/core/webhook"
	"finopsguard/internal/errors"
	"finopsguard/internal/logging"
)

// Deps carries everything the API layer delegates to.
type Deps struct {
	Engine     *engine.Engine
	Policies   *policy.Store
	Resolver   *pricing.Resolver
	Webhooks   webhook.Store
	Deliveries webhook.DeliveryStore
	Dispatcher *webhook.Dispatcher
	Emitter    *webhook.Emitter
	Auditor    *audit.Logger
	Usage      *usage.Factory
	DB         *storage.Store
	Cache      cache.Cache
}

// Server is the HTTP server.
type Server struct {
	router *mux.Router
	deps   Deps
	log    *zap.Logger
}

// NewServer builds the router with all routes and middleware.
func NewServer(deps Deps) *Server {
	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
		log:    logging.Named("api"),
	}
	s.registerRoutes()
	return s
}

// Handler returns the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = s.deps.Auditor.Middleware(h)
	h = metricsMiddleware(h)
	return h
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/mcp", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/mcp/checkCostImpact", s.handleCheckCostImpact).Methods(http.MethodPost)
	s.router.HandleFunc("/mcp/evaluatePolicy", s.handleEvaluatePolicy).Methods(http.MethodPost)
	s.router.HandleFunc("/mcp/getPriceCatalog", s.handleGetPriceCatalog).Methods(http.MethodPost)
	s.router.HandleFunc("/mcp/listRecentAnalyses", s.handleListRecentAnalyses).Methods(http.MethodPost)

	s.router.HandleFunc("/mcp/policies", s.handleListPolicies).Methods(http.MethodGet)
	s.router.HandleFunc("/mcp/policies", s.handleCreatePolicy).Methods(http.MethodPost)
	s.router.HandleFunc("/mcp/policies/{id}", s.handleGetPolicy).Methods(http.MethodGet)
	s.router.HandleFunc("/mcp/policies/{id}", s.handleUpdatePolicy).Methods(http.MethodPut)
	s.router.HandleFunc("/mcp/policies/{id}", s.handleDeletePolicy).Methods(http.MethodDelete)

	s.router.HandleFunc("/webhooks", s.handleCreateWebhook).Methods(http.MethodPost)
	s.router.HandleFunc("/webhooks", s.handleListWebhooks).Methods(http.MethodGet)
	s.router.HandleFunc("/webhooks/{id}", s.handleGetWebhook).Methods(http.MethodGet)
	s.router.HandleFunc("/webhooks/{id}", s.handleUpdateWebhook).Methods(http.MethodPut)
	s.router.HandleFunc("/webhooks/{id}", s.handleDeleteWebhook).Methods(http.MethodDelete)
	s.router.HandleFunc("/webhooks/{id}/deliveries", s.handleListDeliveries).Methods(http.MethodGet)
	s.router.HandleFunc("/webhooks/{id}/test", s.handleTestWebhook).Methods(http.MethodPost)

	s.router.HandleFunc("/usage/summary", s.handleUsageSummary).Methods(http.MethodGet)

	s.router.HandleFunc("/audit/events", s.handleQueryAudit).Methods(http.MethodGet)
	s.router.HandleFunc("/audit/compliance-report", s.handleComplianceReport).Methods(http.MethodGet)

	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// handleIndex enumerates the MCP operation surface.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"endpoints": []string{
			"POST /mcp/checkCostImpact",
			"POST /mcp/evaluatePolicy",
			"POST /mcp/getPriceCatalog",
			"POST /mcp/listRecentAnalyses",
			"GET|POST /mcp/policies",
			"GET|PUT|DELETE /mcp/policies/{id}",
		},
	}, http.StatusOK)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{"api": "ok"}
	if s.deps.DB.Healthy(r.Context()) {
		components["database"] = "ok"
	} else {
		components["database"] = "unavailable"
	}
	if s.deps.Cache.Healthy(r.Context()) {
		components["cache"] = "ok"
	} else {
		components["cache"] = "unavailable"
	}
	s.writeJSON(w, map[string]interface{}{
		"status":     "ok",
		"components": components,
	}, http.StatusOK)
}

func (s *Server) writeJSON(w http.ResponseWriter, payload interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("encoding response failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, slug, message string, status int) {
	s.writeJSON(w, map[string]string{
		"error":   slug,
		"message": message,
	}, status)
}

// writeDomainError maps a domain error onto the wire contract.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsType(err, errors.TypeValidation):
		s.writeError(w, errors.SlugOf(err, "invalid_request"), err.Error(), http.StatusBadRequest)
	case errors.IsType(err, errors.TypeNotFound):
		s.writeError(w, "not_found", err.Error(), http.StatusNotFound)
	default:
		s.log.Error("request failed", zap.Error(err))
		s.writeError(w, "internal_error", "internal error", http.StatusInternalServerError)
	}
}
