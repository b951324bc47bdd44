// Package api - MCP operation handlers
package api

import (
	"encoding/json"
	"net/http"

	"finopsguard/core/types"
)

func (s *Server) handleCheckCostImpact(w http.ResponseWriter, r *http.Request) {
	var req types.CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid_request", "request body is not valid JSON", http.StatusBadRequest)
		return
	}

	resp, err := s.deps.Engine.Check(r.Context(), &req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, resp, http.StatusOK)
}

func (s *Server) handleEvaluatePolicy(w http.ResponseWriter, r *http.Request) {
	var req types.PolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid_request", "request body is not valid JSON", http.StatusBadRequest)
		return
	}

	result, err := s.deps.Engine.EvaluatePolicy(r.Context(), &req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

// priceQuery selects a slice of the static catalog.
type priceQuery struct {
	Cloud         string   `json:"cloud"`
	Region        string   `json:"region,omitempty"`
	InstanceTypes []string `json:"instance_types,omitempty"`
}

type priceCatalogItem struct {
	SKU          string `json:"sku"`
	HourlyPrice  string `json:"hourly_price"`
	MonthlyPrice string `json:"monthly_price"`
	Confidence   string `json:"confidence"`
}

func (s *Server) handleGetPriceCatalog(w http.ResponseWriter, r *http.Request) {
	var query priceQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.writeError(w, "invalid_request", "request body is not valid JSON", http.StatusBadRequest)
		return
	}
	cloud := types.Cloud(query.Cloud)
	if cloud != types.CloudAWS && cloud != types.CloudGCP && cloud != types.CloudAzure {
		s.writeError(w, "invalid_request", "cloud must be aws, gcp, or azure", http.StatusBadRequest)
		return
	}

	skus := query.InstanceTypes
	if len(skus) == 0 {
		skus = s.deps.Resolver.Catalog().InstanceSKUs(cloud, query.Region)
	}

	items := make([]priceCatalogItem, 0, len(skus))
	for _, sku := range skus {
		quote := s.deps.Resolver.Instance(r.Context(), cloud, sku, query.Region)
		items = append(items, priceCatalogItem{
			SKU:          sku,
			HourlyPrice:  quote.HourlyPrice.StringFixed(4),
			MonthlyPrice: quote.MonthlyPrice.StringFixed(2),
			Confidence:   string(quote.Confidence),
		})
	}
	s.writeJSON(w, map[string]interface{}{
		"cloud":  query.Cloud,
		"region": query.Region,
		"items":  items,
	}, http.StatusOK)
}

type listAnalysesRequest struct {
	Limit int `json:"limit,omitempty"`
	After int `json:"after,omitempty"`
}

func (s *Server) handleListRecentAnalyses(w http.ResponseWriter, r *http.Request) {
	var req listAnalysesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, "invalid_request", "request body is not valid JSON", http.StatusBadRequest)
		return
	}
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records := s.deps.Engine.History().Recent(limit, req.After)
	next := req.After + len(records)
	s.writeJSON(w, map[string]interface{}{
		"analyses": records,
		"count":    len(records),
		"after":    next,
	}, http.StatusOK)
}
