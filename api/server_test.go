// Package api - HTTP surface tests
package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finopsguard/adapters/cache"
	"finopsguard/core/audit"
	"finopsguard/core/catalog"
	"finopsguard/core/engine"
	"finopsguard/core/parser"
	"finopsguard/core/policy"
	"finopsguard/core/pricing"
	"finopsguard/core/simulator"
	"finopsguard/core/types"
	"finopsguard/core/webhook"
	"finopsguard/internal/config"
)

const baselineTF = `
provider "aws" {
  region = "us-east-1"
}

resource "aws_instance" "web" {
  instance_type = "t3.medium"
}
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	c := cache.NewDisabled()
	resolver := pricing.NewResolver(catalog.New(), c, config.PricingConfig{FallbackToStatic: true})

	store := policy.NewStore(nil)
	policy.SeedDefaults(store)

	webhooks := webhook.NewMemoryStore()
	deliveries := webhook.NewMemoryDeliveryStore()
	dispatcher := webhook.NewDispatcher(deliveries)
	emitter := webhook.NewEmitter(webhooks, deliveries, dispatcher)
	auditor := audit.NewLogger(config.AuditConfig{Enabled: true, DBLogging: true}, audit.NewMemoryEventStore())

	eng := engine.New(
		parser.New(),
		simulator.New(resolver),
		policy.NewEngine(store),
		store,
		engine.NewHistory(nil),
		emitter,
		auditor,
		c,
	)

	srv := NewServer(Deps{
		Engine:     eng,
		Policies:   store,
		Resolver:   resolver,
		Webhooks:   webhooks,
		Deliveries: deliveries,
		Dispatcher: dispatcher,
		Emitter:    emitter,
		Auditor:    auditor,
		Cache:      c,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewReader(mustJSON(t, body)))
	require.NoError(t, err)
	return resp
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestCheckCostImpactEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/mcp/checkCostImpact", types.CheckRequest{
		IaCType:     "terraform",
		IaCPayload:  base64.StdEncoding.EncodeToString([]byte(baselineTF)),
		Environment: "dev",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body types.CheckResponse
	decodeBody(t, resp, &body)
	assert.InDelta(t, 30.37, body.EstimatedMonthlyCost, 0.001)
	assert.InDelta(t, 6.99, body.EstimatedFirstWeekCost, 0.001)
	assert.Equal(t, types.ConfidenceHigh, body.PricingConfidence)
	require.NotNil(t, body.PolicyEval)
	assert.Equal(t, "pass", body.PolicyEval.Status)
	require.Len(t, body.BreakdownByResource, 1)
	assert.Equal(t, "web-ec2-us-east-1", body.BreakdownByResource[0].ResourceID)
}

func TestCheckCostImpactValidationErrors(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		name     string
		body     interface{}
		wantSlug string
	}{
		{"unknown format", types.CheckRequest{IaCType: "helm", IaCPayload: "e30="}, "invalid_request"},
		{"missing payload", types.CheckRequest{IaCType: "terraform"}, "invalid_request"},
		{"bad base64", types.CheckRequest{IaCType: "terraform", IaCPayload: "!!!"}, "invalid_payload_encoding"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/mcp/checkCostImpact", tc.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var errBody map[string]string
			decodeBody(t, resp, &errBody)
			assert.Equal(t, tc.wantSlug, errBody["error"])
			assert.NotEmpty(t, errBody["message"])
		})
	}
}

func TestCheckCostImpactMalformedJSON(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/mcp/checkCostImpact", "application/json", bytes.NewReader([]byte("{broken")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPriceCatalogEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/mcp/getPriceCatalog", priceQuery{
		Cloud:         "aws",
		Region:        "us-east-1",
		InstanceTypes: []string{"t3.medium"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Cloud  string             `json:"cloud"`
		Region string             `json:"region"`
		Items  []priceCatalogItem `json:"items"`
	}
	decodeBody(t, resp, &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "t3.medium", body.Items[0].SKU)
	assert.Equal(t, "0.0416", body.Items[0].HourlyPrice)
	assert.Equal(t, "30.37", body.Items[0].MonthlyPrice)
	assert.Equal(t, "high", body.Items[0].Confidence)
}

func TestPriceCatalogRejectsUnknownCloud(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/mcp/getPriceCatalog", priceQuery{Cloud: "oracle"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPoliciesCRUD(t *testing.T) {
	ts := newTestServer(t)
	budget := 500.0

	created := postJSON(t, ts.URL+"/mcp/policies", types.Policy{
		ID:          "team_budget",
		Name:        "Team Budget",
		Budget:      &budget,
		OnViolation: types.ActionAdvisory,
		Enabled:     true,
	})
	assert.Equal(t, http.StatusCreated, created.StatusCode)
	created.Body.Close()

	get, err := http.Get(ts.URL + "/mcp/policies/team_budget")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, get.StatusCode)
	var fetched types.Policy
	decodeBody(t, get, &fetched)
	assert.Equal(t, "Team Budget", fetched.Name)
	require.NotNil(t, fetched.Budget)
	assert.Equal(t, 500.0, *fetched.Budget)

	list, err := http.Get(ts.URL + "/mcp/policies")
	require.NoError(t, err)
	var listBody struct {
		Policies []types.Policy `json:"policies"`
	}
	decodeBody(t, list, &listBody)
	assert.Len(t, listBody.Policies, 4, "three seeded defaults plus the new one")

	update, err := http.NewRequest(http.MethodPut, ts.URL+"/mcp/policies/team_budget",
		bytes.NewReader(mustJSON(t, types.Policy{
			Name:        "Tighter Budget",
			Budget:      &budget,
			OnViolation: types.ActionBlock,
			Enabled:     true,
		})))
	require.NoError(t, err)
	updResp, err := http.DefaultClient.Do(update)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, updResp.StatusCode)
	updResp.Body.Close()

	del, err := http.NewRequest(http.MethodDelete, ts.URL+"/mcp/policies/team_budget", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, delResp.StatusCode)
	delResp.Body.Close()

	missing, err := http.Get(ts.URL + "/mcp/policies/team_budget")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
	var errBody map[string]string
	decodeBody(t, missing, &errBody)
	assert.Equal(t, "not_found", errBody["error"])
}

func TestEvaluatePolicyEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/mcp/evaluatePolicy", types.PolicyRequest{
		IaCType:     "terraform",
		IaCPayload:  base64.StdEncoding.EncodeToString([]byte(baselineTF)),
		PolicyID:    "default_monthly_budget",
		Environment: "dev",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result types.PolicyEvaluationResult
	decodeBody(t, resp, &result)
	assert.Equal(t, types.PolicyStatusPass, result.OverallStatus)

	notFound := postJSON(t, ts.URL+"/mcp/evaluatePolicy", types.PolicyRequest{
		IaCType:    "terraform",
		IaCPayload: "e30=",
		PolicyID:   "ghost",
	})
	notFound.Body.Close()
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
}

func TestListRecentAnalysesEndpoint(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 3; i++ {
		resp := postJSON(t, ts.URL+"/mcp/checkCostImpact", types.CheckRequest{
			IaCType:     "terraform",
			IaCPayload:  base64.StdEncoding.EncodeToString([]byte(baselineTF)),
			Environment: "dev",
		})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := postJSON(t, ts.URL+"/mcp/listRecentAnalyses", map[string]int{"limit": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Analyses []engine.AnalysisRecord `json:"analyses"`
		Count    int                     `json:"count"`
		After    int                     `json:"after"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, 2, body.After)
	require.Len(t, body.Analyses, 2)
	assert.Equal(t, "terraform", body.Analyses[0].IaCType)
	assert.NotNil(t, body.Analyses[0].Response)
}

func TestWebhookLifecycle(t *testing.T) {
	ts := newTestServer(t)

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer endpoint.Close()

	created := postJSON(t, ts.URL+"/webhooks", types.Webhook{
		Name:    "ci",
		URL:     endpoint.URL,
		Secret:  "hush",
		Enabled: true,
		Events:  []types.EventType{types.EventAnalysisCompleted},
	})
	require.Equal(t, http.StatusCreated, created.StatusCode)
	var hook types.Webhook
	decodeBody(t, created, &hook)
	require.NotEmpty(t, hook.ID)
	assert.Equal(t, 30, hook.TimeoutSeconds, "defaults applied")
	assert.Equal(t, 3, hook.RetryAttempts)
	assert.Equal(t, 60, hook.RetryDelaySeconds)

	get, err := http.Get(ts.URL + "/webhooks/" + hook.ID)
	require.NoError(t, err)
	var fetched types.Webhook
	decodeBody(t, get, &fetched)
	assert.Empty(t, fetched.Secret, "secret never leaves the server")

	test := postJSON(t, ts.URL+"/webhooks/"+hook.ID+"/test", map[string]string{})
	require.Equal(t, http.StatusOK, test.StatusCode)
	var testBody struct {
		Delivered bool                  `json:"delivered"`
		Delivery  types.WebhookDelivery `json:"delivery"`
	}
	decodeBody(t, test, &testBody)
	assert.True(t, testBody.Delivered)
	assert.Equal(t, types.DeliveryDelivered, testBody.Delivery.Status)

	deliveries, err := http.Get(ts.URL + "/webhooks/" + hook.ID + "/deliveries")
	require.NoError(t, err)
	var delBody struct {
		Deliveries []types.WebhookDelivery `json:"deliveries"`
	}
	decodeBody(t, deliveries, &delBody)
	assert.Len(t, delBody.Deliveries, 1)

	del, err := http.NewRequest(http.MethodDelete, ts.URL+"/webhooks/"+hook.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Equal(t, http.StatusOK, delResp.StatusCode)

	missing, err := http.Get(ts.URL + "/webhooks/" + hook.ID)
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestWebhookCreateRejectsBadURL(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/webhooks", types.Webhook{Name: "bad", URL: "ftp://nope"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebhookDeliveriesUnknownWebhook(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/webhooks/ghost/deliveries")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthzShape(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Components["api"])
	assert.Equal(t, "unavailable", body.Components["database"], "no database configured")
	assert.Equal(t, "unavailable", body.Components["cache"], "cache disabled")
}

func TestAuditEventsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/mcp/checkCostImpact", types.CheckRequest{
		IaCType:     "terraform",
		IaCPayload:  base64.StdEncoding.EncodeToString([]byte(baselineTF)),
		Environment: "dev",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events, err := http.Get(ts.URL + "/audit/events?event_type=api.request")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, events.StatusCode)

	var result types.AuditQueryResult
	decodeBody(t, events, &result)
	require.GreaterOrEqual(t, result.Total, 1)
	assert.Equal(t, types.AuditAPIRequest, result.Events[0].EventType)
	assert.Equal(t, "POST /mcp/checkCostImpact", result.Events[0].Action)
	require.NotNil(t, result.Events[0].HTTP)
	assert.Equal(t, http.StatusOK, result.Events[0].HTTP.Status)
}

func TestComplianceReportEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/audit/compliance-report")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report types.ComplianceReport
	decodeBody(t, resp, &report)
	assert.Equal(t, "compliant", report.ComplianceStatus)
}

func TestUsageSummaryUnavailableWhenUnconfigured(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/usage/summary?cloud=aws")
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var errBody map[string]string
	decodeBody(t, resp, &errBody)
	assert.Equal(t, "unavailable", errBody["error"])
}

func TestIndexListsOperations(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/mcp")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Endpoints []string `json:"endpoints"`
	}
	decodeBody(t, resp, &body)
	assert.Contains(t, body.Endpoints, "POST /mcp/checkCostImpact")
}
