// Package simulator maps a canonical resource model onto the pricing
// catalog and produces the pre-policy cost response.
// Simulation is strictly in-memory apart from price resolution.
package simulator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"finopsguard/core/pricing"
	"finopsguard/core/types"
)

// DynamoDB provisioned capacity hourly rates.
var (
	dynamoReadHourly  = decimal.NewFromFloat(0.00013)
	dynamoWriteHourly = decimal.NewFromFloat(0.00065)
)

// storageAssumptionGB is the default bucket size when the document
// declares none.
const storageAssumptionGB = 100

// Simulator prices canonical resource models.
type Simulator struct {
	resolver *pricing.Resolver
}

// New creates a simulator over the given price resolver.
func New(resolver *pricing.Resolver) *Simulator {
	return &Simulator{resolver: resolver}
}

// Simulate computes per-resource monthly costs and totals. The returned
// response has empty risk flags and no policy evaluation; the
// orchestrator fills those in later.
func (s *Simulator) Simulate(ctx context.Context, model *types.CanonicalResourceModel) *types.CheckResponse {
	resp := &types.CheckResponse{
		BreakdownByResource: []types.ResourceBreakdownItem{},
		RiskFlags:           []string{},
		Recommendations:     []string{},
		PricingConfidence:   types.ConfidenceHigh,
		DurationMS:          1,
	}

	for _, resource := range model.Resources {
		if resource.Count <= 0 {
			// Declared but not deployed
			continue
		}
		item, confidence, ok := s.costResource(ctx, resource)
		if !ok {
			continue
		}
		resp.BreakdownByResource = append(resp.BreakdownByResource, item)
		resp.PricingConfidence = resp.PricingConfidence.Min(confidence)
	}

	total := 0.0
	for _, item := range resp.BreakdownByResource {
		total += item.MonthlyCost
	}
	resp.EstimatedMonthlyCost = round2(total)
	resp.EstimatedFirstWeekCost = round2(resp.EstimatedMonthlyCost / types.WeeksPerMonth)
	return resp
}

// costResource dispatches on the canonical type. The third return is
// false for types outside the priced universe.
func (s *Simulator) costResource(ctx context.Context, r types.CanonicalResource) (types.ResourceBreakdownItem, types.Confidence, bool) {
	cloud := r.Cloud()
	count := decimal.NewFromInt(int64(r.Count))
	item := types.ResourceBreakdownItem{ResourceID: r.ID}

	var quote types.PriceQuote
	var monthly decimal.Decimal

	switch r.Type {
	case "aws_instance", "aws_autoscaling_group", "gcp_compute_instance",
		"azurerm_virtual_machine", "aws_redshift_cluster",
		"aws_opensearch_domain", "aws_msk_cluster", "azurerm_app_service_plan":
		quote = s.resolver.Instance(ctx, cloud, r.Size, r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "gcp_spanner_instance":
		quote = s.resolver.Instance(ctx, cloud, "node", r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "gcp_cloud_run":
		quote = s.resolver.Instance(ctx, cloud, "cloud-run-2vcpu-4gb", r.Region)
		monthly = quote.MonthlyPrice.Mul(count)
		item.Notes = append(item.Notes, "Estimated 2 vCPU, 4GB memory, 720h/month")

	case "aws_db_instance", "gcp_sql_database_instance",
		"azurerm_sql_database", "azurerm_sql_managed_instance":
		quote = s.resolver.Database(ctx, cloud, r.Size, r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "aws_neptune_cluster_instance":
		quote = s.resolver.Database(ctx, cloud, r.Size+".neptune", r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "aws_docdb_cluster_instance":
		quote = s.resolver.Database(ctx, cloud, r.Size+".docdb", r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "aws_elasticache_cluster", "gcp_redis_instance", "azurerm_redis_cache":
		quote = s.resolver.Redis(ctx, cloud, r.Size, r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "aws_s3_bucket", "gcp_storage_bucket", "azurerm_storage_account":
		quote = s.resolver.Storage(ctx, cloud, storageTier(r), r.Region)
		monthly = quote.MonthlyPrice.Mul(decimal.NewFromInt(storageAssumptionGB)).Mul(count)
		item.Notes = append(item.Notes, fmt.Sprintf("Estimated %dGB per bucket", storageAssumptionGB))

	case "aws_lb":
		quote = s.resolver.LoadBalancer(ctx, cloud, r.Size, r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "aws_eks_cluster":
		quote = s.resolver.Kubernetes(ctx, cloud, "default", r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "gcp_gke_cluster", "azurerm_kubernetes_cluster":
		quote = s.resolver.Kubernetes(ctx, cloud, r.Size, r.Region)
		monthly = quote.MonthlyPrice.Mul(count)

	case "aws_dynamodb_table":
		return s.costDynamoDB(r)

	case "aws_lambda_function", "gcp_cloud_function", "azurerm_function_app":
		quote = s.resolver.Functions(ctx, cloud, r.Size, r.Region)
		monthly = quote.MonthlyPrice.Mul(count)
		item.Notes = append(item.Notes, "Estimated 1M invocations, 100 GB-s per function")

	case "azurerm_cosmosdb_account":
		quote = s.resolver.Cosmos(ctx, cloud, r.Size, r.Region)
		throughput := metaInt(r.Metadata, "throughput", 400)
		blocks := decimal.NewFromInt(int64(throughput)).Div(decimal.NewFromInt(100))
		monthly = quote.HourlyPrice.Mul(blocks).
			Mul(decimal.NewFromInt(types.HoursPerMonth)).Mul(count)
		item.Notes = append(item.Notes, fmt.Sprintf("Provisioned %d RU/s", throughput))

	default:
		return item, types.ConfidenceHigh, false
	}

	item.MonthlyCost = roundDecimal2(monthly)
	return item, quote.Confidence, true
}

// costDynamoDB handles the billing-mode split: on-demand tables emit a
// zero-cost line, provisioned tables price from declared capacities.
func (s *Simulator) costDynamoDB(r types.CanonicalResource) (types.ResourceBreakdownItem, types.Confidence, bool) {
	item := types.ResourceBreakdownItem{ResourceID: r.ID}

	billing := metaString(r.Metadata, "billing_mode", "PROVISIONED")
	if strings.EqualFold(billing, "PAY_PER_REQUEST") {
		item.MonthlyCost = 0
		item.Notes = append(item.Notes, "ppr model not estimated")
		return item, types.ConfidenceMedium, true
	}

	read := decimal.NewFromInt(int64(metaInt(r.Metadata, "read_capacity", 5)))
	write := decimal.NewFromInt(int64(metaInt(r.Metadata, "write_capacity", 5)))
	hourly := read.Mul(dynamoReadHourly).Add(write.Mul(dynamoWriteHourly))
	monthly := hourly.Mul(decimal.NewFromInt(types.HoursPerMonth)).
		Mul(decimal.NewFromInt(int64(r.Count)))

	item.MonthlyCost = roundDecimal2(monthly)
	item.Notes = append(item.Notes, "Provisioned capacity pricing")
	return item, types.ConfidenceHigh, true
}

// ModelHash is the cache key for a simulated model.
func ModelHash(model *types.CanonicalResourceModel) string {
	data, _ := json.Marshal(model)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func storageTier(r types.CanonicalResource) string {
	if r.Size != "" {
		return r.Size
	}
	return "standard"
}

func metaString(meta map[string]interface{}, key, def string) string {
	if v, ok := meta[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return def
}

func metaInt(meta map[string]interface{}, key string, def int) int {
	if v, ok := meta[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundDecimal2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
