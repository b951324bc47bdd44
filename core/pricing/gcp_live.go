// Package pricing - GCP live pricing adapter
// Reads Cloud Billing SKUs for the Compute Engine service and matches
// by description substring. The first match in SKU list order wins.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

// computeEngineServiceID is the Cloud Billing service ID for Compute Engine.
const computeEngineServiceID = "6F81-5844-456A"

const gcpBillingBaseURL = "https://cloudbilling.googleapis.com/v1"

// GCPLive prices machine types against the Cloud Billing catalog API.
type GCPLive struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewGCPLive builds the live GCP pricing source.
func NewGCPLive(apiKey string) *GCPLive {
	return &GCPLive{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    gcpBillingBaseURL,
	}
}

// Cloud identifies the provider.
func (s *GCPLive) Cloud() types.Cloud { return types.CloudGCP }

type gcpSKUList struct {
	SKUs []struct {
		Description string `json:"description"`
		PricingInfo []struct {
			PricingExpression struct {
				TieredRates []struct {
					UnitPrice struct {
						Units string `json:"units"`
						Nanos int64  `json:"nanos"`
					} `json:"unitPrice"`
				} `json:"tieredRates"`
			} `json:"pricingExpression"`
		} `json:"pricingInfo"`
	} `json:"skus"`
	NextPageToken string `json:"nextPageToken"`
}

// Instance fetches a machine type price by description match.
func (s *GCPLive) Instance(ctx context.Context, sku, region string) (types.PriceQuote, error) {
	return s.matchSKU(ctx, sku, region)
}

// Database fetches a Cloud SQL tier price by description match.
func (s *GCPLive) Database(ctx context.Context, sku, region string) (types.PriceQuote, error) {
	return s.matchSKU(ctx, sku, region)
}

func (s *GCPLive) matchSKU(ctx context.Context, sku, region string) (types.PriceQuote, error) {
	url := fmt.Sprintf("%s/services/%s/skus?key=%s", s.baseURL, computeEngineServiceID, s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.PriceQuote{}, errors.Pricing("building gcp billing request", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.PriceQuote{}, errors.Pricing("gcp billing api call", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.PriceQuote{}, errors.Newf(errors.TypePricing, "gcp billing api returned %d", resp.StatusCode)
	}

	var list gcpSKUList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return types.PriceQuote{}, errors.Pricing("decoding gcp billing response", err)
	}

	skuLower := strings.ToLower(sku)
	regionLower := strings.ToLower(region)
	for _, item := range list.SKUs {
		desc := strings.ToLower(item.Description)
		if !strings.Contains(desc, skuLower) || !strings.Contains(desc, regionLower) {
			continue
		}
		if len(item.PricingInfo) == 0 {
			continue
		}
		rates := item.PricingInfo[0].PricingExpression.TieredRates
		if len(rates) == 0 {
			continue
		}
		unit := rates[0].UnitPrice
		units, err := decimal.NewFromString(unit.Units)
		if err != nil {
			units = decimal.Zero
		}
		hourly := units.Add(decimal.New(unit.Nanos, -9))
		if hourly.IsPositive() {
			return types.HourlyQuote(hourly, types.ConfidenceHigh), nil
		}
	}
	return types.PriceQuote{}, errors.Newf(errors.TypePricing, "no gcp sku matched %s in %s", sku, region)
}
