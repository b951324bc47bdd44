// Package pricing - Azure live pricing adapter
// Reads the public Retail Prices API; no credentials required.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

const azureRetailPricesURL = "https://prices.azure.com/api/retail/prices"

// AzureLive prices ARM SKUs against the Retail Prices API.
type AzureLive struct {
	httpClient *http.Client
	baseURL    string
}

// NewAzureLive builds the live Azure pricing source.
func NewAzureLive() *AzureLive {
	return &AzureLive{
		httpClient: &http.Client{},
		baseURL:    azureRetailPricesURL,
	}
}

// Cloud identifies the provider.
func (s *AzureLive) Cloud() types.Cloud { return types.CloudAzure }

type azurePriceList struct {
	Items []struct {
		RetailPrice   float64 `json:"retailPrice"`
		UnitPrice     float64 `json:"unitPrice"`
		ArmSkuName    string  `json:"armSkuName"`
		ArmRegionName string  `json:"armRegionName"`
		UnitOfMeasure string  `json:"unitOfMeasure"`
	} `json:"Items"`
}

// Instance fetches a VM consumption price.
func (s *AzureLive) Instance(ctx context.Context, sku, region string) (types.PriceQuote, error) {
	return s.query(ctx, sku, region)
}

// Database fetches a managed database consumption price.
func (s *AzureLive) Database(ctx context.Context, sku, region string) (types.PriceQuote, error) {
	return s.query(ctx, sku, region)
}

func (s *AzureLive) query(ctx context.Context, sku, region string) (types.PriceQuote, error) {
	filter := fmt.Sprintf(
		"armSkuName eq '%s' and armRegionName eq '%s' and priceType eq 'Consumption'",
		sku, region,
	)
	endpoint := fmt.Sprintf("%s?currencyCode=USD&$filter=%s", s.baseURL, url.QueryEscape(filter))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.PriceQuote{}, errors.Pricing("building azure retail request", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return types.PriceQuote{}, errors.Pricing("azure retail api call", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.PriceQuote{}, errors.Newf(errors.TypePricing, "azure retail api returned %d", resp.StatusCode)
	}

	var list azurePriceList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return types.PriceQuote{}, errors.Pricing("decoding azure retail response", err)
	}

	for _, item := range list.Items {
		if item.UnitPrice <= 0 {
			continue
		}
		hourly := decimal.NewFromFloat(item.UnitPrice)
		return types.HourlyQuote(hourly, types.ConfidenceHigh), nil
	}
	return types.PriceQuote{}, errors.Newf(errors.TypePricing, "no azure price matched %s in %s", sku, region)
}
