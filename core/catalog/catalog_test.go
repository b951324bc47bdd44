// Package catalog - Static price table tests
package catalog

import (
	"testing"

	"github.com/shopspring/decimal"

	"finopsguard/core/types"
)

func TestInstanceKnownSKU(t *testing.T) {
	c := New()
	quote := c.Instance(types.CloudAWS, "t3.medium", "us-east-1")

	wantHourly := decimal.NewFromFloat(0.0416)
	if !quote.HourlyPrice.Equal(wantHourly) {
		t.Errorf("Expected hourly %s, got %s", wantHourly, quote.HourlyPrice)
	}
	wantMonthly := wantHourly.Mul(decimal.NewFromInt(types.HoursPerMonth))
	if !quote.MonthlyPrice.Equal(wantMonthly) {
		t.Errorf("Expected monthly %s, got %s", wantMonthly, quote.MonthlyPrice)
	}
	if quote.Confidence != types.ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s", quote.Confidence)
	}
}

func TestInstanceUnknownSKUFallsBack(t *testing.T) {
	c := New()
	quote := c.Instance(types.CloudAWS, "z99.gigantic", "us-east-1")

	if !quote.HourlyPrice.Equal(decimal.NewFromFloat(0.10)) {
		t.Errorf("Expected fallback hourly 0.10, got %s", quote.HourlyPrice)
	}
	if quote.Confidence != types.ConfidenceLow {
		t.Errorf("Expected low confidence on fallback, got %s", quote.Confidence)
	}
}

func TestInstanceRegionalPricingDiffers(t *testing.T) {
	c := New()
	east := c.Instance(types.CloudAWS, "t3.medium", "us-east-1")
	ireland := c.Instance(types.CloudAWS, "t3.medium", "eu-west-1")

	if east.HourlyPrice.Equal(ireland.HourlyPrice) {
		t.Error("Expected eu-west-1 to price differently from us-east-1")
	}
	if ireland.Confidence != types.ConfidenceHigh {
		t.Errorf("Expected high confidence in eu-west-1, got %s", ireland.Confidence)
	}
}

func TestDatabaseEngineVariants(t *testing.T) {
	c := New()

	plain := c.Database(types.CloudAWS, "db.t3.medium", "us-east-1")
	neptune := c.Database(types.CloudAWS, "db.t3.medium.neptune", "")
	docdb := c.Database(types.CloudAWS, "db.t3.medium.docdb", "")

	for name, q := range map[string]types.PriceQuote{"rds": plain, "neptune": neptune, "docdb": docdb} {
		if q.Confidence != types.ConfidenceHigh {
			t.Errorf("Expected high confidence for %s, got %s", name, q.Confidence)
		}
		if q.HourlyPrice.IsZero() {
			t.Errorf("Expected non-zero hourly for %s", name)
		}
	}
	if plain.HourlyPrice.Equal(neptune.HourlyPrice) {
		t.Error("Expected neptune variant to price differently from plain RDS")
	}
}

func TestStorageQuoteIsPerGBMonth(t *testing.T) {
	c := New()
	quote := c.Storage(types.CloudAWS, "standard", "us-east-1")

	if quote.Attrs["unit"] != "gb_month" {
		t.Errorf("Expected gb_month unit attr, got %v", quote.Attrs)
	}
	// A per-GB-month price should be well under a dollar.
	if quote.MonthlyPrice.GreaterThan(decimal.NewFromInt(1)) {
		t.Errorf("Per-GB price looks wrong: %s", quote.MonthlyPrice)
	}
}

func TestStorageUnknownTierFallsBack(t *testing.T) {
	c := New()
	quote := c.Storage(types.CloudGCP, "exotic-tier", "")
	if quote.Confidence != types.ConfidenceLow {
		t.Errorf("Expected low confidence for unknown tier, got %s", quote.Confidence)
	}
}

func TestLoadBalancerIsMonthlyFlat(t *testing.T) {
	c := New()
	quote := c.LoadBalancer(types.CloudAWS, "application", "us-east-1")

	if quote.Confidence != types.ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s", quote.Confidence)
	}
	// Monthly price should not be hourly x 730 rounding noise; it is the
	// registered flat rate.
	if quote.MonthlyPrice.LessThan(decimal.NewFromInt(10)) {
		t.Errorf("ALB monthly price looks too low: %s", quote.MonthlyPrice)
	}
}

func TestKubernetesControlPlane(t *testing.T) {
	c := New()

	eks := c.Kubernetes(types.CloudAWS, "default", "")
	if !eks.MonthlyPrice.Equal(decimal.NewFromFloat(73.0)) {
		t.Errorf("Expected EKS control plane at 73.00/month, got %s", eks.MonthlyPrice)
	}

	gke := c.Kubernetes(types.CloudGCP, "standard", "")
	if !gke.MonthlyPrice.Equal(decimal.NewFromFloat(73.0)) {
		t.Errorf("Expected GKE control plane at 73.00/month, got %s", gke.MonthlyPrice)
	}
}

func TestCosmosThroughputQuote(t *testing.T) {
	c := New()
	quote := c.Cosmos(types.CloudAzure, "provisioned", "")
	if quote.Attrs["unit"] != "100_rus" {
		t.Errorf("Expected 100_rus unit attr, got %v", quote.Attrs)
	}
	if quote.HourlyPrice.IsZero() {
		t.Error("Expected non-zero hourly RU block price")
	}
}

func TestInstanceSKUsEnumeration(t *testing.T) {
	c := New()

	all := c.InstanceSKUs(types.CloudAWS, "")
	if len(all) == 0 {
		t.Fatal("Expected non-empty SKU list")
	}
	for i := 1; i < len(all); i++ {
		if all[i-1] > all[i] {
			t.Fatalf("SKU list not sorted at %d: %s > %s", i, all[i-1], all[i])
		}
	}

	found := false
	for _, sku := range c.InstanceSKUs(types.CloudAWS, "us-east-1") {
		if sku == "t3.medium" {
			found = true
		}
	}
	if !found {
		t.Error("Expected t3.medium in us-east-1 SKU list")
	}
}
