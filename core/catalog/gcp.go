// Package catalog - GCP static price tables
// On-demand pricing, us-central1 baseline; GCP machine types price the
// same across the priced region set so keys are region-free.
package catalog

import "finopsguard/core/types"

func registerGCP(c *Catalog) {
	gcp := types.CloudGCP

	compute := map[string]float64{
		"e2-micro":      0.008,
		"e2-small":      0.017,
		"e2-medium":     0.034,
		"e2-standard-2": 0.067,
		"e2-standard-4": 0.134,
		"e2-standard-8": 0.268,
		"n1-standard-1": 0.0475,
		"n1-standard-2": 0.095,
		"n1-standard-4": 0.19,
		"n2-standard-2": 0.097,
		"n2-standard-4": 0.194,
		"c2-standard-4": 0.209,
	}
	for sku, price := range compute {
		c.addHourly(types.QuoteInstance, gcp, sku, price)
	}

	cloudsql := map[string]float64{
		"db-f1-micro":      0.015,
		"db-g1-small":      0.05,
		"db-n1-standard-1": 0.0965,
		"db-n1-standard-2": 0.193,
		"db-n1-standard-4": 0.386,
		"db-custom-2-7680": 0.136,
	}
	for sku, price := range cloudsql {
		c.addHourly(types.QuoteDatabase, gcp, sku, price)
	}

	// Spanner node
	c.addHourly(types.QuoteInstance, gcp, "node", 0.90)

	// Memorystore, per tier and GB captured in the SKU
	c.addHourly(types.QuoteRedis, gcp, "BASIC-1GB", 0.049)
	c.addHourly(types.QuoteRedis, gcp, "BASIC-5GB", 0.245)
	c.addHourly(types.QuoteRedis, gcp, "STANDARD_HA-1GB", 0.066)
	c.addHourly(types.QuoteRedis, gcp, "STANDARD_HA-5GB", 0.33)

	// GCS, per GB-month
	c.addMonthly(types.QuoteStorage, gcp, "standard", 0.020)
	c.addMonthly(types.QuoteStorage, gcp, "nearline", 0.010)
	c.addMonthly(types.QuoteStorage, gcp, "coldline", 0.004)

	// GKE management fee
	c.addMonthly(types.QuoteKubernetes, gcp, "default", 73.0)
	c.addMonthly(types.QuoteKubernetes, gcp, "standard", 73.0)
	c.addMonthly(types.QuoteKubernetes, gcp, "autopilot", 73.0)

	// Forwarding rule base for an external LB
	c.addMonthly(types.QuoteLoadBalancer, gcp, "external", 18.25)

	// Cloud Functions under the standard consumption assumption
	c.addMonthly(types.QuoteFunctions, gcp, "consumption", 0.40)

	// Cloud Run assumed shape: 2 vCPU, 4 GB, 720 h/month
	c.addMonthly(types.QuoteInstance, gcp, "cloud-run-2vcpu-4gb", 52.40)
}
