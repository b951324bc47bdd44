// Package catalog - Azure static price tables
// Pay-as-you-go Linux pricing, eastus baseline.
package catalog

import "finopsguard/core/types"

func registerAzure(c *Catalog) {
	azure := types.CloudAzure

	vms := map[string]float64{
		"Standard_B1s":    0.0104,
		"Standard_B2s":    0.0416,
		"Standard_B2ms":   0.0832,
		"Standard_D2s_v3": 0.096,
		"Standard_D4s_v3": 0.192,
		"Standard_D8s_v3": 0.384,
		"Standard_F2s_v2": 0.085,
		"Standard_F4s_v2": 0.169,
		"Standard_E2s_v3": 0.126,
	}
	for sku, price := range vms {
		c.addHourly(types.QuoteInstance, azure, sku, price)
	}

	// Azure SQL DTU tiers price monthly
	sql := map[string]float64{
		"Basic": 4.90,
		"S0":    14.70,
		"S1":    29.40,
		"S2":    73.50,
		"P1":    455.00,
	}
	for sku, price := range sql {
		c.addMonthly(types.QuoteDatabase, azure, sku, price)
	}

	// SQL Managed Instance, vCore hourly
	c.addHourly(types.QuoteDatabase, azure, "GP_Gen5_4", 1.016)
	c.addHourly(types.QuoteDatabase, azure, "GP_Gen5_8", 2.032)

	// App Service plans
	c.addHourly(types.QuoteInstance, azure, "B1", 0.018)
	c.addHourly(types.QuoteInstance, azure, "B2", 0.036)
	c.addHourly(types.QuoteInstance, azure, "S1", 0.10)
	c.addHourly(types.QuoteInstance, azure, "P1v2", 0.146)

	// Azure Cache for Redis
	c.addHourly(types.QuoteRedis, azure, "C0", 0.022)
	c.addHourly(types.QuoteRedis, azure, "C1", 0.055)
	c.addHourly(types.QuoteRedis, azure, "C2", 0.088)
	c.addHourly(types.QuoteRedis, azure, "P1", 0.555)

	// Blob storage, per GB-month (tier_replication keys lowered)
	c.addMonthly(types.QuoteStorage, azure, "standard_lrs", 0.0184)
	c.addMonthly(types.QuoteStorage, azure, "standard_grs", 0.0368)
	c.addMonthly(types.QuoteStorage, azure, "premium_lrs", 0.15)

	// AKS: free control plane; the standard tier carries the uptime SLA fee
	c.addMonthly(types.QuoteKubernetes, azure, "free", 0.0)
	c.addMonthly(types.QuoteKubernetes, azure, "default", 0.0)
	c.addMonthly(types.QuoteKubernetes, azure, "standard", 73.0)

	// Azure LB standard
	c.addMonthly(types.QuoteLoadBalancer, azure, "standard", 18.25)

	// Functions consumption plan assumption
	c.addMonthly(types.QuoteFunctions, azure, "consumption", 0.20)

	// Cosmos DB provisioned throughput, per 100 RU/s
	c.addHourly(types.QuoteCosmos, azure, "provisioned-100rus", 0.008)
}
