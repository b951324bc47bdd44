// Package catalog - AWS static price tables
// On-demand Linux pricing, shared tenancy. EC2 is keyed {region}:{sku};
// a miss falls through to the generic $0.10/hr low-confidence default.
package catalog

import "finopsguard/core/types"

func registerAWS(c *Catalog) {
	aws := types.CloudAWS

	// EC2 on-demand, us-east-1
	useast1 := map[string]float64{
		"t2.micro":   0.0116,
		"t3.micro":   0.0104,
		"t3.small":   0.0208,
		"t3.medium":  0.0416,
		"t3.large":   0.0832,
		"t3.xlarge":  0.1664,
		"m5.large":   0.096,
		"m5.xlarge":  0.192,
		"m5.2xlarge": 0.384,
		"m5.4xlarge": 0.768,
		"c5.large":   0.085,
		"c5.xlarge":  0.17,
		"c5.2xlarge": 0.34,
		"r5.large":   0.126,
		"r5.xlarge":  0.252,
		"p3.2xlarge": 3.06,
		"g4dn.xlarge": 0.526,
	}
	for sku, price := range useast1 {
		c.addRegionalHourly(types.QuoteInstance, aws, "us-east-1", sku, price)
	}

	// us-west-2 tracks us-east-1 for the common families
	uswest2 := map[string]float64{
		"t3.micro":  0.0104,
		"t3.small":  0.0208,
		"t3.medium": 0.0416,
		"t3.large":  0.0832,
		"m5.large":  0.096,
		"m5.xlarge": 0.192,
		"c5.large":  0.085,
	}
	for sku, price := range uswest2 {
		c.addRegionalHourly(types.QuoteInstance, aws, "us-west-2", sku, price)
	}

	// eu-west-1 carries the usual European uplift
	euwest1 := map[string]float64{
		"t3.micro":  0.0114,
		"t3.small":  0.0228,
		"t3.medium": 0.0456,
		"m5.large":  0.107,
		"m5.xlarge": 0.214,
		"c5.large":  0.096,
	}
	for sku, price := range euwest1 {
		c.addRegionalHourly(types.QuoteInstance, aws, "eu-west-1", sku, price)
	}

	// RDS single-AZ
	rds := map[string]float64{
		"db.t3.micro":  0.017,
		"db.t3.small":  0.034,
		"db.t3.medium": 0.068,
		"db.t3.large":  0.136,
		"db.m5.large":  0.171,
		"db.m5.xlarge": 0.342,
		"db.r5.large":  0.25,
	}
	for sku, price := range rds {
		c.addHourly(types.QuoteDatabase, aws, sku, price)
	}

	// Neptune / DocumentDB instances price through the database table
	c.addHourly(types.QuoteDatabase, aws, "db.t3.medium.neptune", 0.093)
	c.addHourly(types.QuoteDatabase, aws, "db.r5.large.neptune", 0.348)
	c.addHourly(types.QuoteDatabase, aws, "db.t3.medium.docdb", 0.07568)
	c.addHourly(types.QuoteDatabase, aws, "db.r5.large.docdb", 0.277)

	// Redshift
	c.addHourly(types.QuoteInstance, aws, "dc2.large", 0.25)
	c.addHourly(types.QuoteInstance, aws, "dc2.8xlarge", 4.80)
	c.addHourly(types.QuoteInstance, aws, "ra3.xlplus", 1.086)

	// OpenSearch
	c.addHourly(types.QuoteInstance, aws, "t3.small.search", 0.036)
	c.addHourly(types.QuoteInstance, aws, "t3.medium.search", 0.073)
	c.addHourly(types.QuoteInstance, aws, "m5.large.search", 0.142)

	// MSK brokers
	c.addHourly(types.QuoteInstance, aws, "kafka.t3.small", 0.0456)
	c.addHourly(types.QuoteInstance, aws, "kafka.m5.large", 0.21)
	c.addHourly(types.QuoteInstance, aws, "kafka.m5.xlarge", 0.42)

	// ElastiCache
	cache := map[string]float64{
		"cache.t3.micro":  0.017,
		"cache.t3.small":  0.034,
		"cache.t3.medium": 0.068,
		"cache.m5.large":  0.156,
		"cache.r5.large":  0.216,
	}
	for sku, price := range cache {
		c.addHourly(types.QuoteRedis, aws, sku, price)
	}

	// S3 standard, per GB-month
	c.addMonthly(types.QuoteStorage, aws, "standard", 0.023)
	c.addMonthly(types.QuoteStorage, aws, "standard_ia", 0.0125)
	c.addMonthly(types.QuoteStorage, aws, "glacier", 0.004)

	// Load balancers: ALB/NLB hourly base folded into a flat month
	c.addMonthly(types.QuoteLoadBalancer, aws, "application", 16.43)
	c.addMonthly(types.QuoteLoadBalancer, aws, "network", 16.43)
	c.addMonthly(types.QuoteLoadBalancer, aws, "classic", 18.25)
	c.addMonthly(types.QuoteLoadBalancer, aws, "gateway", 18.25)

	// EKS control plane
	c.addMonthly(types.QuoteKubernetes, aws, "default", 73.0)

	// Lambda consumption assumption: 1M requests ($0.20) plus
	// 100 GB-s of duration
	c.addMonthly(types.QuoteFunctions, aws, "consumption", 0.20)
}
