// Package catalog - Static pricing catalog
// Per-cloud price tables consulted when live pricing is disabled or
// unavailable. Every lookup is total: unknown SKUs yield a conservative
// low-confidence fallback instead of an error.
package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"finopsguard/core/types"
)

// fallbackHourly is the generic hourly price for unknown SKUs.
var fallbackHourly = decimal.NewFromFloat(0.10)

// entry is one priced SKU.
type entry struct {
	hourly  decimal.Decimal
	monthly decimal.Decimal
	// flat marks inherently monthly SKUs (load balancers, control planes)
	flat  bool
	attrs map[string]string
}

// Catalog is the static price table set.
type Catalog struct {
	entries map[string]entry
}

// New builds the catalog with all per-cloud tables registered.
func New() *Catalog {
	c := &Catalog{entries: make(map[string]entry)}
	registerAWS(c)
	registerGCP(c)
	registerAzure(c)
	return c
}

func key(kind types.QuoteKind, cloud types.Cloud, parts ...string) string {
	elems := append([]string{string(kind), string(cloud)}, parts...)
	return strings.Join(elems, ":")
}

// addHourly registers an hourly-priced SKU.
func (c *Catalog) addHourly(kind types.QuoteKind, cloud types.Cloud, sku string, hourly float64) {
	h := decimal.NewFromFloat(hourly)
	c.entries[key(kind, cloud, sku)] = entry{
		hourly:  h,
		monthly: h.Mul(decimal.NewFromInt(types.HoursPerMonth)),
	}
}

// addRegionalHourly registers an hourly SKU keyed by region.
func (c *Catalog) addRegionalHourly(kind types.QuoteKind, cloud types.Cloud, region, sku string, hourly float64) {
	h := decimal.NewFromFloat(hourly)
	c.entries[key(kind, cloud, region, sku)] = entry{
		hourly:  h,
		monthly: h.Mul(decimal.NewFromInt(types.HoursPerMonth)),
	}
}

// addMonthly registers an inherently monthly SKU.
func (c *Catalog) addMonthly(kind types.QuoteKind, cloud types.Cloud, sku string, monthly float64) {
	m := decimal.NewFromFloat(monthly)
	c.entries[key(kind, cloud, sku)] = entry{
		hourly:  m.Div(decimal.NewFromInt(types.HoursPerMonth)),
		monthly: m,
		flat:    true,
	}
}

// lookup resolves an entry, trying the regional key first for clouds
// that price per region.
func (c *Catalog) lookup(kind types.QuoteKind, cloud types.Cloud, sku, region string) (entry, bool) {
	if region != "" {
		if e, ok := c.entries[key(kind, cloud, region, sku)]; ok {
			return e, true
		}
	}
	e, ok := c.entries[key(kind, cloud, sku)]
	return e, ok
}

func (c *Catalog) quote(kind types.QuoteKind, cloud types.Cloud, sku, region string) types.PriceQuote {
	if e, ok := c.lookup(kind, cloud, sku, region); ok {
		return types.PriceQuote{
			HourlyPrice:  e.hourly,
			MonthlyPrice: e.monthly,
			Confidence:   types.ConfidenceHigh,
			Attrs:        e.attrs,
		}
	}
	return types.HourlyQuote(fallbackHourly, types.ConfidenceLow)
}

// Instance prices an instance-like SKU.
func (c *Catalog) Instance(cloud types.Cloud, sku, region string) types.PriceQuote {
	return c.quote(types.QuoteInstance, cloud, sku, region)
}

// Database prices a managed database SKU.
func (c *Catalog) Database(cloud types.Cloud, sku, region string) types.PriceQuote {
	return c.quote(types.QuoteDatabase, cloud, sku, region)
}

// Storage prices object storage; the monthly price is per GB-month.
func (c *Catalog) Storage(cloud types.Cloud, tier, region string) types.PriceQuote {
	if e, ok := c.lookup(types.QuoteStorage, cloud, strings.ToLower(tier), region); ok {
		return types.PriceQuote{
			HourlyPrice:  e.hourly,
			MonthlyPrice: e.monthly,
			Confidence:   types.ConfidenceHigh,
			Attrs:        map[string]string{"unit": "gb_month"},
		}
	}
	// Generic per-GB fallback
	return types.PriceQuote{
		HourlyPrice:  decimal.NewFromFloat(0.000034),
		MonthlyPrice: decimal.NewFromFloat(0.025),
		Confidence:   types.ConfidenceLow,
		Attrs:        map[string]string{"unit": "gb_month"},
	}
}

// LoadBalancer prices a load balancer; inherently monthly.
func (c *Catalog) LoadBalancer(cloud types.Cloud, kind, region string) types.PriceQuote {
	if e, ok := c.lookup(types.QuoteLoadBalancer, cloud, strings.ToLower(kind), region); ok {
		return types.PriceQuote{HourlyPrice: e.hourly, MonthlyPrice: e.monthly, Confidence: types.ConfidenceHigh}
	}
	return types.MonthlyQuote(decimal.NewFromFloat(18.0), types.ConfidenceLow)
}

// Kubernetes prices a managed control plane; inherently monthly.
// AKS free tier legitimately prices at zero.
func (c *Catalog) Kubernetes(cloud types.Cloud, tier, region string) types.PriceQuote {
	if e, ok := c.lookup(types.QuoteKubernetes, cloud, strings.ToLower(tier), region); ok {
		return types.PriceQuote{HourlyPrice: e.hourly, MonthlyPrice: e.monthly, Confidence: types.ConfidenceHigh}
	}
	if e, ok := c.lookup(types.QuoteKubernetes, cloud, "default", region); ok {
		return types.PriceQuote{HourlyPrice: e.hourly, MonthlyPrice: e.monthly, Confidence: types.ConfidenceHigh}
	}
	return types.MonthlyQuote(decimal.NewFromFloat(73.0), types.ConfidenceLow)
}

// Functions prices a consumption-plan function under the standard
// assumption of 1M invocations and 100 GB-seconds per month.
func (c *Catalog) Functions(cloud types.Cloud, sku, region string) types.PriceQuote {
	if e, ok := c.lookup(types.QuoteFunctions, cloud, "consumption", region); ok {
		return types.PriceQuote{
			HourlyPrice:  e.hourly,
			MonthlyPrice: e.monthly,
			Confidence:   types.ConfidenceMedium,
			Attrs:        map[string]string{"assumption": "1M invocations, 100 GB-s"},
		}
	}
	return types.MonthlyQuote(decimal.NewFromFloat(0.50), types.ConfidenceLow)
}

// Redis prices a managed cache SKU.
func (c *Catalog) Redis(cloud types.Cloud, sku, region string) types.PriceQuote {
	return c.quote(types.QuoteRedis, cloud, sku, region)
}

// Cosmos prices provisioned Cosmos DB throughput per 100 RU/s.
func (c *Catalog) Cosmos(cloud types.Cloud, sku, region string) types.PriceQuote {
	if e, ok := c.lookup(types.QuoteCosmos, cloud, "provisioned-100rus", region); ok {
		return types.PriceQuote{
			HourlyPrice:  e.hourly,
			MonthlyPrice: e.monthly,
			Confidence:   types.ConfidenceHigh,
			Attrs:        map[string]string{"unit": "100_rus"},
		}
	}
	return types.HourlyQuote(decimal.NewFromFloat(0.008), types.ConfidenceLow)
}

// InstanceSKUs lists the known instance SKUs for a cloud, optionally
// filtered by region, sorted for stable output.
func (c *Catalog) InstanceSKUs(cloud types.Cloud, region string) []string {
	prefix := key(types.QuoteInstance, cloud) + ":"
	seen := map[string]bool{}
	for k := range c.entries {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		parts := strings.SplitN(rest, ":", 2)
		sku := parts[0]
		if len(parts) == 2 {
			// regional key {region}:{sku}
			if region != "" && parts[0] != region {
				continue
			}
			sku = parts[1]
		}
		seen[sku] = true
	}
	skus := make([]string, 0, len(seen))
	for s := range seen {
		skus = append(skus, s)
	}
	sort.Strings(skus)
	return skus
}
