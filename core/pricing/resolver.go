// Package pricing - Quote resolver
// Combines live sources, the static catalog, and the quote cache under
// the configured fallback policy.
package pricing

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finopsguard/adapters/cache"
	"finopsguard/core/catalog"
	"finopsguard/core/types"
	"finopsguard/internal/config"
	"finopsguard/internal/logging"
)

// Resolver answers price quote requests for the simulator.
type Resolver struct {
	catalog *catalog.Catalog
	cache   cache.Cache
	live    map[types.Cloud]LiveSource
	cfg     config.PricingConfig
	log     *zap.Logger
}

// NewResolver wires the resolver. Live sources may be empty; the static
// catalog then serves everything.
func NewResolver(cat *catalog.Catalog, c cache.Cache, cfg config.PricingConfig, sources ...LiveSource) *Resolver {
	live := make(map[types.Cloud]LiveSource, len(sources))
	for _, src := range sources {
		live[src.Cloud()] = src
	}
	return &Resolver{
		catalog: cat,
		cache:   c,
		live:    live,
		cfg:     cfg,
		log:     logging.Named("pricing"),
	}
}

// Catalog exposes the static catalog for enumeration endpoints.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.catalog
}

// Instance resolves an instance-family quote.
func (r *Resolver) Instance(ctx context.Context, cloud types.Cloud, sku, region string) types.PriceQuote {
	return r.resolve(ctx, types.QuoteInstance, cloud, sku, region, func() types.PriceQuote {
		return r.catalog.Instance(cloud, sku, region)
	})
}

// Database resolves a managed database quote.
func (r *Resolver) Database(ctx context.Context, cloud types.Cloud, sku, region string) types.PriceQuote {
	return r.resolve(ctx, types.QuoteDatabase, cloud, sku, region, func() types.PriceQuote {
		return r.catalog.Database(cloud, sku, region)
	})
}

// Storage resolves a per-GB-month storage quote. Static only.
func (r *Resolver) Storage(ctx context.Context, cloud types.Cloud, tier, region string) types.PriceQuote {
	return r.cached(ctx, types.QuoteStorage, cloud, tier, region, func() types.PriceQuote {
		return r.catalog.Storage(cloud, tier, region)
	})
}

// LoadBalancer resolves a flat monthly load balancer quote. Static only.
func (r *Resolver) LoadBalancer(ctx context.Context, cloud types.Cloud, kind, region string) types.PriceQuote {
	return r.cached(ctx, types.QuoteLoadBalancer, cloud, kind, region, func() types.PriceQuote {
		return r.catalog.LoadBalancer(cloud, kind, region)
	})
}

// Kubernetes resolves a control plane quote. Static only.
func (r *Resolver) Kubernetes(ctx context.Context, cloud types.Cloud, tier, region string) types.PriceQuote {
	return r.cached(ctx, types.QuoteKubernetes, cloud, tier, region, func() types.PriceQuote {
		return r.catalog.Kubernetes(cloud, tier, region)
	})
}

// Functions resolves a consumption-plan function quote. Static only.
func (r *Resolver) Functions(ctx context.Context, cloud types.Cloud, sku, region string) types.PriceQuote {
	return r.cached(ctx, types.QuoteFunctions, cloud, sku, region, func() types.PriceQuote {
		return r.catalog.Functions(cloud, sku, region)
	})
}

// Redis resolves a managed cache quote. Static only.
func (r *Resolver) Redis(ctx context.Context, cloud types.Cloud, sku, region string) types.PriceQuote {
	return r.cached(ctx, types.QuoteRedis, cloud, sku, region, func() types.PriceQuote {
		return r.catalog.Redis(cloud, sku, region)
	})
}

// Cosmos resolves a Cosmos DB throughput quote. Static only.
func (r *Resolver) Cosmos(ctx context.Context, cloud types.Cloud, sku, region string) types.PriceQuote {
	return r.cached(ctx, types.QuoteCosmos, cloud, sku, region, func() types.PriceQuote {
		return r.catalog.Cosmos(cloud, sku, region)
	})
}

// resolve tries the live source first when enabled, then applies the
// fallback policy.
func (r *Resolver) resolve(ctx context.Context, kind types.QuoteKind, cloud types.Cloud, sku, region string, static func() types.PriceQuote) types.PriceQuote {
	return r.cached(ctx, kind, cloud, sku, region, func() types.PriceQuote {
		if r.cfg.LiveEnabled {
			if src, ok := r.live[cloud]; ok {
				quote, err := r.liveQuote(ctx, src, kind, sku, region)
				if err == nil {
					return quote
				}
				r.log.Warn("live pricing failed",
					zap.String("cloud", string(cloud)),
					zap.String("sku", sku),
					zap.Error(err))
				if !r.cfg.FallbackToStatic {
					return genericFallback()
				}
			}
		}
		return static()
	})
}

func (r *Resolver) liveQuote(ctx context.Context, src LiveSource, kind types.QuoteKind, sku, region string) (types.PriceQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.LiveTimeout)
	defer cancel()
	if kind == types.QuoteDatabase {
		return src.Database(ctx, sku, region)
	}
	return src.Instance(ctx, sku, region)
}

// cached wraps a computation with the 24h quote cache; cache failures
// just recompute.
func (r *Resolver) cached(ctx context.Context, kind types.QuoteKind, cloud types.Cloud, sku, region string, compute func() types.PriceQuote) types.PriceQuote {
	key := quoteCacheKey(kind, cloud, sku, region)
	if raw, ok := r.cache.Get(ctx, key); ok {
		var quote types.PriceQuote
		if err := json.Unmarshal([]byte(raw), &quote); err == nil {
			return quote
		}
	}
	quote := compute()
	if data, err := json.Marshal(quote); err == nil {
		ttl := r.cfg.CacheTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		r.cache.Set(ctx, key, string(data), ttl)
	}
	return quote
}

func quoteCacheKey(kind types.QuoteKind, cloud types.Cloud, sku, region string) string {
	return strings.Join([]string{"price", string(kind), string(cloud), sku, region}, ":")
}

// genericFallback is the conservative quote returned when live pricing
// fails and static fallback is disabled.
func genericFallback() types.PriceQuote {
	return types.HourlyQuote(decimal.NewFromFloat(0.10), types.ConfidenceLow)
}
