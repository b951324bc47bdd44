// Package usage reads historical utilization and billing data from
// cloud monitoring APIs. Advisory only: nothing here feeds the cost
// simulator. Adapters load lazily and degrade to unavailable when the
// provider cannot be reached or credentials are missing.
package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"finopsguard/adapters/cache"
	"finopsguard/core/types"
	"finopsguard/internal/config"
	"finopsguard/internal/errors"
	"finopsguard/internal/logging"
)

// apiTimeout bounds individual provider calls.
const apiTimeout = 10 * time.Second

// Adapter reads usage data from one cloud.
type Adapter interface {
	Cloud() types.Cloud

	// Available reports whether the adapter can currently serve queries.
	Available(ctx context.Context) bool

	ResourceUsage(ctx context.Context, resourceID, metric string, start, end time.Time) ([]types.ResourceUsage, error)
	CostUsage(ctx context.Context, start, end time.Time) ([]types.CostUsageRecord, error)
	Summary(ctx context.Context, start, end time.Time) (*types.UsageSummary, error)
}

// Factory hands out per-cloud adapters on demand, caching results.
type Factory struct {
	cfg   config.UsageConfig
	cache cache.Cache
	log   *zap.Logger

	mu       sync.Mutex
	adapters map[types.Cloud]Adapter
	builders map[types.Cloud]func(context.Context) (Adapter, error)
}

// NewFactory creates the usage adapter factory.
func NewFactory(cfg config.UsageConfig, c cache.Cache) *Factory {
	f := &Factory{
		cfg:      cfg,
		cache:    c,
		log:      logging.Named("usage"),
		adapters: make(map[types.Cloud]Adapter),
		builders: make(map[types.Cloud]func(context.Context) (Adapter, error)),
	}
	f.builders[types.CloudAWS] = func(ctx context.Context) (Adapter, error) { return newAWSUsage(ctx) }
	return f
}

// Adapter returns the adapter for the cloud, constructing it on first
// use. Unsupported or unreachable clouds return an error.
func (f *Factory) Adapter(ctx context.Context, cloud types.Cloud) (Adapter, error) {
	if !f.cfg.Enabled {
		return nil, errors.New(errors.TypeConfig, "usage integration is disabled")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.adapters[cloud]; ok {
		return a, nil
	}
	build, ok := f.builders[cloud]
	if !ok {
		return nil, errors.Newf(errors.TypeConfig, "no usage adapter for cloud %s", cloud)
	}
	a, err := build(ctx)
	if err != nil {
		f.log.Warn("usage adapter unavailable", zap.String("cloud", string(cloud)), zap.Error(err))
		return nil, err
	}
	f.adapters[cloud] = a
	return a, nil
}

// Summary returns a cached usage summary for the cloud and window.
func (f *Factory) Summary(ctx context.Context, cloud types.Cloud, start, end time.Time) (*types.UsageSummary, error) {
	key := fmt.Sprintf("usage:summary:%s:%d:%d", cloud, start.Unix(), end.Unix())
	if raw, ok := f.cache.Get(ctx, key); ok {
		var summary types.UsageSummary
		if err := json.Unmarshal([]byte(raw), &summary); err == nil {
			return &summary, nil
		}
	}

	a, err := f.Adapter(ctx, cloud)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()
	summary, err := a.Summary(callCtx, start, end)
	if err != nil {
		return nil, err
	}

	if data, merr := json.Marshal(summary); merr == nil {
		ttl := f.cfg.CacheTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		f.cache.Set(ctx, key, string(data), ttl)
	}
	return summary, nil
}
