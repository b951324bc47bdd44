// Package pricing resolves price quotes, combining the static catalog
// with optional live provider adapters and a best-effort quote cache.
package pricing

import (
	"context"

	"finopsguard/core/types"
)

// LiveSource is a thin client for one provider's pricing endpoint.
// Implementations cover the instance and database families; everything
// else prices from the static catalog.
type LiveSource interface {
	// Cloud identifies the provider this source prices
	Cloud() types.Cloud

	// Instance fetches an on-demand instance price
	Instance(ctx context.Context, sku, region string) (types.PriceQuote, error)

	// Database fetches a managed database price
	Database(ctx context.Context, sku, region string) (types.PriceQuote, error)
}
