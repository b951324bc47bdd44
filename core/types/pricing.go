// Package types - Pricing types
package types

import "github.com/shopspring/decimal"

// Confidence is a qualitative tag on a price estimate
type Confidence string

const (
	// ConfidenceHigh for live or exact static matches
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium for approximations
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow for generic fallbacks
	ConfidenceLow Confidence = "low"
)

// rank orders confidences for Min; low < medium < high
func (c Confidence) rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Min returns the lower of two confidences
func (c Confidence) Min(other Confidence) Confidence {
	if other.rank() < c.rank() {
		return other
	}
	return c
}

// HoursPerMonth is the standard hour count used to convert hourly
// prices to monthly ones.
const HoursPerMonth = 730

// PriceQuote is what a pricing adapter returns for one SKU.
// MonthlyPrice tracks HourlyPrice x 730 unless the SKU is inherently
// monthly (load balancers, control planes).
type PriceQuote struct {
	// HourlyPrice in USD
	HourlyPrice decimal.Decimal `json:"hourly_price"`

	// MonthlyPrice in USD
	MonthlyPrice decimal.Decimal `json:"monthly_price"`

	// Confidence tags the quote quality
	Confidence Confidence `json:"confidence"`

	// Attrs carries SKU-specific attributes (vCPU, memory, engine)
	Attrs map[string]string `json:"attrs,omitempty"`
}

// HourlyQuote builds a quote from an hourly price
func HourlyQuote(hourly decimal.Decimal, confidence Confidence) PriceQuote {
	return PriceQuote{
		HourlyPrice:  hourly,
		MonthlyPrice: hourly.Mul(decimal.NewFromInt(HoursPerMonth)),
		Confidence:   confidence,
	}
}

// MonthlyQuote builds a quote from an inherently monthly price
func MonthlyQuote(monthly decimal.Decimal, confidence Confidence) PriceQuote {
	return PriceQuote{
		HourlyPrice:  monthly.Div(decimal.NewFromInt(HoursPerMonth)),
		MonthlyPrice: monthly,
		Confidence:   confidence,
	}
}

// QuoteKind classifies price lookups for cache keying
type QuoteKind string

const (
	QuoteInstance     QuoteKind = "instance"
	QuoteDatabase     QuoteKind = "database"
	QuoteStorage      QuoteKind = "storage"
	QuoteLoadBalancer QuoteKind = "load_balancer"
	QuoteKubernetes   QuoteKind = "kubernetes"
	QuoteFunctions    QuoteKind = "functions"
	QuoteRedis        QuoteKind = "redis"
	QuoteCosmos       QuoteKind = "cosmos"
)
