// Package pricing - AWS live pricing adapter
// Uses the AWS Pricing List API (GetProducts) with a filter set that
// pins the SKU to on-demand shared-tenancy Linux.
package pricing

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/shopspring/decimal"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

// awsLocationNames maps region codes to Pricing API location strings.
var awsLocationNames = map[string]string{
	"us-east-1":      "US East (N. Virginia)",
	"us-east-2":      "US East (Ohio)",
	"us-west-1":      "US West (N. California)",
	"us-west-2":      "US West (Oregon)",
	"eu-west-1":      "EU (Ireland)",
	"eu-west-2":      "EU (London)",
	"eu-central-1":   "EU (Frankfurt)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-northeast-1": "Asia Pacific (Tokyo)",
}

// AWSLive prices EC2 and RDS SKUs against the live Pricing API.
type AWSLive struct {
	client *pricing.Client
}

// NewAWSLive builds the live AWS pricing source. The Pricing API only
// serves from us-east-1.
func NewAWSLive(ctx context.Context) (*AWSLive, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion("us-east-1"))
	if err != nil {
		return nil, errors.Pricing("loading aws credentials", err)
	}
	return &AWSLive{client: pricing.NewFromConfig(cfg)}, nil
}

// Cloud identifies the provider.
func (s *AWSLive) Cloud() types.Cloud { return types.CloudAWS }

// Instance fetches an EC2 on-demand Linux price.
func (s *AWSLive) Instance(ctx context.Context, sku, region string) (types.PriceQuote, error) {
	filters := []pricingtypes.Filter{
		termMatch("instanceType", sku),
		termMatch("location", locationName(region)),
		termMatch("operatingSystem", "Linux"),
		termMatch("tenancy", "Shared"),
		termMatch("preInstalledSw", "NA"),
		termMatch("capacitystatus", "Used"),
	}
	return s.getProduct(ctx, "AmazonEC2", filters)
}

// Database fetches an RDS single-AZ price.
func (s *AWSLive) Database(ctx context.Context, sku, region string) (types.PriceQuote, error) {
	filters := []pricingtypes.Filter{
		termMatch("instanceType", sku),
		termMatch("location", locationName(region)),
		termMatch("deploymentOption", "Single-AZ"),
	}
	return s.getProduct(ctx, "AmazonRDS", filters)
}

func (s *AWSLive) getProduct(ctx context.Context, serviceCode string, filters []pricingtypes.Filter) (types.PriceQuote, error) {
	out, err := s.client.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	})
	if err != nil {
		return types.PriceQuote{}, errors.Pricing("aws pricing api call", err)
	}
	if len(out.PriceList) == 0 {
		return types.PriceQuote{}, errors.Newf(errors.TypePricing, "no %s price found", serviceCode)
	}

	hourly, err := parseOnDemandHourly(out.PriceList[0])
	if err != nil {
		return types.PriceQuote{}, err
	}
	return types.HourlyQuote(hourly, types.ConfidenceHigh), nil
}

// parseOnDemandHourly digs the USD hourly rate out of a price list
// document: terms.OnDemand.*.priceDimensions.*.pricePerUnit.USD.
func parseOnDemandHourly(doc string) (decimal.Decimal, error) {
	var parsed struct {
		Terms struct {
			OnDemand map[string]struct {
				PriceDimensions map[string]struct {
					PricePerUnit struct {
						USD string `json:"USD"`
					} `json:"pricePerUnit"`
				} `json:"priceDimensions"`
			} `json:"OnDemand"`
		} `json:"terms"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		return decimal.Zero, errors.Pricing("decoding aws price document", err)
	}
	for _, term := range parsed.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			price, err := decimal.NewFromString(dim.PricePerUnit.USD)
			if err != nil {
				continue
			}
			if price.IsPositive() {
				return price, nil
			}
		}
	}
	return decimal.Zero, errors.New(errors.TypePricing, "no positive on-demand rate in price document")
}

func termMatch(field, value string) pricingtypes.Filter {
	return pricingtypes.Filter{
		Type:  pricingtypes.FilterTypeTermMatch,
		Field: aws.String(field),
		Value: aws.String(value),
	}
}

func locationName(region string) string {
	if name, ok := awsLocationNames[region]; ok {
		return name
	}
	return "US East (N. Virginia)"
}
