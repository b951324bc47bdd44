// Package usage - AWS usage adapter
// Cost Explorer for billing lines, CloudWatch for resource metrics.
package usage

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

const ceDateLayout = "2006-01-02"

type awsUsage struct {
	costs   *costexplorer.Client
	metrics *cloudwatch.Client
}

func newAWSUsage(ctx context.Context) (Adapter, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "loading aws credentials", err)
	}
	return &awsUsage{
		costs:   costexplorer.NewFromConfig(cfg),
		metrics: cloudwatch.NewFromConfig(cfg),
	}, nil
}

func (a *awsUsage) Cloud() types.Cloud { return types.CloudAWS }

func (a *awsUsage) Available(ctx context.Context) bool {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -1)
	_, err := a.costs.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  dateInterval(start, end),
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
	})
	return err == nil
}

func (a *awsUsage) ResourceUsage(ctx context.Context, resourceID, metric string, start, end time.Time) ([]types.ResourceUsage, error) {
	out, err := a.metrics.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String(metric),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("InstanceId"), Value: aws.String(resourceID)},
		},
		StartTime:  &start,
		EndTime:    &end,
		Period:     aws.Int32(3600),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "cloudwatch query failed", err)
	}

	samples := make([]types.ResourceUsage, 0, len(out.Datapoints))
	for _, dp := range out.Datapoints {
		if dp.Average == nil || dp.Timestamp == nil {
			continue
		}
		samples = append(samples, types.ResourceUsage{
			ResourceID: resourceID,
			Cloud:      types.CloudAWS,
			Metric:     metric,
			Value:      *dp.Average,
			Unit:       string(dp.Unit),
			Timestamp:  *dp.Timestamp,
		})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Timestamp.Before(samples[j].Timestamp) })
	return samples, nil
}

func (a *awsUsage) CostUsage(ctx context.Context, start, end time.Time) ([]types.CostUsageRecord, error) {
	out, err := a.costs.GetCostAndUsage(ctx, &costexplorer.GetCostAndUsageInput{
		TimePeriod:  dateInterval(start, end),
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
		},
	})
	if err != nil {
		return nil, errors.Wrap(errors.TypeInternal, "cost explorer query failed", err)
	}

	var records []types.CostUsageRecord
	for _, period := range out.ResultsByTime {
		periodStart, periodEnd := periodBounds(period.TimePeriod)
		for _, group := range period.Groups {
			if len(group.Keys) == 0 {
				continue
			}
			metric, ok := group.Metrics["UnblendedCost"]
			if !ok || metric.Amount == nil {
				continue
			}
			amount, err := strconv.ParseFloat(*metric.Amount, 64)
			if err != nil {
				continue
			}
			currency := "USD"
			if metric.Unit != nil {
				currency = *metric.Unit
			}
			records = append(records, types.CostUsageRecord{
				Cloud:     types.CloudAWS,
				Service:   group.Keys[0],
				Cost:      amount,
				Currency:  currency,
				StartDate: periodStart,
				EndDate:   periodEnd,
			})
		}
	}
	return records, nil
}

func (a *awsUsage) Summary(ctx context.Context, start, end time.Time) (*types.UsageSummary, error) {
	records, err := a.CostUsage(ctx, start, end)
	if err != nil {
		return nil, err
	}

	totals := map[string]float64{}
	total := 0.0
	for _, rec := range records {
		totals[rec.Service] += rec.Cost
		total += rec.Cost
	}

	services := make([]string, 0, len(totals))
	for svc := range totals {
		services = append(services, svc)
	}
	sort.Slice(services, func(i, j int) bool { return totals[services[i]] > totals[services[j]] })
	if len(services) > 5 {
		services = services[:5]
	}

	return &types.UsageSummary{
		Cloud:         types.CloudAWS,
		Start:         start,
		End:           end,
		TotalCost:     total,
		ResourceCount: len(totals),
		TopServices:   services,
	}, nil
}

func dateInterval(start, end time.Time) *cetypes.DateInterval {
	return &cetypes.DateInterval{
		Start: aws.String(start.Format(ceDateLayout)),
		End:   aws.String(end.Format(ceDateLayout)),
	}
}

func periodBounds(interval *cetypes.DateInterval) (time.Time, time.Time) {
	var start, end time.Time
	if interval != nil {
		if interval.Start != nil {
			start, _ = time.Parse(ceDateLayout, *interval.Start)
		}
		if interval.End != nil {
			end, _ = time.Parse(ceDateLayout, *interval.End)
		}
	}
	return start, end
}
