// Package types - Usage integration types
package types

import "time"

// ResourceUsage is a historical metric sample for one resource
type ResourceUsage struct {
	ResourceID string    `json:"resource_id"`
	Cloud      Cloud     `json:"cloud"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `json:"timestamp"`
}

// CostUsageRecord is a historical billing line
type CostUsageRecord struct {
	Cloud     Cloud     `json:"cloud"`
	Service   string    `json:"service"`
	Region    string    `json:"region"`
	Cost      float64   `json:"cost"`
	Currency  string    `json:"currency"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// UsageSummary aggregates usage over a window
type UsageSummary struct {
	Cloud         Cloud     `json:"cloud"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	TotalCost     float64   `json:"total_cost"`
	ResourceCount int       `json:"resource_count"`
	TopServices   []string  `json:"top_services,omitempty"`
}
