// Package policy - Built-in policies
package policy

import (
	"finopsguard/core/types"
)

// defaultMonthlyBudget is the advisory ceiling seeded at startup.
const defaultMonthlyBudget = 1000.0

// SeedDefaults installs the built-in policies. Ids already present,
// for example from the durable backend, are left untouched.
func SeedDefaults(store *Store) {
	budget := defaultMonthlyBudget

	defaults := []types.Policy{
		{
			ID:          "default_monthly_budget",
			Name:        "Default Monthly Budget",
			Description: "Advisory ceiling on estimated monthly cost",
			Budget:      &budget,
			OnViolation: types.ActionAdvisory,
			Enabled:     true,
		},
		{
			ID:          "no_gpu_in_dev",
			Name:        "No GPU Instances in Dev",
			Description: "GPU instances are not allowed in the dev environment",
			Expression: &types.PolicyExpression{
				Operator: types.ExprAnd,
				Rules: []types.PolicyRule{
					{Field: "resource.type", Operator: types.OpEqual, Value: "aws_gpu_instance"},
					{Field: "environment", Operator: types.OpEqual, Value: "dev"},
				},
			},
			OnViolation: types.ActionAdvisory,
			Enabled:     true,
		},
		{
			ID:          "no_large_instances_in_dev",
			Name:        "No Large Instances in Dev",
			Description: "Large instance sizes are blocked in the dev environment",
			Expression: &types.PolicyExpression{
				Operator: types.ExprAnd,
				Rules: []types.PolicyRule{
					{
						Field:    "resource.size",
						Operator: types.OpIn,
						Value:    []string{"m5.large", "m5.xlarge", "m5.2xlarge", "c5.large", "c5.xlarge"},
					},
					{Field: "environment", Operator: types.OpEqual, Value: "dev"},
				},
			},
			OnViolation: types.ActionBlock,
			Enabled:     true,
		},
	}

	for _, p := range defaults {
		if _, exists := store.Get(p.ID); exists {
			continue
		}
		// seeding is not a user mutation, bypass hooks
		store.mu.Lock()
		store.policies[p.ID] = p
		store.order = append(store.order, p.ID)
		store.mu.Unlock()
	}
}
