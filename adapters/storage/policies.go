// Package storage - Policy persistence
package storage

import (
	"context"
	"database/sql"
	"encoding/json"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

type policyRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Budget      sql.NullFloat64 `db:"budget"`
	Expression  []byte          `db:"expression"`
	OnViolation string          `db:"on_violation"`
	Enabled     bool            `db:"enabled"`
}

// UpsertPolicy writes a policy, replacing any previous version.
func (s *Store) UpsertPolicy(ctx context.Context, p types.Policy) error {
	var expression []byte
	if p.Expression != nil {
		var err error
		expression, err = json.Marshal(p.Expression)
		if err != nil {
			return errors.Storage("marshaling policy expression", err)
		}
	}
	var budget sql.NullFloat64
	if p.Budget != nil {
		budget = sql.NullFloat64{Float64: *p.Budget, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies (id, name, description, budget, expression, on_violation, enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			budget = EXCLUDED.budget,
			expression = EXCLUDED.expression,
			on_violation = EXCLUDED.on_violation,
			enabled = EXCLUDED.enabled,
			updated_at = now()`,
		p.ID, p.Name, p.Description, budget, expression, string(p.OnViolation), p.Enabled)
	if err != nil {
		return errors.Storage("upserting policy", err)
	}
	return nil
}

// DeletePolicy removes a policy by id.
func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id = $1`, id); err != nil {
		return errors.Storage("deleting policy", err)
	}
	return nil
}

// ListPolicies returns every persisted policy.
func (s *Store) ListPolicies(ctx context.Context) ([]types.Policy, error) {
	var rows []policyRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, description, budget, expression, on_violation, enabled
		FROM policies ORDER BY updated_at`); err != nil {
		return nil, errors.Storage("listing policies", err)
	}

	out := make([]types.Policy, 0, len(rows))
	for _, row := range rows {
		p := types.Policy{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			OnViolation: types.ViolationAction(row.OnViolation),
			Enabled:     row.Enabled,
		}
		if row.Budget.Valid {
			budget := row.Budget.Float64
			p.Budget = &budget
		}
		if len(row.Expression) > 0 {
			var expr types.PolicyExpression
			if err := json.Unmarshal(row.Expression, &expr); err == nil {
				p.Expression = &expr
			}
		}
		out = append(out, p)
	}
	return out, nil
}
