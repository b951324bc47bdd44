// Package storage - Analysis persistence
package storage

import (
	"context"
	"encoding/json"
	"time"

	"finopsguard/core/engine"
	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

type analysisRow struct {
	ID          string    `db:"id"`
	TS          time.Time `db:"ts"`
	IaCType     string    `db:"iac_type"`
	Environment string    `db:"environment"`
	Response    []byte    `db:"response"`
}

// InsertAnalysis appends one analysis record.
func (s *Store) InsertAnalysis(ctx context.Context, rec engine.AnalysisRecord) error {
	response, err := json.Marshal(rec.Response)
	if err != nil {
		return errors.Storage("marshaling analysis response", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, ts, iac_type, environment, response)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.Timestamp, rec.IaCType, rec.Environment, response)
	if err != nil {
		return errors.Storage("inserting analysis", err)
	}
	return nil
}

// ListAnalyses pages through persisted analyses, newest first.
func (s *Store) ListAnalyses(ctx context.Context, limit, offset int) ([]engine.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []analysisRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, ts, iac_type, environment, response
		FROM analyses ORDER BY ts DESC LIMIT $1 OFFSET $2`, limit, offset); err != nil {
		return nil, errors.Storage("listing analyses", err)
	}

	out := make([]engine.AnalysisRecord, 0, len(rows))
	for _, row := range rows {
		rec := engine.AnalysisRecord{
			ID:          row.ID,
			Timestamp:   row.TS,
			IaCType:     row.IaCType,
			Environment: row.Environment,
		}
		var resp types.CheckResponse
		if err := json.Unmarshal(row.Response, &resp); err == nil {
			rec.Response = &resp
		}
		out = append(out, rec)
	}
	return out, nil
}
