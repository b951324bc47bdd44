// Package engine - Analysis history
// Hybrid store: an in-memory ring of the most recent analyses plus an
// optional durable backend. The ring is single-writer, multi-reader.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"finopsguard/core/types"
	"finopsguard/internal/logging"
)

// ringCapacity bounds the in-memory analysis history.
const ringCapacity = 1000

// AnalysisRecord is one completed analysis.
type AnalysisRecord struct {
	ID          string               `json:"id"`
	Timestamp   time.Time            `json:"timestamp"`
	IaCType     string               `json:"iac_type"`
	Environment string               `json:"environment"`
	Response    *types.CheckResponse `json:"response"`
}

// AnalysisBackend is the optional durable side of the history.
type AnalysisBackend interface {
	InsertAnalysis(ctx context.Context, rec AnalysisRecord) error
	ListAnalyses(ctx context.Context, limit, offset int) ([]AnalysisRecord, error)
}

// History holds recent analyses, newest first.
type History struct {
	mu      sync.RWMutex
	records []AnalysisRecord

	backend AnalysisBackend
	log     *zap.Logger
}

// NewHistory creates the analysis history. Backend may be nil.
func NewHistory(backend AnalysisBackend) *History {
	return &History{
		backend: backend,
		log:     logging.Named("engine.history"),
	}
}

// Append prepends a record, evicting the oldest past capacity. Durable
// write failures are logged and do not fail the append.
func (h *History) Append(ctx context.Context, rec AnalysisRecord) {
	h.mu.Lock()
	h.records = append([]AnalysisRecord{rec}, h.records...)
	if len(h.records) > ringCapacity {
		h.records = h.records[:ringCapacity]
	}
	h.mu.Unlock()

	if h.backend != nil {
		if err := h.backend.InsertAnalysis(ctx, rec); err != nil {
			h.log.Warn("durable analysis write failed", zap.String("analysis_id", rec.ID), zap.Error(err))
		}
	}
}

// Recent returns up to limit records starting at offset, newest first.
func (h *History) Recent(limit, offset int) []AnalysisRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(h.records) {
		return []AnalysisRecord{}
	}
	page := h.records[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	out := make([]AnalysisRecord, len(page))
	copy(out, page)
	return out
}

// Latest returns the most recent record, or nil.
func (h *History) Latest() *AnalysisRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.records) == 0 {
		return nil
	}
	rec := h.records[0]
	return &rec
}

// Len reports the in-memory record count.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}
