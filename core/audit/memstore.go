// Package audit - In-memory event store
// Default store when durable audit logging is not configured.
package audit

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"finopsguard/core/types"
)

// severityRank orders severities for sorting.
var severityRank = map[types.AuditSeverity]int{
	types.SeverityInfo:     0,
	types.SeverityWarning:  1,
	types.SeverityError:    2,
	types.SeverityCritical: 3,
}

// MemoryEventStore keeps events in process memory.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []types.AuditEvent
}

// NewMemoryEventStore creates an empty in-memory store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) Insert(_ context.Context, ev types.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryEventStore) Query(_ context.Context, q types.AuditQuery) (types.AuditQueryResult, error) {
	s.mu.RLock()
	matched := make([]types.AuditEvent, 0, len(s.events))
	for _, ev := range s.events {
		if matchesQuery(ev, q) {
			matched = append(matched, ev)
		}
	}
	s.mu.RUnlock()

	sortEvents(matched, q.SortBy, q.SortDesc)
	return paginate(matched, q.Limit, q.Offset), nil
}

func (s *MemoryEventStore) Range(_ context.Context, start, end time.Time) ([]types.AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.AuditEvent
	for _, ev := range s.events {
		if !ev.Timestamp.Before(start) && ev.Timestamp.Before(end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func matchesQuery(ev types.AuditEvent, q types.AuditQuery) bool {
	if q.Start != nil && ev.Timestamp.Before(*q.Start) {
		return false
	}
	if q.End != nil && !ev.Timestamp.Before(*q.End) {
		return false
	}
	if len(q.EventTypes) > 0 && !containsEventType(q.EventTypes, ev.EventType) {
		return false
	}
	if len(q.Severities) > 0 && !containsSeverity(q.Severities, ev.Severity) {
		return false
	}
	if len(q.Usernames) > 0 && !containsString(q.Usernames, ev.Actor.Username) {
		return false
	}
	if len(q.ResourceTypes) > 0 && !containsString(q.ResourceTypes, ev.ResourceType) {
		return false
	}
	if q.Success != nil && ev.Success != *q.Success {
		return false
	}
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		haystack := strings.ToLower(ev.Action + " " + ev.Actor.Username + " " + ev.ResourceID)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func sortEvents(events []types.AuditEvent, sortBy string, desc bool) {
	less := func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	}
	if sortBy == "severity" {
		less = func(i, j int) bool {
			return severityRank[events[i].Severity] < severityRank[events[j].Severity]
		}
	}
	if desc {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(events, less)
}

func paginate(events []types.AuditEvent, limit, offset int) types.AuditQueryResult {
	total := len(events)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	page := events[offset:]
	if limit > 0 && len(page) > limit {
		page = page[:limit]
	}
	result := types.AuditQueryResult{
		Events:  page,
		Total:   total,
		HasMore: offset+len(page) < total,
	}
	if result.HasMore {
		result.NextOffset = offset + len(page)
	}
	return result
}

func containsEventType(list []types.AuditEventType, v types.AuditEventType) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsSeverity(list []types.AuditSeverity, v types.AuditSeverity) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
