// Package storage - Audit event persistence
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

type auditRow struct {
	EventID string    `db:"event_id"`
	TS      time.Time `db:"ts"`
	Payload []byte    `db:"payload"`
}

// Insert appends one audit event.
func (s *Store) Insert(ctx context.Context, ev types.AuditEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errors.Storage("marshaling audit event", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (event_id, event_type, severity, ts, username, action, resource_type, resource_id, success, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ev.EventID, string(ev.EventType), string(ev.Severity), ev.Timestamp,
		ev.Actor.Username, ev.Action, ev.ResourceType, ev.ResourceID, ev.Success, payload)
	if err != nil {
		return errors.Storage("inserting audit event", err)
	}
	return nil
}

// Query filters, sorts, and pages the audit trail.
func (s *Store) Query(ctx context.Context, q types.AuditQuery) (types.AuditQueryResult, error) {
	where, args := auditFilters(q)

	var total int
	countSQL := "SELECT count(*) FROM audit_events" + where
	if err := s.db.GetContext(ctx, &total, countSQL, args...); err != nil {
		return types.AuditQueryResult{}, errors.Storage("counting audit events", err)
	}

	order := "ts"
	if q.SortBy == "severity" {
		// rank severities rather than sort alphabetically
		order = `array_position(ARRAY['info','warning','error','critical'], severity)`
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	querySQL := fmt.Sprintf(
		"SELECT event_id, ts, payload FROM audit_events%s ORDER BY %s %s LIMIT %d OFFSET %d",
		where, order, direction, limit, q.Offset)

	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, querySQL, args...); err != nil {
		return types.AuditQueryResult{}, errors.Storage("querying audit events", err)
	}

	events := make([]types.AuditEvent, 0, len(rows))
	for _, row := range rows {
		var ev types.AuditEvent
		if err := json.Unmarshal(row.Payload, &ev); err == nil {
			events = append(events, ev)
		}
	}

	result := types.AuditQueryResult{
		Events:  events,
		Total:   total,
		HasMore: q.Offset+len(events) < total,
	}
	if result.HasMore {
		result.NextOffset = q.Offset + len(events)
	}
	return result, nil
}

// Range returns all events with start <= ts < end.
func (s *Store) Range(ctx context.Context, start, end time.Time) ([]types.AuditEvent, error) {
	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT event_id, ts, payload FROM audit_events
		WHERE ts >= $1 AND ts < $2 ORDER BY ts`, start, end); err != nil {
		return nil, errors.Storage("ranging audit events", err)
	}
	events := make([]types.AuditEvent, 0, len(rows))
	for _, row := range rows {
		var ev types.AuditEvent
		if err := json.Unmarshal(row.Payload, &ev); err == nil {
			events = append(events, ev)
		}
	}
	return events, nil
}

func auditFilters(q types.AuditQuery) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Start != nil {
		clauses = append(clauses, "ts >= "+arg(*q.Start))
	}
	if q.End != nil {
		clauses = append(clauses, "ts < "+arg(*q.End))
	}
	if len(q.EventTypes) > 0 {
		var placeholders []string
		for _, t := range q.EventTypes {
			placeholders = append(placeholders, arg(string(t)))
		}
		clauses = append(clauses, "event_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(q.Severities) > 0 {
		var placeholders []string
		for _, sev := range q.Severities {
			placeholders = append(placeholders, arg(string(sev)))
		}
		clauses = append(clauses, "severity IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(q.Usernames) > 0 {
		var placeholders []string
		for _, u := range q.Usernames {
			placeholders = append(placeholders, arg(u))
		}
		clauses = append(clauses, "username IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(q.ResourceTypes) > 0 {
		var placeholders []string
		for _, rt := range q.ResourceTypes {
			placeholders = append(placeholders, arg(rt))
		}
		clauses = append(clauses, "resource_type IN ("+strings.Join(placeholders, ", ")+")")
	}
	if q.Success != nil {
		clauses = append(clauses, "success = "+arg(*q.Success))
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		clauses = append(clauses, fmt.Sprintf(
			"(lower(action) LIKE %s OR lower(username) LIKE %s OR lower(resource_id) LIKE %s)",
			arg(pattern), arg(pattern), arg(pattern)))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
