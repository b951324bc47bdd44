// Package audit records an append-only trail of core actions.
//
// Events fan out to three independent channels: a JSON-lines file, the
// structured logger, and a durable store. Each write is best-effort; a
// failing channel never blocks the caller or the other channels.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"finopsguard/core/types"
	"finopsguard/internal/config"
	"finopsguard/internal/logging"
)

// EventStore is the durable channel of the audit logger.
type EventStore interface {
	Insert(ctx context.Context, ev types.AuditEvent) error
	Query(ctx context.Context, q types.AuditQuery) (types.AuditQueryResult, error)

	// Range returns all events with start <= timestamp < end.
	Range(ctx context.Context, start, end time.Time) ([]types.AuditEvent, error)
}

// Option mutates an event before it is written.
type Option func(*types.AuditEvent)

// WithActor sets the acting identity.
func WithActor(actor types.AuditActor) Option {
	return func(ev *types.AuditEvent) { ev.Actor = actor }
}

// WithSeverity overrides the default info severity.
func WithSeverity(s types.AuditSeverity) Option {
	return func(ev *types.AuditEvent) { ev.Severity = s }
}

// WithRequestID attaches the originating request id.
func WithRequestID(id string) Option {
	return func(ev *types.AuditEvent) { ev.RequestID = id }
}

// WithResource names the affected resource.
func WithResource(resourceType, resourceID string) Option {
	return func(ev *types.AuditEvent) {
		ev.ResourceType = resourceType
		ev.ResourceID = resourceID
	}
}

// WithDetails attaches free-form event details.
func WithDetails(details map[string]interface{}) Option {
	return func(ev *types.AuditEvent) { ev.Details = details }
}

// WithHTTP attaches request context.
func WithHTTP(h types.AuditHTTP) Option {
	return func(ev *types.AuditEvent) { ev.HTTP = &h }
}

// WithError marks the event failed.
func WithError(err error) Option {
	return func(ev *types.AuditEvent) {
		ev.Success = false
		if err != nil {
			ev.Error = err.Error()
		}
	}
}

// Logger writes audit events.
type Logger struct {
	cfg   config.AuditConfig
	store EventStore
	log   *zap.Logger

	fileMu sync.Mutex
	file   *lumberjack.Logger
}

// NewLogger builds the audit logger. store may be nil when DB logging
// is disabled.
func NewLogger(cfg config.AuditConfig, store EventStore) *Logger {
	l := &Logger{
		cfg:   cfg,
		store: store,
		log:   logging.Named("audit"),
	}
	if cfg.Enabled && cfg.LogFile != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     90,
			Compress:   true,
		}
	}
	return l
}

// Log records one event. Returns nil when auditing is disabled.
func (l *Logger) Log(ctx context.Context, eventType types.AuditEventType, action string, opts ...Option) *types.AuditEvent {
	if !l.cfg.Enabled {
		return nil
	}

	ev := types.AuditEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Severity:  types.SeverityInfo,
		Timestamp: time.Now().UTC(),
		Action:    action,
		Success:   true,
	}
	for _, opt := range opts {
		opt(&ev)
	}

	l.writeFile(ev)
	l.writeConsole(ev)
	l.writeStore(ctx, ev)
	return &ev
}

func (l *Logger) writeFile(ev types.AuditEvent) {
	if l.file == nil {
		return
	}
	line, err := json.Marshal(ev)
	if err != nil {
		l.log.Warn("marshaling audit event failed", zap.Error(err))
		return
	}
	l.fileMu.Lock()
	defer l.fileMu.Unlock()
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		l.log.Warn("audit file write failed", zap.Error(err))
	}
}

func (l *Logger) writeConsole(ev types.AuditEvent) {
	if !l.cfg.ConsoleLogging {
		return
	}
	fields := []zap.Field{
		zap.String("event_id", ev.EventID),
		zap.String("event_type", string(ev.EventType)),
		zap.String("action", ev.Action),
		zap.Bool("success", ev.Success),
	}
	if ev.Actor.Username != "" {
		fields = append(fields, zap.String("username", ev.Actor.Username))
	}
	switch ev.Severity {
	case types.SeverityError, types.SeverityCritical:
		l.log.Error("audit", fields...)
	case types.SeverityWarning:
		l.log.Warn("audit", fields...)
	default:
		l.log.Info("audit", fields...)
	}
}

func (l *Logger) writeStore(ctx context.Context, ev types.AuditEvent) {
	if !l.cfg.DBLogging || l.store == nil {
		return
	}
	if err := l.store.Insert(ctx, ev); err != nil {
		l.log.Warn("audit store write failed", zap.String("event_id", ev.EventID), zap.Error(err))
	}
}

// Query proxies to the durable store.
func (l *Logger) Query(ctx context.Context, q types.AuditQuery) (types.AuditQueryResult, error) {
	if l.store == nil {
		return types.AuditQueryResult{Events: []types.AuditEvent{}}, nil
	}
	return l.store.Query(ctx, q)
}

// Close flushes the file channel.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
