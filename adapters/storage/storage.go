// Package storage provides the Postgres durable store. Every entity
// family gets its own thin accessor over a shared connection pool.
// Callers treat this layer as optional: when the database is disabled
// or unreachable, the in-memory fallbacks carry the load.
package storage

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"finopsguard/internal/config"
	"finopsguard/internal/errors"
	"finopsguard/internal/logging"
)

// schema creates the tables on first connect. Conceptual shapes mirror
// the domain entities; JSONB carries the nested parts.
const schema = `
CREATE TABLE IF NOT EXISTS policies (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	budget      DOUBLE PRECISION,
	expression  JSONB,
	on_violation TEXT NOT NULL,
	enabled     BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS analyses (
	id          TEXT PRIMARY KEY,
	ts          TIMESTAMPTZ NOT NULL,
	iac_type    TEXT NOT NULL,
	environment TEXT NOT NULL DEFAULT '',
	response    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS analyses_ts_idx ON analyses (ts DESC);

CREATE TABLE IF NOT EXISTS audit_events (
	event_id      TEXT PRIMARY KEY,
	event_type    TEXT NOT NULL,
	severity      TEXT NOT NULL,
	ts            TIMESTAMPTZ NOT NULL,
	username      TEXT NOT NULL DEFAULT '',
	action        TEXT NOT NULL,
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id   TEXT NOT NULL DEFAULT '',
	success       BOOLEAN NOT NULL,
	payload       JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_events_ts_idx ON audit_events (ts);
CREATE INDEX IF NOT EXISTS audit_events_type_idx ON audit_events (event_type);

CREATE TABLE IF NOT EXISTS webhooks (
	id      TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS webhook_deliveries (
	id         TEXT PRIMARY KEY,
	webhook_id TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	next_retry_at TIMESTAMPTZ,
	attempt_number INT NOT NULL,
	max_attempts   INT NOT NULL,
	payload    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS deliveries_webhook_idx ON webhook_deliveries (webhook_id, created_at DESC);
CREATE INDEX IF NOT EXISTS deliveries_due_idx ON webhook_deliveries (status, next_retry_at);
`

// Store is the shared Postgres handle.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

// New connects to Postgres and bootstraps the schema. Returns a nil
// store without error when the database is disabled.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	if !cfg.Enabled || cfg.URL == "" {
		return nil, nil
	}

	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, errors.Storage("opening database", err)
	}
	if cfg.PoolSize > 0 {
		db.SetMaxOpenConns(cfg.PoolSize)
		db.SetMaxIdleConns(cfg.PoolSize / 2)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Storage("pinging database", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Storage("bootstrapping schema", err)
	}

	s := &Store{db: db, log: logging.Named("storage")}
	s.log.Info("database connected", zap.Int("pool_size", cfg.PoolSize))
	return s, nil
}

// Healthy reports whether the database answers a ping.
func (s *Store) Healthy(ctx context.Context) bool {
	if s == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx) == nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
