// Package storage - Webhook and delivery persistence
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

type jsonRow struct {
	ID      string `db:"id"`
	Payload []byte `db:"payload"`
}

// Create inserts a webhook subscription.
func (s *Store) Create(ctx context.Context, w types.Webhook) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return errors.Storage("marshaling webhook", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO webhooks (id, payload, created_at) VALUES ($1, $2, $3)`,
		w.ID, payload, w.CreatedAt)
	if err != nil {
		return errors.Storage("inserting webhook", err)
	}
	return nil
}

// Update replaces a webhook subscription.
func (s *Store) Update(ctx context.Context, w types.Webhook) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return errors.Storage("marshaling webhook", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE webhooks SET payload = $2 WHERE id = $1`, w.ID, payload)
	if err != nil {
		return errors.Storage("updating webhook", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("webhook", w.ID)
	}
	return nil
}

// Delete removes a webhook subscription.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return errors.Storage("deleting webhook", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("webhook", id)
	}
	return nil
}

// Get returns one webhook by id.
func (s *Store) Get(ctx context.Context, id string) (types.Webhook, error) {
	var row jsonRow
	err := s.db.GetContext(ctx, &row, `SELECT id, payload FROM webhooks WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return types.Webhook{}, errors.NotFound("webhook", id)
	}
	if err != nil {
		return types.Webhook{}, errors.Storage("fetching webhook", err)
	}
	var w types.Webhook
	if err := json.Unmarshal(row.Payload, &w); err != nil {
		return types.Webhook{}, errors.Storage("decoding webhook", err)
	}
	return w, nil
}

// List returns all webhooks, oldest first.
func (s *Store) List(ctx context.Context) ([]types.Webhook, error) {
	var rows []jsonRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, payload FROM webhooks ORDER BY created_at`); err != nil {
		return nil, errors.Storage("listing webhooks", err)
	}
	out := make([]types.Webhook, 0, len(rows))
	for _, row := range rows {
		var w types.Webhook
		if err := json.Unmarshal(row.Payload, &w); err == nil {
			out = append(out, w)
		}
	}
	return out, nil
}

// ListSubscribed returns enabled webhooks subscribed to the event type.
func (s *Store) ListSubscribed(ctx context.Context, t types.EventType) ([]types.Webhook, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []types.Webhook
	for _, w := range all {
		if w.Enabled && w.SubscribesTo(t) {
			out = append(out, w)
		}
	}
	return out, nil
}

// CreateDelivery inserts a delivery record.
func (s *Store) CreateDelivery(ctx context.Context, d types.WebhookDelivery) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return errors.Storage("marshaling delivery", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (id, webhook_id, status, created_at, next_retry_at, attempt_number, max_attempts, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.WebhookID, string(d.Status), d.CreatedAt, d.NextRetryAt, d.AttemptNumber, d.MaxAttempts, payload)
	if err != nil {
		return errors.Storage("inserting delivery", err)
	}
	return nil
}

// UpdateDelivery replaces a delivery record.
func (s *Store) UpdateDelivery(ctx context.Context, d types.WebhookDelivery) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return errors.Storage("marshaling delivery", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET status = $2, next_retry_at = $3, attempt_number = $4, payload = $5
		WHERE id = $1`,
		d.ID, string(d.Status), d.NextRetryAt, d.AttemptNumber, payload)
	if err != nil {
		return errors.Storage("updating delivery", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NotFound("delivery", d.ID)
	}
	return nil
}

// GetDelivery returns one delivery by id.
func (s *Store) GetDelivery(ctx context.Context, id string) (types.WebhookDelivery, error) {
	var row jsonRow
	err := s.db.GetContext(ctx, &row, `SELECT id, payload FROM webhook_deliveries WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return types.WebhookDelivery{}, errors.NotFound("delivery", id)
	}
	if err != nil {
		return types.WebhookDelivery{}, errors.Storage("fetching delivery", err)
	}
	var d types.WebhookDelivery
	if err := json.Unmarshal(row.Payload, &d); err != nil {
		return types.WebhookDelivery{}, errors.Storage("decoding delivery", err)
	}
	return d, nil
}

// ListDeliveriesByWebhook returns recent deliveries for one webhook.
func (s *Store) ListDeliveriesByWebhook(ctx context.Context, webhookID string, limit int) ([]types.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []jsonRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, payload FROM webhook_deliveries
		WHERE webhook_id = $1 ORDER BY created_at DESC LIMIT $2`, webhookID, limit); err != nil {
		return nil, errors.Storage("listing deliveries", err)
	}
	return decodeDeliveries(rows), nil
}

// DueDeliveryRetries returns pending or retrying deliveries due now.
func (s *Store) DueDeliveryRetries(ctx context.Context, now time.Time, limit int) ([]types.WebhookDelivery, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []jsonRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, payload FROM webhook_deliveries
		WHERE status IN ('pending', 'retrying')
		  AND attempt_number < max_attempts
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)
		ORDER BY created_at ASC LIMIT $2`, now, limit); err != nil {
		return nil, errors.Storage("scanning due deliveries", err)
	}
	return decodeDeliveries(rows), nil
}

// DeleteTerminalDeliveriesBefore removes old terminal deliveries.
func (s *Store) DeleteTerminalDeliveriesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM webhook_deliveries
		WHERE status IN ('delivered', 'failed') AND created_at < $1`, cutoff)
	if err != nil {
		return 0, errors.Storage("cleaning deliveries", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// DeliveryView adapts the shared handle to the delivery store surface
// consumed by the webhook dispatcher and scheduler.
type DeliveryView struct {
	s *Store
}

// Deliveries returns the delivery store view.
func (s *Store) Deliveries() *DeliveryView {
	return &DeliveryView{s: s}
}

func (v *DeliveryView) Create(ctx context.Context, d types.WebhookDelivery) error {
	return v.s.CreateDelivery(ctx, d)
}

func (v *DeliveryView) Update(ctx context.Context, d types.WebhookDelivery) error {
	return v.s.UpdateDelivery(ctx, d)
}

func (v *DeliveryView) Get(ctx context.Context, id string) (types.WebhookDelivery, error) {
	return v.s.GetDelivery(ctx, id)
}

func (v *DeliveryView) ListByWebhook(ctx context.Context, webhookID string, limit int) ([]types.WebhookDelivery, error) {
	return v.s.ListDeliveriesByWebhook(ctx, webhookID, limit)
}

func (v *DeliveryView) DueRetries(ctx context.Context, now time.Time, limit int) ([]types.WebhookDelivery, error) {
	return v.s.DueDeliveryRetries(ctx, now, limit)
}

func (v *DeliveryView) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return v.s.DeleteTerminalDeliveriesBefore(ctx, cutoff)
}

func decodeDeliveries(rows []jsonRow) []types.WebhookDelivery {
	out := make([]types.WebhookDelivery, 0, len(rows))
	for _, row := range rows {
		var d types.WebhookDelivery
		if err := json.Unmarshal(row.Payload, &d); err == nil {
			out = append(out, d)
		}
	}
	return out
}
