// Package webhook - Subscription and delivery stores
package webhook

import (
	"context"
	"sort"
	"sync"
	"time"

	"finopsguard/core/types"
	"finopsguard/internal/errors"
)

// Store persists webhook subscriptions.
type Store interface {
	Create(ctx context.Context, w types.Webhook) error
	Update(ctx context.Context, w types.Webhook) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (types.Webhook, error)
	List(ctx context.Context) ([]types.Webhook, error)

	// ListSubscribed returns enabled webhooks subscribed to the event type.
	ListSubscribed(ctx context.Context, t types.EventType) ([]types.Webhook, error)
}

// DeliveryStore persists delivery records and serves the retry scan.
type DeliveryStore interface {
	Create(ctx context.Context, d types.WebhookDelivery) error
	Update(ctx context.Context, d types.WebhookDelivery) error
	Get(ctx context.Context, id string) (types.WebhookDelivery, error)
	ListByWebhook(ctx context.Context, webhookID string, limit int) ([]types.WebhookDelivery, error)

	// DueRetries returns pending or retrying deliveries whose next_retry_at
	// has passed and whose attempts are not exhausted, oldest first.
	DueRetries(ctx context.Context, now time.Time, limit int) ([]types.WebhookDelivery, error)

	// DeleteTerminalBefore removes delivered and failed records created
	// before the cutoff. Returns the number removed.
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// MemoryStore is the in-process webhook store.
type MemoryStore struct {
	mu       sync.RWMutex
	webhooks map[string]types.Webhook
}

// NewMemoryStore creates an empty in-memory webhook store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{webhooks: make(map[string]types.Webhook)}
}

func (s *MemoryStore) Create(_ context.Context, w types.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.webhooks[w.ID]; exists {
		return errors.Newf(errors.TypeValidation, "webhook %q already exists", w.ID)
	}
	s.webhooks[w.ID] = w
	return nil
}

func (s *MemoryStore) Update(_ context.Context, w types.Webhook) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.webhooks[w.ID]; !exists {
		return errors.Newf(errors.TypeNotFound, "webhook %q not found", w.ID)
	}
	s.webhooks[w.ID] = w
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.webhooks[id]; !exists {
		return errors.Newf(errors.TypeNotFound, "webhook %q not found", id)
	}
	delete(s.webhooks, id)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (types.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.webhooks[id]
	if !ok {
		return types.Webhook{}, errors.Newf(errors.TypeNotFound, "webhook %q not found", id)
	}
	return w, nil
}

func (s *MemoryStore) List(_ context.Context) ([]types.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Webhook, 0, len(s.webhooks))
	for _, w := range s.webhooks {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListSubscribed(_ context.Context, t types.EventType) ([]types.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Webhook
	for _, w := range s.webhooks {
		if w.Enabled && w.SubscribesTo(t) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MemoryDeliveryStore is the in-process delivery store.
type MemoryDeliveryStore struct {
	mu         sync.RWMutex
	deliveries map[string]types.WebhookDelivery
}

// NewMemoryDeliveryStore creates an empty in-memory delivery store.
func NewMemoryDeliveryStore() *MemoryDeliveryStore {
	return &MemoryDeliveryStore{deliveries: make(map[string]types.WebhookDelivery)}
}

func (s *MemoryDeliveryStore) Create(_ context.Context, d types.WebhookDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[d.ID] = d
	return nil
}

func (s *MemoryDeliveryStore) Update(_ context.Context, d types.WebhookDelivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.deliveries[d.ID]; !exists {
		return errors.Newf(errors.TypeNotFound, "delivery %q not found", d.ID)
	}
	s.deliveries[d.ID] = d
	return nil
}

func (s *MemoryDeliveryStore) Get(_ context.Context, id string) (types.WebhookDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deliveries[id]
	if !ok {
		return types.WebhookDelivery{}, errors.Newf(errors.TypeNotFound, "delivery %q not found", id)
	}
	return d, nil
}

func (s *MemoryDeliveryStore) ListByWebhook(_ context.Context, webhookID string, limit int) ([]types.WebhookDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.WebhookDelivery
	for _, d := range s.deliveries {
		if d.WebhookID == webhookID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryDeliveryStore) DueRetries(_ context.Context, now time.Time, limit int) ([]types.WebhookDelivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.WebhookDelivery
	for _, d := range s.deliveries {
		if d.Status != types.DeliveryPending && d.Status != types.DeliveryRetrying {
			continue
		}
		if d.AttemptNumber >= d.MaxAttempts {
			continue
		}
		if d.NextRetryAt != nil && d.NextRetryAt.After(now) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryDeliveryStore) DeleteTerminalBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, d := range s.deliveries {
		if d.Status.IsTerminal() && d.CreatedAt.Before(cutoff) {
			delete(s.deliveries, id)
			removed++
		}
	}
	return removed, nil
}
