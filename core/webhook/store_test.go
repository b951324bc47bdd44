// Package webhook - Store tests
package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finopsguard/core/types"
)

func TestMemoryStoreListSubscribed(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().UTC()
	webhooks := []types.Webhook{
		{ID: "a", Name: "a", URL: "https://a", Enabled: true,
			Events: []types.EventType{types.EventAnalysisCompleted}, CreatedAt: base},
		{ID: "b", Name: "b", URL: "https://b", Enabled: true,
			Events: []types.EventType{types.EventCostSpike}, CreatedAt: base.Add(time.Second)},
		{ID: "c", Name: "c", URL: "https://c", Enabled: false,
			Events: []types.EventType{types.EventAnalysisCompleted}, CreatedAt: base.Add(2 * time.Second)},
	}
	for _, w := range webhooks {
		require.NoError(t, store.Create(ctx, w))
	}

	subs, err := store.ListSubscribed(ctx, types.EventAnalysisCompleted)
	require.NoError(t, err)
	require.Len(t, subs, 1, "disabled and unsubscribed webhooks must be excluded")
	assert.Equal(t, "a", subs[0].ID)
}

func TestMemoryStoreCreateDuplicate(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w := types.Webhook{ID: "dup", Name: "dup", URL: "https://x", Enabled: true}
	require.NoError(t, store.Create(ctx, w))
	assert.Error(t, store.Create(ctx, w))
}

func TestDueRetriesFiltering(t *testing.T) {
	store := NewMemoryDeliveryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	deliveries := []types.WebhookDelivery{
		{ID: "due-old", Status: types.DeliveryRetrying, AttemptNumber: 1, MaxAttempts: 3,
			NextRetryAt: &past, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "due-new", Status: types.DeliveryRetrying, AttemptNumber: 2, MaxAttempts: 3,
			NextRetryAt: &past, CreatedAt: now.Add(-time.Hour)},
		{ID: "not-yet", Status: types.DeliveryRetrying, AttemptNumber: 1, MaxAttempts: 3,
			NextRetryAt: &future, CreatedAt: now},
		{ID: "exhausted", Status: types.DeliveryRetrying, AttemptNumber: 3, MaxAttempts: 3,
			NextRetryAt: &past, CreatedAt: now},
		{ID: "done", Status: types.DeliveryDelivered, AttemptNumber: 1, MaxAttempts: 3, CreatedAt: now},
		{ID: "dead", Status: types.DeliveryFailed, AttemptNumber: 3, MaxAttempts: 3, CreatedAt: now},
	}
	for _, d := range deliveries {
		require.NoError(t, store.Create(ctx, d))
	}

	due, err := store.DueRetries(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "due-old", due[0].ID, "oldest first")
	assert.Equal(t, "due-new", due[1].ID)

	limited, err := store.DueRetries(ctx, now, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "due-old", limited[0].ID)
}

func TestDeleteTerminalBefore(t *testing.T) {
	store := NewMemoryDeliveryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -40)

	deliveries := []types.WebhookDelivery{
		{ID: "old-delivered", Status: types.DeliveryDelivered, CreatedAt: old},
		{ID: "old-failed", Status: types.DeliveryFailed, CreatedAt: old},
		{ID: "old-retrying", Status: types.DeliveryRetrying, CreatedAt: old},
		{ID: "fresh-delivered", Status: types.DeliveryDelivered, CreatedAt: now},
	}
	for _, d := range deliveries {
		require.NoError(t, store.Create(ctx, d))
	}

	removed, err := store.DeleteTerminalBefore(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// Non-terminal records survive the retention pass regardless of age.
	_, err = store.Get(ctx, "old-retrying")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "fresh-delivered")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "old-delivered")
	assert.Error(t, err)
}

func TestListByWebhookNewestFirst(t *testing.T) {
	store := NewMemoryDeliveryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"one", "two", "three"} {
		require.NoError(t, store.Create(ctx, types.WebhookDelivery{
			ID: id, WebhookID: "wh", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, store.Create(ctx, types.WebhookDelivery{ID: "other", WebhookID: "different", CreatedAt: base}))

	out, err := store.ListByWebhook(ctx, "wh", 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "three", out[0].ID)
	assert.Equal(t, "two", out[1].ID)
}

func TestWebhookValidate(t *testing.T) {
	valid := types.Webhook{
		Name:   "ci",
		URL:    "https://ci.example.com/hook",
		Events: []types.EventType{types.EventPolicyViolation},
	}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.Name = ""
	assert.Error(t, missing.Validate())

	badURL := valid
	badURL.URL = "ftp://nope"
	assert.Error(t, badURL.Validate())

	reserved := valid
	reserved.Headers = map[string]string{"Authorization": "Bearer x"}
	assert.Error(t, reserved.Validate())

	unknown := valid
	unknown.Events = []types.EventType{"made_up_event"}
	assert.Error(t, unknown.Validate())
}

func TestDeliveryStatusTerminal(t *testing.T) {
	assert.True(t, types.DeliveryDelivered.IsTerminal())
	assert.True(t, types.DeliveryFailed.IsTerminal())
	assert.False(t, types.DeliveryPending.IsTerminal())
	assert.False(t, types.DeliveryRetrying.IsTerminal())
}
