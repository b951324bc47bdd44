// Package webhook - Delivery dispatcher
// One Attempt is one HTTP POST; the caller owns retry policy.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"finopsguard/core/types"
	"finopsguard/internal/logging"
)

const (
	userAgent          = "FinOpsGuard-Webhook/1.0"
	responseBodyLimit  = 1000
	defaultPostTimeout = 30 * time.Second
)

var (
	deliveryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "finopsguard_webhook_delivery_attempts_total",
		Help: "Webhook delivery attempts by outcome.",
	}, []string{"outcome"})

	deliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "finopsguard_webhook_delivery_duration_seconds",
		Help:    "Webhook POST round trip duration.",
		Buckets: prometheus.DefBuckets,
	})
)

// Dispatcher performs single delivery attempts and records outcomes.
type Dispatcher struct {
	deliveries DeliveryStore
	log        *zap.Logger

	// clients keyed by (timeout, verify_ssl) to reuse transports
	clientsMu sync.Mutex
	clients   map[clientKey]*http.Client
}

type clientKey struct {
	timeout   time.Duration
	verifySSL bool
}

// NewDispatcher creates a dispatcher writing outcomes to the delivery
// store.
func NewDispatcher(deliveries DeliveryStore) *Dispatcher {
	return &Dispatcher{
		deliveries: deliveries,
		log:        logging.Named("webhook.dispatcher"),
		clients:    make(map[clientKey]*http.Client),
	}
}

// Attempt POSTs the delivery payload to the webhook endpoint and
// transitions the delivery record. Returns true when delivered.
func (d *Dispatcher) Attempt(ctx context.Context, w types.Webhook, delivery types.WebhookDelivery) bool {
	start := time.Now()
	status, body, err := d.post(ctx, w, delivery)
	deliveryDuration.Observe(time.Since(start).Seconds())

	now := time.Now().UTC()
	if err != nil {
		delivery.ErrorMessage = err.Error()
		d.scheduleRetryOrFail(&delivery, w, now)
		deliveryAttempts.WithLabelValues("error").Inc()
		d.log.Warn("webhook attempt failed",
			zap.String("webhook_id", w.ID),
			zap.String("delivery_id", delivery.ID),
			zap.Int("attempt", delivery.AttemptNumber),
			zap.Error(err))
		d.persist(ctx, delivery)
		return false
	}

	delivery.ResponseStatus = &status
	delivery.ResponseBody = truncate(body, responseBodyLimit)

	if status >= 200 && status < 300 {
		delivery.Status = types.DeliveryDelivered
		delivery.DeliveredAt = &now
		delivery.NextRetryAt = nil
		deliveryAttempts.WithLabelValues("delivered").Inc()
		d.log.Info("webhook delivered",
			zap.String("webhook_id", w.ID),
			zap.String("delivery_id", delivery.ID),
			zap.Int("status", status))
		d.persist(ctx, delivery)
		return true
	}

	delivery.ErrorMessage = fmt.Sprintf("endpoint returned %d", status)
	d.scheduleRetryOrFail(&delivery, w, now)
	deliveryAttempts.WithLabelValues("rejected").Inc()
	d.persist(ctx, delivery)
	return false
}

func (d *Dispatcher) post(ctx context.Context, w types.Webhook, delivery types.WebhookDelivery) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return 0, "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Event", string(delivery.EventType))
	req.Header.Set("X-Webhook-Delivery", delivery.ID)
	req.Header.Set("X-Webhook-Attempt", fmt.Sprintf("%d", delivery.AttemptNumber))
	for name, value := range w.Headers {
		req.Header.Set(name, value)
	}
	if w.Secret != "" {
		req.Header.Set("X-Webhook-Signature", Sign(w.Secret, delivery.Payload))
	}

	resp, err := d.client(w).Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit+1))
	return resp.StatusCode, string(body), nil
}

// Sign computes the signature header value for a payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a received signature header against the
// payload. Exported for endpoint implementations and tests.
func VerifySignature(secret string, payload []byte, header string) bool {
	return hmac.Equal([]byte(Sign(secret, payload)), []byte(header))
}

func (d *Dispatcher) scheduleRetryOrFail(delivery *types.WebhookDelivery, w types.Webhook, now time.Time) {
	if delivery.AttemptNumber < delivery.MaxAttempts {
		delivery.Status = types.DeliveryRetrying
		next := now.Add(time.Duration(w.RetryDelaySeconds) * time.Second)
		delivery.NextRetryAt = &next
		return
	}
	delivery.Status = types.DeliveryFailed
	delivery.NextRetryAt = nil
}

func (d *Dispatcher) persist(ctx context.Context, delivery types.WebhookDelivery) {
	if err := d.deliveries.Update(ctx, delivery); err != nil {
		d.log.Error("recording delivery outcome failed",
			zap.String("delivery_id", delivery.ID),
			zap.Error(err))
	}
}

func (d *Dispatcher) client(w types.Webhook) *http.Client {
	timeout := defaultPostTimeout
	if w.TimeoutSeconds > 0 {
		timeout = time.Duration(w.TimeoutSeconds) * time.Second
	}
	key := clientKey{timeout: timeout, verifySSL: w.VerifySSL}
	d.clientsMu.Lock()
	defer d.clientsMu.Unlock()
	if c, ok := d.clients[key]; ok {
		return c
	}
	c := &http.Client{Timeout: timeout}
	if !w.VerifySSL {
		c.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	d.clients[key] = c
	return c
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
