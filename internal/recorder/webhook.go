package recorder

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"studyfocus/internal/core/model"
	"studyfocus/internal/errclass"
)

// EventType names the kind of session delivery.
type EventType string

const (
	EventSessionPartial   EventType = "session.partial"
	EventSessionCompleted EventType = "session.completed"
)

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Studyfocus-Signature"

// WebhookEvent is the JSON body posted to the analytics endpoint.
type WebhookEvent struct {
	Event       EventType `json:"event"`
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	SessionType string    `json:"session_type"`
	Duration    int       `json:"duration"`
	Completed   bool      `json:"completed"`
	Goal        string    `json:"goal,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

// WebhookConfig configures delivery to an HTTP collector.
type WebhookConfig struct {
	URL        string
	Secret     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultWebhookConfig returns conservative delivery settings.
func DefaultWebhookConfig() WebhookConfig {
	return WebhookConfig{
		Timeout:    10 * time.Second,
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
	}
}

// WebhookStore posts session records to an HTTP endpoint. The collector
// deduplicates by record id, so retries never double count.
type WebhookStore struct {
	config WebhookConfig
	http   *http.Client
}

// NewWebhookStore returns a store posting to cfg.URL.
func NewWebhookStore(cfg WebhookConfig) *WebhookStore {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultWebhookConfig().Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &WebhookStore{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

func (store *WebhookStore) UpsertPartial(ctx context.Context, record model.SessionRecord) error {
	return store.post(ctx, EventSessionPartial, record)
}

func (store *WebhookStore) UpsertCompletion(ctx context.Context, record model.SessionRecord) error {
	return store.post(ctx, EventSessionCompleted, record)
}

func (store *WebhookStore) post(ctx context.Context, eventType EventType, record model.SessionRecord) error {
	payload, err := json.Marshal(WebhookEvent{
		Event:       eventType,
		ID:          record.ID,
		UserID:      record.UserID,
		SessionType: string(record.SessionType),
		Duration:    record.DurationSeconds,
		Completed:   record.Completed,
		Goal:        record.Goal,
		CreatedAt:   record.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= store.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(store.config.RetryDelay):
			}
		}

		req, err := store.createRequest(ctx, eventType, payload)
		if err != nil {
			return err
		}

		resp, err := store.http.Do(req)
		if err != nil {
			lastErr = errclass.ErrStoreUnavailable.WithMessagef("post %s: %v", eventType, err)
			continue
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
			return errclass.ErrRecordRejected.WithMessagef("http %d: %s", resp.StatusCode, string(body))
		}
		lastErr = errclass.ErrStoreUnavailable.WithMessagef("http %d: %s", resp.StatusCode, string(body))
	}
	return lastErr
}

func (store *WebhookStore) createRequest(ctx context.Context, eventType EventType, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, store.config.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "studyfocus-recorder/1.0")
	req.Header.Set("X-Studyfocus-Event", string(eventType))
	if store.config.Secret != "" {
		req.Header.Set(SignatureHeader, Sign(payload, store.config.Secret))
	}
	return req, nil
}

// Sign returns the signature header value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
