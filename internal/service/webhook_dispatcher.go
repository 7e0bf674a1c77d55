package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"checkout-session-engine/config"
	"checkout-session-engine/internal/core/domain"
	"checkout-session-engine/internal/core/ports"

	"github.com/rs/zerolog"
)

// Webhook header names.
const (
	HeaderWebhookSignature = "X-Webhook-Signature"
	HeaderWebhookEvent     = "X-Webhook-Event"
	HeaderWebhookTimestamp = "X-Webhook-Timestamp"
)

// HTTPClient is the outbound HTTP surface, abstracted for tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WebhookDispatcherImpl implements ports.WebhookDispatcher. Deliveries
// run detached from the request path: Dispatch returns immediately and
// the retry loop never influences the caller's latency or outcome.
type WebhookDispatcherImpl struct {
	cfg        config.WebhookConfig
	sigSvc     ports.SignatureService
	httpClient HTTPClient
	log        zerolog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWebhookDispatcher creates a dispatcher for the configured
// subscriber. An empty URL disables delivery.
func NewWebhookDispatcher(cfg config.WebhookConfig, sigSvc ports.SignatureService, httpClient HTTPClient, log zerolog.Logger) *WebhookDispatcherImpl {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebhookDispatcherImpl{
		cfg:        cfg,
		sigSvc:     sigSvc,
		httpClient: httpClient,
		log:        log,
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Dispatch fires an event asynchronously. Delivery is at-least-once,
// best-effort: exhausted retries drop the event with a logged failure.
func (d *WebhookDispatcherImpl) Dispatch(event domain.WebhookEvent) {
	if d.cfg.URL == "" {
		d.log.Debug().Str("event", string(event.Type)).Msg("webhook: no subscriber configured, skipping")
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.log.Error().Err(err).Str("event", string(event.Type)).Msg("webhook: failed to marshal payload")
		return
	}

	d.wg.Add(1)
	go d.deliver(payload, event)
}

// Close cancels in-flight retries and waits for detached deliveries.
func (d *WebhookDispatcherImpl) Close() {
	d.cancel()
	d.wg.Wait()
}

// deliver attempts delivery with linear backoff. 2xx is success, 4xx
// is terminal, anything else is retried until attempts run out.
func (d *WebhookDispatcherImpl) deliver(payload []byte, event domain.WebhookEvent) {
	defer d.wg.Done()

	signature := d.sigSvc.Sign(d.cfg.Secret, payload)

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * d.cfg.Backoff
			select {
			case <-time.After(backoff):
			case <-d.baseCtx.Done():
				d.log.Warn().Str("event", string(event.Type)).Str("session_id", event.SessionID).Msg("webhook: shutdown requested, abandoning delivery")
				return
			}
		}

		req, err := http.NewRequestWithContext(d.baseCtx, http.MethodPost, d.cfg.URL, bytes.NewReader(payload))
		if err != nil {
			d.log.Error().Err(err).Str("event", string(event.Type)).Msg("webhook: failed to build request")
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderWebhookSignature, signature)
		req.Header.Set(HeaderWebhookEvent, string(event.Type))
		req.Header.Set(HeaderWebhookTimestamp, strconv.FormatInt(event.CreatedAt.Unix(), 10))

		resp, err := d.httpClient.Do(req)
		if err != nil {
			if d.baseCtx.Err() != nil {
				d.log.Warn().Str("event", string(event.Type)).Str("session_id", event.SessionID).Msg("webhook: shutdown requested, abandoning delivery")
				return
			}
			d.log.Warn().Err(err).Str("event", string(event.Type)).Int("attempt", attempt).Msg("webhook: delivery failed")
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			d.log.Info().
				Str("event", string(event.Type)).
				Str("session_id", event.SessionID).
				Int("attempt", attempt).
				Int("status", resp.StatusCode).
				Msg("webhook: delivered")
			return
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			// Subscriber rejected the event; retrying cannot help.
			d.log.Error().
				Str("event", string(event.Type)).
				Str("session_id", event.SessionID).
				Int("status", resp.StatusCode).
				Msg("webhook: rejected by subscriber, not retrying")
			return
		default:
			d.log.Warn().
				Str("event", string(event.Type)).
				Int("attempt", attempt).
				Int("status", resp.StatusCode).
				Msg("webhook: non-2xx response, retrying")
		}
	}

	d.log.Error().
		Str("event", string(event.Type)).
		Str("session_id", event.SessionID).
		Int("attempts", d.cfg.MaxAttempts).
		Msg("webhook: all delivery attempts exhausted, dropping event")
}
