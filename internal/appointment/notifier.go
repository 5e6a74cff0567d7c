package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/donnabot/donna/internal/domain"
	"github.com/donnabot/donna/internal/logging"
)

// Webhook posts extracted booking details to the scheduling endpoint.
type Webhook struct {
	url    string
	client *http.Client
	log    *logging.Logger
}

// NewWebhook creates a webhook sender. An empty URL disables delivery.
func NewWebhook(url string, log *logging.Logger) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log.Sub("webhook"),
	}
}

// Deliver posts the details as JSON. Non-JSON responses are tolerated; any
// 2xx status counts as delivered.
func (w *Webhook) Deliver(ctx context.Context, details domain.AppointmentDetails) error {
	if w.url == "" {
		w.log.Warn().Msg("webhook url not configured, skipping delivery")
		return nil
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("appointment: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("appointment: build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("appointment: post webhook: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("appointment: webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		w.log.Info().RawJSON("response", normalizeJSON(body)).Msg("booking delivered")
	} else {
		w.log.Info().Str("response", strings.TrimSpace(string(body))).Msg("booking delivered")
	}
	return nil
}

// normalizeJSON guards RawJSON against a body that claimed to be JSON but
// is not.
func normalizeJSON(body []byte) []byte {
	if json.Valid(body) && len(body) > 0 {
		return body
	}
	return []byte("null")
}

// Workflow wires extraction and webhook delivery into the notifier hook
// that session teardown calls. Implements domain.Notifier.
type Workflow struct {
	extractor domain.Extractor
	webhook   *Webhook
	log       *logging.Logger
	now       func() time.Time
}

// NewWorkflow creates the transcript-to-booking pipeline.
func NewWorkflow(extractor domain.Extractor, webhook *Webhook, log *logging.Logger) *Workflow {
	return &Workflow{
		extractor: extractor,
		webhook:   webhook,
		log:       log.Sub("appointment"),
		now:       time.Now,
	}
}

// Notify extracts booking details from the transcript and delivers them.
func (w *Workflow) Notify(ctx context.Context, transcript string) error {
	details, err := w.extractor.Extract(ctx, transcript, w.now())
	if err != nil {
		return err
	}
	return w.webhook.Deliver(ctx, details)
}
