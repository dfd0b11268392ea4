package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/pubsub"
)

// Forwarder relays sponsor events from the bus to an external analytics
// endpoint as JSON POSTs. Delivery is best effort.
type Forwarder struct {
	endpoint  string
	sessionID string
	client    *http.Client
}

func NewForwarder(endpoint, sessionID string) *Forwarder {
	return &Forwarder{
		endpoint:  endpoint,
		sessionID: sessionID,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// forwardedEvent is the wire shape sent to the endpoint.
type forwardedEvent struct {
	domain.SponsorEvent
	SessionID string `json:"sessionId"`
}

// Start subscribes to SponsorEventTopic. It returns immediately; delivery
// runs until ctx is canceled or the subscriber closes.
func (f *Forwarder) Start(ctx context.Context, sub pubsub.Subscriber) error {
	return pubsub.Subscribe(ctx, sub, SponsorEventTopic, func(ctx context.Context, ev domain.SponsorEvent) error {
		if err := f.Send(ctx, ev); err != nil {
			slog.WarnContext(ctx, "Failed to forward sponsor event", "endpoint", f.endpoint, "error", err)
		}
		return nil
	})
}

// Send POSTs a single event.
func (f *Forwarder) Send(ctx context.Context, ev domain.SponsorEvent) error {
	body, err := json.Marshal(forwardedEvent{SponsorEvent: ev, SessionID: f.sessionID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("analytics endpoint returned %s", resp.Status)
	}
	return nil
}
