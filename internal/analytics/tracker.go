// Package analytics records interactions with sponsor offers. Events are
// kept in memory, persisted to the key/value store and published on the bus
// for the forwarder and the live feed.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/nfrund/mintari/internal/domain"
	"github.com/nfrund/mintari/internal/kv"
	"github.com/nfrund/mintari/internal/metrics"
	"github.com/nfrund/mintari/internal/pubsub"
)

const (
	// StorageKey is the key/value entry holding the persisted event log.
	StorageKey = "sponsor_events"
	// MaxStoredEvents bounds both the persisted and the in-memory log.
	MaxStoredEvents = 100
	// DefaultRetentionDays is used by ClearOld when days is not positive.
	DefaultRetentionDays = 30

	DismissalUserClose = "user_close"
)

// SponsorEventTopic carries every recorded event.
var SponsorEventTopic = pubsub.NewEvent[domain.SponsorEvent]("analytics.sponsor.event", "Sponsor offer interaction recorded")

// Tracker is the sponsor analytics logger. It is safe for concurrent use.
type Tracker struct {
	store     kv.Store
	bus       pubsub.Publisher
	metrics   *metrics.Metrics
	sessionID string
	now       func() time.Time

	mu     sync.RWMutex
	events []domain.SponsorEvent

	// persistMu is held from taking a snapshot until it is written, so
	// snapshots reach the store in the order they were taken.
	persistMu sync.Mutex
}

// NewTracker creates a tracker and loads the stored event log. A missing or
// unreadable log starts empty. bus and m may be nil.
func NewTracker(ctx context.Context, store kv.Store, bus pubsub.Publisher, m *metrics.Metrics) *Tracker {
	t := &Tracker{
		store:   store,
		bus:     bus,
		metrics: m,
		now:     time.Now,
	}
	t.sessionID = newSessionID(t.now())
	t.load(ctx)
	return t
}

// newSessionID returns "session_<unix ms>_<9 base36 chars>".
func newSessionID(now time.Time) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return "session_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}

func (t *Tracker) load(ctx context.Context) {
	var stored []domain.SponsorEvent
	err := kv.GetJSON(ctx, t.store, StorageKey, &stored)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return
	case err != nil:
		slog.WarnContext(ctx, "Failed to load stored sponsor events", "error", err)
		return
	}
	t.events = lastN(stored, MaxStoredEvents)
	slog.DebugContext(ctx, "Loaded sponsor events", "count", len(t.events))
}

// SessionID identifies this tracker instance in event metadata.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// TrackView records that a sponsor offer was shown.
func (t *Tracker) TrackView(ctx context.Context, sponsorID, sponsorName, userAddress string) domain.SponsorEvent {
	return t.record(ctx, domain.SponsorEvent{
		SponsorID:   sponsorID,
		SponsorName: sponsorName,
		EventType:   domain.EventView,
		UserAddress: userAddress,
		Metadata:    map[string]any{"sessionId": t.sessionID},
	})
}

// TrackClick records a click through to the sponsor.
func (t *Tracker) TrackClick(ctx context.Context, sponsorID, sponsorName, userAddress, nftTxID string) domain.SponsorEvent {
	return t.record(ctx, domain.SponsorEvent{
		SponsorID:        sponsorID,
		SponsorName:      sponsorName,
		EventType:        domain.EventClick,
		UserAddress:      userAddress,
		NFTTransactionID: nftTxID,
		Metadata: map[string]any{
			"sessionId": t.sessionID,
			"clickTime": t.now().UTC().Format(time.RFC3339Nano),
		},
	})
}

// TrackClose records the offer being dismissed after timeSpentMs milliseconds.
func (t *Tracker) TrackClose(ctx context.Context, sponsorID, sponsorName string, timeSpentMs int64) domain.SponsorEvent {
	return t.record(ctx, domain.SponsorEvent{
		SponsorID:   sponsorID,
		SponsorName: sponsorName,
		EventType:   domain.EventClose,
		Metadata: map[string]any{
			"sessionId":       t.sessionID,
			"timeSpent":       timeSpentMs,
			"dismissalReason": DismissalUserClose,
		},
	})
}

// TrackConversion records a completed sponsor action such as a claim.
func (t *Tracker) TrackConversion(ctx context.Context, sponsorID, sponsorName, conversionType string) domain.SponsorEvent {
	return t.record(ctx, domain.SponsorEvent{
		SponsorID:   sponsorID,
		SponsorName: sponsorName,
		EventType:   domain.EventConversion,
		Metadata: map[string]any{
			"sessionId":      t.sessionID,
			"conversionType": conversionType,
			"conversionTime": t.now().UTC().Format(time.RFC3339Nano),
		},
	})
}

// Interaction is a client-reported event as accepted over HTTP.
type Interaction struct {
	SponsorID        string           `json:"sponsorId" validate:"required"`
	SponsorName      string           `json:"sponsorName"`
	EventType        domain.EventType `json:"eventType" validate:"required"`
	UserAddress      string           `json:"userAddress"`
	NFTTransactionID string           `json:"nftTransactionId"`
	TimeSpent        int64            `json:"timeSpent" validate:"gte=0"`
	ConversionType   string           `json:"conversionType"`
}

// Track dispatches in to the matching Track* method. The sponsor name falls
// back to the catalog entry when omitted.
func (t *Tracker) Track(ctx context.Context, in Interaction) (domain.SponsorEvent, error) {
	if !in.EventType.Valid() {
		return domain.SponsorEvent{}, fmt.Errorf("%w: %q", domain.ErrUnknownEventType, in.EventType)
	}
	name := in.SponsorName
	if name == "" {
		sp, err := domain.FindSponsor(in.SponsorID)
		if err != nil {
			return domain.SponsorEvent{}, fmt.Errorf("%w: %q", err, in.SponsorID)
		}
		name = sp.Name
	}

	switch in.EventType {
	case domain.EventView:
		return t.TrackView(ctx, in.SponsorID, name, in.UserAddress), nil
	case domain.EventClick:
		return t.TrackClick(ctx, in.SponsorID, name, in.UserAddress, in.NFTTransactionID), nil
	case domain.EventClose:
		return t.TrackClose(ctx, in.SponsorID, name, in.TimeSpent), nil
	default:
		conv := in.ConversionType
		if conv == "" {
			conv = "claim"
		}
		return t.TrackConversion(ctx, in.SponsorID, name, conv), nil
	}
}

func (t *Tracker) record(ctx context.Context, ev domain.SponsorEvent) domain.SponsorEvent {
	ev.Timestamp = t.now().UnixMilli()

	t.persistMu.Lock()
	t.mu.Lock()
	// The in-memory log shares the persisted cap, so Summary only counts
	// the last MaxStoredEvents events.
	t.events = lastN(append(t.events, ev), MaxStoredEvents)
	snapshot := slices.Clone(t.events)
	t.mu.Unlock()
	t.persist(ctx, snapshot)
	t.persistMu.Unlock()

	t.metrics.ObserveSponsorEvent(string(ev.EventType))
	slog.InfoContext(ctx, "Sponsor event", "type", ev.EventType, "sponsor", ev.SponsorName)

	if t.bus != nil {
		if err := pubsub.Publish(ctx, t.bus, SponsorEventTopic, ev.UserAddress, ev); err != nil {
			slog.WarnContext(ctx, "Failed to publish sponsor event", "error", err)
		}
	}
	return ev
}

func (t *Tracker) persist(ctx context.Context, events []domain.SponsorEvent) {
	if err := kv.SetJSON(ctx, t.store, StorageKey, lastN(events, MaxStoredEvents)); err != nil {
		slog.WarnContext(ctx, "Failed to save sponsor events", "error", err)
	}
}

// Events returns a copy of the event log, oldest first.
func (t *Tracker) Events() []domain.SponsorEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.events)
}

// Summary aggregates the event log.
type Summary struct {
	TotalEvents    int            `json:"totalEvents"`
	UniqueSponsors int            `json:"uniqueSponsors"`
	EventsByType   map[string]int `json:"eventsByType"`
	TopSponsors    map[string]int `json:"topSponsors"`
	// ConversionRate is conversions per hundred views, 0 without views.
	ConversionRate float64 `json:"conversionRate"`
}

func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Summary{
		TotalEvents:  len(t.events),
		EventsByType: map[string]int{},
		TopSponsors:  map[string]int{},
	}
	ids := map[string]struct{}{}
	for _, ev := range t.events {
		ids[ev.SponsorID] = struct{}{}
		s.EventsByType[string(ev.EventType)]++
		s.TopSponsors[ev.SponsorName]++
	}
	s.UniqueSponsors = len(ids)
	if views := s.EventsByType[string(domain.EventView)]; views > 0 {
		s.ConversionRate = float64(s.EventsByType[string(domain.EventConversion)]) / float64(views) * 100
	}
	return s
}

// SponsorEvents returns the events recorded for one sponsor, oldest first.
func (t *Tracker) SponsorEvents(sponsorID string) []domain.SponsorEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.SponsorEvent, 0)
	for _, ev := range t.events {
		if ev.SponsorID == sponsorID {
			out = append(out, ev)
		}
	}
	return out
}

// ClearOld drops events older than days (DefaultRetentionDays when days is
// not positive), persists the result and returns how many were removed.
func (t *Tracker) ClearOld(ctx context.Context, days int) int {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	cutoff := t.now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()

	t.persistMu.Lock()
	t.mu.Lock()
	before := len(t.events)
	t.events = slices.DeleteFunc(t.events, func(ev domain.SponsorEvent) bool {
		return ev.Timestamp <= cutoff
	})
	removed := before - len(t.events)
	snapshot := slices.Clone(t.events)
	t.mu.Unlock()
	t.persist(ctx, snapshot)
	t.persistMu.Unlock()

	slog.InfoContext(ctx, "Cleared old sponsor events", "days", days, "removed", removed, "remaining", len(snapshot))
	return removed
}

func lastN(events []domain.SponsorEvent, n int) []domain.SponsorEvent {
	if len(events) <= n {
		return events
	}
	return slices.Clone(events[len(events)-n:])
}
