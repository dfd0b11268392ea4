// Package hub fans bus events out to live feed clients.
package hub

import (
	"context"
	"log/slog"

	"github.com/nfrund/mintari/internal/pubsub"
)

// Subscriber represents a single client that receives broadcast messages.
type Subscriber struct {
	// Send is a buffered channel of outbound messages. The Hub sends messages
	// to this channel, and the client is responsible for reading from it.
	Send chan []byte
}

// NewSubscriber returns a subscriber with a send buffer of size n.
func NewSubscriber(n int) *Subscriber {
	return &Subscriber{Send: make(chan []byte, n)}
}

// Hub maintains the set of active subscribers and broadcasts messages to them.
type Hub struct {
	subscribers map[*Subscriber]bool

	// Broadcast accepts messages to deliver to every subscriber.
	Broadcast chan []byte
	// Register adds a subscriber.
	Register chan *Subscriber
	// Unregister removes a subscriber and closes its Send channel.
	Unregister chan *Subscriber
}

// NewHub creates and returns a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		Broadcast:   make(chan []byte),
		Register:    make(chan *Subscriber),
		Unregister:  make(chan *Subscriber),
		subscribers: make(map[*Subscriber]bool),
	}
}

// Run processes hub traffic until ctx is canceled, then closes every
// subscriber. It must be run in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for s := range h.subscribers {
				close(s.Send)
				delete(h.subscribers, s)
			}
			return

		case s := <-h.Register:
			h.subscribers[s] = true
			slog.Debug("Live feed subscriber registered", "total_subscribers", len(h.subscribers))

		case s := <-h.Unregister:
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.Send)
				slog.Debug("Live feed subscriber unregistered", "total_subscribers", len(h.subscribers))
			}

		case message := <-h.Broadcast:
			for s := range h.subscribers {
				// A full buffer means the client is lagging or gone.
				select {
				case s.Send <- message:
				default:
					close(s.Send)
					delete(h.subscribers, s)
					slog.Warn("Unregistering slow subscriber", "total_subscribers", len(h.subscribers))
				}
			}
		}
	}
}

// Relay forwards every message on topic into the hub as its raw payload.
func (h *Hub) Relay(ctx context.Context, sub pubsub.Subscriber, topic string) error {
	return sub.Subscribe(ctx, topic, func(_ context.Context, msg pubsub.Message) error {
		select {
		case h.Broadcast <- msg.Payload:
		case <-ctx.Done():
		}
		return nil
	})
}
