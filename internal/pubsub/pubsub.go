// Package pubsub is the in-process event bus. Sponsor analytics events are
// published here and fanned out to the forwarder, metrics and the live
// WebSocket feed.
package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g. "analytics.sponsor.event").
	Topic string
	// UserID is the wallet address that triggered the message, if known.
	UserID string
	// Payload contains the JSON encoded event.
	Payload []byte
	// Metadata carries arbitrary string context such as the session id.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts listening to the given topic and returns once the
	// subscription is active. Messages are handled until ctx is canceled or
	// the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
