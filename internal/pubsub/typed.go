package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Event[T] binds a topic name to its payload type.
type Event[T any] struct {
	topicName   string
	description string
	fields      []string
}

// TopicInfo documents a declared event for the CLI and the admin endpoint.
type TopicInfo struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	PayloadType   string   `json:"payloadType"`
	PayloadFields []string `json:"payloadFields"`
}

var (
	topicsMu sync.RWMutex
	topics   = map[string]TopicInfo{}
)

// NewEvent declares a typed event. The JSON field names of T are recorded so
// Topics can describe the payload. Declaring the same name twice panics.
func NewEvent[T any](name, description string) Event[T] {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	fields := make([]string, 0)
	typeName := ""
	if t != nil {
		typeName = t.Name()
		if t.Kind() == reflect.Struct {
			for i := 0; i < t.NumField(); i++ {
				tag := t.Field(i).Tag.Get("json")
				if tag == "" || tag == "-" {
					continue
				}
				fields = append(fields, strings.Split(tag, ",")[0])
			}
		}
	}

	topicsMu.Lock()
	defer topicsMu.Unlock()
	if _, dup := topics[name]; dup {
		panic(fmt.Sprintf("pubsub: event %q declared twice", name))
	}
	topics[name] = TopicInfo{Name: name, Description: description, PayloadType: typeName, PayloadFields: fields}

	return Event[T]{topicName: name, description: description, fields: fields}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topicName
}

// Topics lists every declared event sorted by name.
func Topics() []TopicInfo {
	topicsMu.RLock()
	defer topicsMu.RUnlock()
	out := make([]TopicInfo, 0, len(topics))
	for _, info := range topics {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Publish sends a typed event. The compiler ensures 'payload' matches 'T'.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], userID string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", event.Name(), err)
	}
	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		UserID:  userID,
		Payload: data,
	})
}

// Subscribe registers a handler that receives decoded payloads. Messages that
// fail to decode are logged and acknowledged.
func Subscribe[T any](ctx context.Context, s Subscriber, event Event[T], handler func(ctx context.Context, payload T) error) error {
	return s.Subscribe(ctx, event.Name(), func(ctx context.Context, msg Message) error {
		var payload T
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			slog.WarnContext(ctx, "Dropping undecodable message", "topic", msg.Topic, "error", err)
			return nil
		}
		return handler(ctx, payload)
	})
}
