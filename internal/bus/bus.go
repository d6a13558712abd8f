// Package bus delivers domain messages from services to push channels.
package bus

import (
	"context"
	"log"
	"sync"
	"time"

	"waz-calendar/internal/observability"
)

// Message types published by the services.
const (
	TypeNotification  = "notification"
	TypeChatMessage   = "chat_message"
	TypeFriendsChange = "friends_changed"
	TypeEventsChange  = "events_changed"
	TypeUnreadCount   = "unread_count"
)

// Message is addressed to a single user.
type Message struct {
	Type       string    `json:"type"`
	To         string    `json:"to"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Handler receives published messages. Handlers must not block for long.
type Handler func(ctx context.Context, msg Message)

// Publisher is the side of the bus the services see.
type Publisher interface {
	Publish(ctx context.Context, msg Message)
}

// Bus fans messages out synchronously to every subscriber.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func New() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(ctx context.Context, msg Message) {
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now().UTC()
	}
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	observability.IncBusMessage(msg.Type)
	for _, h := range handlers {
		deliver(ctx, h, msg)
	}
}

func deliver(ctx context.Context, h Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus handler panic type=%s to=%s: %v", msg.Type, msg.To, r)
		}
	}()
	h(ctx, msg)
}

// Discard drops every message.
type Discard struct{}

func (Discard) Publish(context.Context, Message) {}
