package rabbitmq

import (
	"context"
	"log"

	"waz-calendar/internal/bus"
)

// RoutingKey is the topic a bus message is published under, e.g. calendar.notification.
func RoutingKey(prefix string, msg bus.Message) string {
	return prefix + "." + msg.Type
}

// Forwarder mirrors bus messages to the exchange so other services can follow calendar activity.
type Forwarder struct {
	publisher Publisher
	prefix    string
}

func NewForwarder(publisher Publisher, prefix string) *Forwarder {
	return &Forwarder{publisher: publisher, prefix: prefix}
}

// Handle is a bus.Handler. Publish failures are logged and never reach the caller.
func (f *Forwarder) Handle(ctx context.Context, msg bus.Message) {
	if err := f.publisher.Publish(ctx, RoutingKey(f.prefix, msg), msg); err != nil {
		log.Printf("forward bus message type=%s to=%s: %v", msg.Type, msg.To, err)
	}
}
