package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"waz-calendar/internal/bus"
	"waz-calendar/internal/telemetry"
)

// Publisher publishes JSON events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Broker owns the AMQP connection shared by every exchange publisher.
// A broker that failed to dial hands out noop publishers.
type Broker struct {
	conn   *amqp.Connection
	appID  string
	reason string
}

// Dial connects to amqpURL. It never fails: an empty url or a dial error
// yields a disabled broker and the reason is kept for logging.
func Dial(amqpURL, appID string) *Broker {
	if amqpURL == "" {
		log.Printf("rabbitmq disabled, using noop: empty amqp url")
		return &Broker{appID: appID, reason: "empty amqp url"}
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Printf("rabbitmq disabled, using noop: %v", err)
		return &Broker{appID: appID, reason: err.Error()}
	}
	return &Broker{conn: conn, appID: appID}
}

// Exchange declares a durable topic exchange on its own channel.
func (b *Broker) Exchange(name string) Publisher {
	if b.conn == nil {
		return noopPublisher{exchange: name, reason: b.reason}
	}

	ch, err := b.conn.Channel()
	if err != nil {
		log.Printf("rabbitmq exchange=%s disabled, using noop: %v", name, err)
		return noopPublisher{exchange: name, reason: err.Error()}
	}
	if err := ch.ExchangeDeclare(name, "topic", true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq exchange=%s disabled, using noop: %v", name, err)
		_ = ch.Close()
		return noopPublisher{exchange: name, reason: err.Error()}
	}

	log.Printf("rabbitmq connected exchange=%s", name)
	return &amqpPublisher{ch: ch, exchange: name, appID: b.appID}
}

func (b *Broker) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}

type amqpPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	appID    string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		AppId:        p.appID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		log.Printf("rabbitmq publish failed exchange=%s routing_key=%s: %v", p.exchange, routingKey, err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.Close()
}

type noopPublisher struct {
	exchange string
	reason   string
}

func (p noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	log.Printf("rabbitmq noop publish exchange=%s routing_key=%s %s", p.exchange, routingKey, describe(event))
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// describe renders the fields worth seeing when events are only logged.
func describe(event any) string {
	switch e := event.(type) {
	case telemetry.AuditEnvelope:
		return fmt.Sprintf("event_type=%s username=%s request_id=%s", e.EventType, e.Username, e.RequestID)
	case bus.Message:
		return fmt.Sprintf("type=%s to=%s", e.Type, e.To)
	default:
		return fmt.Sprintf("event=%T", event)
	}
}

// PublisherMode reports the publisher mode for logging.
func PublisherMode(p Publisher) string {
	switch p.(type) {
	case *amqpPublisher:
		return "amqp"
	case noopPublisher:
		return "noop"
	default:
		return "unknown"
	}
}

// PublisherNoopReason explains why p only logs events. It is empty for live publishers.
func PublisherNoopReason(p Publisher) string {
	if noop, ok := p.(noopPublisher); ok {
		return noop.reason
	}
	return ""
}
