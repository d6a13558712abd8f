package observability

import (
	"context"
	"sync"
	"time"
)

// EventSink receives operational events, usually the RabbitMQ publisher.
type EventSink interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// WSEvent describes a websocket lifecycle change.
type WSEvent struct {
	EventType  string    `json:"event_type"`
	EventName  string    `json:"event_name"`
	ConnID     string    `json:"conn_id"`
	Username   string    `json:"username"`
	DeviceID   string    `json:"device_id,omitempty"`
	IP         string    `json:"ip,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	TraceID    string    `json:"trace_id,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

var (
	sinkMu sync.RWMutex
	sink   EventSink
)

func SetEventSink(s EventSink) {
	sinkMu.Lock()
	defer sinkMu.Unlock()
	sink = s
}

// PublishEvent forwards event to the configured sink. Without a sink it does nothing.
func PublishEvent(ctx context.Context, routingKey string, event any) error {
	sinkMu.RLock()
	s := sink
	sinkMu.RUnlock()
	if s == nil {
		return nil
	}

	err := s.Publish(ctx, routingKey, event)
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}
