package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// Audited account actions.
const (
	ActionSignup      = "signup"
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionLogout      = "logout"
	ActionTest        = "audit_test"
)

// AuditRecord is what a handler knows about an audited action.
type AuditRecord struct {
	Action    string
	Text      string
	RequestID string
	Username  string
	IP        string
}

// level is WARN for failures, INFO otherwise.
func (r AuditRecord) level() string {
	if r.Action == ActionLoginFailed {
		return "WARN"
	}
	return "INFO"
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	TraceID       string       `json:"trace_id,omitempty"`
	Username      string       `json:"username,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level  string `json:"level"`
	Action string `json:"action"`
	Text   string `json:"text"`
	IP     string `json:"ip,omitempty"`
}

// AuditEmitter publishes audit_log envelopes for account actions.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Emit never fails the caller; publish errors are only logged.
func (e *AuditEmitter) Emit(ctx context.Context, rec AuditRecord) {
	if e == nil || e.publisher == nil {
		return
	}

	envelope := e.envelope(ctx, rec)
	log.Printf("audit emit: action=%s level=%s request_id=%s username=%s", rec.Action, envelope.Payload.Level, rec.RequestID, rec.Username)
	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		log.Printf("audit publish failed action=%s: %v", rec.Action, err)
	}
}

func (e *AuditEmitter) envelope(ctx context.Context, rec AuditRecord) AuditEnvelope {
	var traceID string
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = sc.TraceID().String()
	}
	return AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     rec.RequestID,
		TraceID:       traceID,
		Username:      rec.Username,
		Payload: AuditPayload{
			Level:  rec.level(),
			Action: rec.Action,
			Text:   rec.Text,
			IP:     rec.IP,
		},
	}
}
