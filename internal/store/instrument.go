package store

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"waz-calendar/internal/observability"
)

type instrumented struct {
	backend string
	next    ObjectStore
	tracer  trace.Tracer
}

// Instrument wraps s with tracing spans and prometheus counters.
func Instrument(backend string, s ObjectStore) ObjectStore {
	return &instrumented{backend: backend, next: s, tracer: otel.Tracer("waz-calendar/store")}
}

func (i *instrumented) Exists(ctx context.Context, p string) (bool, error) {
	ctx, done := i.start(ctx, "exists", p)
	ok, err := i.next.Exists(ctx, p)
	done(err)
	return ok, err
}

func (i *instrumented) Read(ctx context.Context, p string) (Object, error) {
	ctx, done := i.start(ctx, "read", p)
	obj, err := i.next.Read(ctx, p)
	done(err)
	return obj, err
}

func (i *instrumented) Write(ctx context.Context, p string, content []byte, version, message string) (string, error) {
	ctx, done := i.start(ctx, "write", p)
	v, err := i.next.Write(ctx, p, content, version, message)
	done(err)
	return v, err
}

func (i *instrumented) Delete(ctx context.Context, p, version, message string) error {
	ctx, done := i.start(ctx, "delete", p)
	err := i.next.Delete(ctx, p, version, message)
	done(err)
	return err
}

func (i *instrumented) List(ctx context.Context, dir string) ([]Entry, error) {
	ctx, done := i.start(ctx, "list", dir)
	entries, err := i.next.List(ctx, dir)
	done(err)
	return entries, err
}

func (i *instrumented) start(ctx context.Context, op, p string) (context.Context, func(error)) {
	started := time.Now()
	ctx, span := i.tracer.Start(ctx, "store."+op, trace.WithAttributes(
		attribute.String("store.backend", i.backend),
		attribute.String("store.path", p),
	))
	return ctx, func(err error) {
		result := resultLabel(err)
		if result == "error" {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("store.result", result))
		span.End()
		observability.ObserveStoreOp(i.backend, op, result, time.Since(started))
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	case errors.Is(err, ErrAlreadyExists):
		return "exists"
	default:
		return "error"
	}
}
