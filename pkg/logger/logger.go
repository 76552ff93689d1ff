// Package logger holds slog handlers shared by the binaries.
package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

type requestIDFunc func(ctx context.Context) string

// ContextHandler decorates records with the trace id of the active span and
// the request id carried by ctx.
type ContextHandler struct {
	slog.Handler
	requestID requestIDFunc
	// set once a request_id attr was bound with WithAttrs
	boundReqID bool
}

// NewContextHandler creates a new ContextHandler. The request id is read with
// chi's middleware.GetReqID unless WithRequestIDFunc overrides it.
func NewContextHandler(handler slog.Handler, opts ...Option) *ContextHandler {
	h := &ContextHandler{
		Handler:   handler,
		requestID: middleware.GetReqID,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Option customizes a ContextHandler.
type Option func(*ContextHandler)

// WithRequestIDFunc sets the function used to pull a request id from ctx.
func WithRequestIDFunc(fn func(ctx context.Context) string) Option {
	return func(h *ContextHandler) {
		if fn != nil {
			h.requestID = fn
		}
	}
}

// Handle processes a log record and adds context information.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		r.AddAttrs(slog.String("trace_id", span.SpanContext().TraceID().String()))
	}
	if reqID := h.requestID(ctx); reqID != "" && !h.boundReqID && !hasAttr(r, "request_id") {
		r.AddAttrs(slog.String("request_id", reqID))
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes added.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.boundReqID
	for _, a := range attrs {
		if a.Key == "request_id" {
			bound = true
		}
	}
	return &ContextHandler{
		Handler:    h.Handler.WithAttrs(attrs),
		requestID:  h.requestID,
		boundReqID: bound,
	}
}

// WithGroup returns a new ContextHandler with the given group added.
func (h *ContextHandler) WithGroup(group string) slog.Handler {
	return &ContextHandler{
		Handler:    h.Handler.WithGroup(group),
		requestID:  h.requestID,
		boundReqID: h.boundReqID,
	}
}

func hasAttr(r slog.Record, key string) bool {
	found := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			found = true
			return false
		}
		return true
	})
	return found
}
