// Package service implements the type index registry: initializing the index
// documents of a profile, loading them, registering and unregistering
// class-to-location mappings, and querying registrations.
//
// Every operation takes a models.Profile and returns a new one; the input is
// never modified. Remote state is shared and unversioned, so concurrent
// writers against the same index document can lose each other's updates.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"typeindex/internal/audit"
	"typeindex/internal/typeindex/fragment"
	"typeindex/internal/typeindex/metrics"
	"typeindex/internal/typeindex/models"
	"typeindex/internal/typeindex/ports"
)

// Remote steps, used as the "step" metric label and log attribute.
const (
	stepCreatePublicIndex  = "create_public_index"
	stepPatchProfile       = "patch_profile"
	stepCreatePrivateIndex = "create_private_index"
	stepPatchPreferences   = "patch_preferences"
	stepPatchIndex         = "patch_index"
	stepFetchIndexes       = "fetch_indexes"
)

// Service orchestrates type index documents through a DocumentClient.
type Service struct {
	client         ports.DocumentClient
	logger         *slog.Logger
	metrics        *metrics.Metrics
	auditPublisher ports.AuditPublisher
	fragment       fragment.Func
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithFragmentFunc replaces the registration fragment generator.
func WithFragmentFunc(fn fragment.Func) Option {
	return func(s *Service) {
		if fn != nil {
			s.fragment = fn
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(client ports.DocumentClient, opts ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("document client is required")
	}
	s := &Service{
		client:   client,
		logger:   slog.Default(),
		fragment: fragment.Hash,
		tracer:   otel.Tracer("typeindex/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) startSpan(ctx context.Context, name string, profile models.Profile) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "typeindex."+name, trace.WithAttributes(
		attribute.String("typeindex.webid", profile.WebID),
	))
}

// finish records the outcome of op on the span and in metrics.
func (s *Service) finish(span trace.Span, op string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	if s.metrics != nil {
		s.metrics.ObserveOperation(op, start, err)
	}
}

func (s *Service) stepFailed(ctx context.Context, step string, profile models.Profile, err error) {
	s.logger.ErrorContext(ctx, "type index step failed",
		"step", step,
		"webid", profile.WebID,
		"error", err,
	)
	if s.metrics != nil {
		s.metrics.IncrementStepFailure(step)
	}
}

// emitAudit publishes an audit event. Failures are logged and never fail the
// operation that produced the event.
func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.Action = string(action)
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"webid", event.WebID,
			"error", err,
		)
	}
}
