package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"typeindex/pkg/requestcontext"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByWebID(ctx context.Context, webID string, limit int) ([]Event, error)
}

// Sink receives a copy of every event after it is stored, e.g. a Kafka topic.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Publisher fills in event metadata and fans each event out to the store and
// every sink. Failures are logged and returned joined; callers treat them as
// non-fatal.
type Publisher struct {
	store  Store
	sinks  []Sink
	logger *slog.Logger
	inbox  chan Event
	now    func() time.Time
}

type PublisherOption func(*Publisher)

func WithSinks(sinks ...Sink) PublisherOption {
	return func(p *Publisher) {
		p.sinks = append(p.sinks, sinks...)
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithAsync makes Emit enqueue events for a Worker instead of writing inline.
// Events are dropped, with a warning, when the buffer is full.
func WithAsync(buffer int) PublisherOption {
	return func(p *Publisher) {
		p.inbox = make(chan Event, buffer)
	}
}

func WithClock(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		p.now = now
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = p.now()
	}
	if base.Category == "" {
		base.Category = AuditEvent(base.Action).Category()
	}
	if base.RequestID == "" {
		base.RequestID = requestcontext.RequestID(ctx)
	}

	if p.inbox != nil {
		select {
		case p.inbox <- base:
			return nil
		default:
			p.logger.WarnContext(ctx, "audit buffer full, dropping event",
				"action", base.Action,
				"webid", base.WebID,
			)
			return errors.New("audit buffer full")
		}
	}
	return p.deliver(ctx, base)
}

// List returns the most recent events recorded for webID.
func (p *Publisher) List(ctx context.Context, webID string, limit int) ([]Event, error) {
	return p.store.ListByWebID(ctx, webID, limit)
}

// Worker returns a worker draining the async buffer. It returns nil when the
// publisher is synchronous.
func (p *Publisher) Worker() *Worker {
	if p.inbox == nil {
		return nil
	}
	return NewWorker(p, p.inbox)
}

func (p *Publisher) deliver(ctx context.Context, event Event) error {
	var errs []error
	if p.store != nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "failed to store audit event",
				"action", event.Action,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "failed to publish audit event",
				"action", event.Action,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
