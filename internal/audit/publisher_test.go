package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeindex/internal/audit"
	"typeindex/internal/audit/store/memory"
	"typeindex/pkg/requestcontext"
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestPublisherEmitFillsMetadata(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	pub := audit.NewPublisher(store,
		audit.WithSinks(sink),
		audit.WithClock(func() time.Time { return fixed }),
		audit.WithPublisherLogger(discard),
	)

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	err := pub.Emit(ctx, audit.Event{WebID: "https://alice.example/#me", Action: string(audit.EventTypeRegistered)})
	require.NoError(t, err)

	events, err := pub.List(ctx, "https://alice.example/#me", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	got := events[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, fixed, got.Timestamp)
	assert.Equal(t, audit.CategoryCompliance, got.Category)
	assert.Equal(t, "req-42", got.RequestID)
	assert.Equal(t, 1, sink.count())
}

func TestPublisherSinkFailureStillStores(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{err: errors.New("kafka unavailable")}
	pub := audit.NewPublisher(store, audit.WithSinks(sink), audit.WithPublisherLogger(discard))

	err := pub.Emit(context.Background(), audit.Event{WebID: "w", Action: "registry_viewed"})
	assert.ErrorContains(t, err, "kafka unavailable")

	events, _ := store.ListByWebID(context.Background(), "w", 0)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestAsyncPublisherWorker(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	pub := audit.NewPublisher(store, audit.WithSinks(sink), audit.WithAsync(4), audit.WithPublisherLogger(discard))
	worker := pub.Worker()
	require.NotNil(t, worker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{WebID: "w", Action: string(audit.EventTypeUnregistered)}))
	}

	assert.Eventually(t, func() bool { return sink.count() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestAsyncPublisherDropsWhenFull(t *testing.T) {
	pub := audit.NewPublisher(memory.NewInMemoryStore(), audit.WithAsync(1), audit.WithPublisherLogger(discard))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{WebID: "w"}))
	assert.Error(t, pub.Emit(context.Background(), audit.Event{WebID: "w"}))
	assert.Nil(t, audit.NewPublisher(nil).Worker())
}
