package audit

import "context"

// Worker drains queued audit events into the publisher's store and sinks.
// Delivery failures are logged by the publisher and do not stop the worker.
type Worker struct {
	publisher *Publisher
	inbox     <-chan Event
}

func NewWorker(publisher *Publisher, inbox <-chan Event) *Worker {
	return &Worker{publisher: publisher, inbox: inbox}
}

// Run processes events until ctx is cancelled, then flushes what is already
// buffered.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain(context.WithoutCancel(ctx))
			return ctx.Err()
		case event := <-w.inbox:
			_ = w.publisher.deliver(ctx, event)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	for {
		select {
		case event := <-w.inbox:
			_ = w.publisher.deliver(ctx, event)
		default:
			return
		}
	}
}
