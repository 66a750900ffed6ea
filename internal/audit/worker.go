package audit

import (
	"context"
	"log/slog"
)

// Sink receives events the worker drains from the inbox. Stores and the
// Kafka producer both satisfy it.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel and fans them out to sinks.
// A failing sink is logged and skipped; one slow sink must not stop the
// others from receiving events.
type Worker struct {
	sinks  []Sink
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker creates a worker draining inbox into the given sinks.
func NewWorker(inbox <-chan Event, logger *slog.Logger, sinks ...Sink) *Worker {
	return &Worker{sinks: sinks, inbox: inbox, logger: logger}
}

// Run drains the inbox until the context is cancelled. Remaining buffered
// events are flushed before returning so shutdown does not lose them.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.dispatch(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	// Detached context: the run context is already cancelled.
	ctx := context.Background()
	for {
		select {
		case event := <-w.inbox:
			w.dispatch(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, event Event) {
	for _, sink := range w.sinks {
		if err := sink.Append(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "audit sink append failed",
				"action", event.Action,
				"case_id", event.CaseID,
				"error", err,
			)
		}
	}
}
