package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher is the emission port domain services depend on.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// ChannelPublisher enqueues events for the background worker. Emit never
// blocks the pipeline: when the inbox is full the event is dropped and
// logged, which is acceptable for operations events and surfaced loudly
// enough to size the buffer correctly.
type ChannelPublisher struct {
	inbox  chan<- Event
	logger *slog.Logger
}

// NewChannelPublisher creates a publisher feeding the given inbox.
func NewChannelPublisher(inbox chan<- Event, logger *slog.Logger) *ChannelPublisher {
	return &ChannelPublisher{inbox: inbox, logger: logger}
}

func (p *ChannelPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}

	select {
	case p.inbox <- event:
		return nil
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"case_id", event.CaseID,
		)
		return nil
	}
}

// NopPublisher discards events. For tests and wiring without audit.
type NopPublisher struct{}

func (NopPublisher) Emit(ctx context.Context, event Event) error { return nil }
