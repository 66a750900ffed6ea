package audit

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelPublisher(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("fills timestamp and category", func(t *testing.T) {
		inbox := make(chan Event, 1)
		pub := NewChannelPublisher(inbox, logger)

		require.NoError(t, pub.Emit(context.Background(), Event{Action: ActionCaseEscalated, CaseID: "case-1"}))

		event := <-inbox
		assert.False(t, event.Timestamp.IsZero())
		assert.Equal(t, CategorySecurity, event.Category)
	})

	t.Run("drops instead of blocking when the inbox is full", func(t *testing.T) {
		inbox := make(chan Event, 1)
		pub := NewChannelPublisher(inbox, logger)

		require.NoError(t, pub.Emit(context.Background(), Event{Action: ActionAnalysisStarted}))

		done := make(chan struct{})
		go func() {
			_ = pub.Emit(context.Background(), Event{Action: ActionAnalysisCompleted})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("emit blocked on a full inbox")
		}
	})
}

func TestWorker(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("dispatches to all sinks", func(t *testing.T) {
		first := NewInMemoryStore()
		second := NewInMemoryStore()
		inbox := make(chan Event, 4)
		worker := NewWorker(inbox, logger, first, second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = worker.Run(ctx)
			close(done)
		}()

		inbox <- Event{Action: ActionAnalysisStarted, CaseID: "case-1"}
		inbox <- Event{Action: ActionAnalysisCompleted, CaseID: "case-1"}

		require.Eventually(t, func() bool {
			return len(first.All()) == 2 && len(second.All()) == 2
		}, time.Second, 5*time.Millisecond)

		cancel()
		<-done
	})

	t.Run("flushes buffered events on shutdown", func(t *testing.T) {
		store := NewInMemoryStore()
		inbox := make(chan Event, 4)
		worker := NewWorker(inbox, logger, store)

		inbox <- Event{Action: ActionCaseEscalated, CaseID: "case-2"}
		inbox <- Event{Action: ActionReviewCompleted, CaseID: "case-2"}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, worker.Run(ctx), context.Canceled)

		events, err := store.ListByCase(context.Background(), "case-2")
		require.NoError(t, err)
		assert.Len(t, events, 2)
	})
}

func TestInMemoryStoreFiltersByCase(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, Event{Action: ActionAnalysisStarted, CaseID: "a"}))
	require.NoError(t, store.Append(ctx, Event{Action: ActionAnalysisStarted, CaseID: "b"}))

	events, err := store.ListByCase(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
