package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/google/uuid"
)

type fakeOutboxUseCase struct {
	mu     sync.Mutex
	events []*entity.OutboxEvent

	fetchErr error
	markErr  error

	marked []uuid.UUIDs
}

func (f *fakeOutboxUseCase) GetUnprocessedEvents(_ context.Context, limit int) ([]*entity.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if limit < len(f.events) {
		return f.events[:limit], nil
	}

	return f.events, nil
}

func (f *fakeOutboxUseCase) MarkEventsProcessed(_ context.Context, ids uuid.UUIDs) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return f.markErr
	}

	f.marked = append(f.marked, ids)

	return nil
}

func (f *fakeOutboxUseCase) markedBatches() []uuid.UUIDs {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]uuid.UUIDs(nil), f.marked...)
}

type fakeEventsSender struct {
	sendErr error

	sent   [][]*entity.OutboxEvent
	closed bool
}

func (f *fakeEventsSender) SendEvents(_ context.Context, events []*entity.OutboxEvent) error {
	if f.sendErr != nil {
		return f.sendErr
	}

	f.sent = append(f.sent, events)

	return nil
}

func (f *fakeEventsSender) Close() error {
	f.closed = true
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

func outboxEvents(n int) []*entity.OutboxEvent {
	events := make([]*entity.OutboxEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, &entity.OutboxEvent{
			ID:            uuid.New(),
			AggregateType: entity.AggregateOrder,
			AggregateID:   uuid.NewString(),
			EventType:     entity.EventTypeOrderCreated,
			Payload:       []byte(`{}`),
		})
	}

	return events
}

func newTestRelay(uc *fakeOutboxUseCase, es *fakeEventsSender) *OutboxRelay {
	return New(uc, es, nopLogger{}, time.Second, time.Second, 100)
}

func TestProcessEventsBatch_PublishesAndMarks(t *testing.T) {
	uc := &fakeOutboxUseCase{events: outboxEvents(3)}
	es := &fakeEventsSender{}
	relay := newTestRelay(uc, es)

	relay.processEventsBatch(context.Background())

	if len(es.sent) != 1 || len(es.sent[0]) != 3 {
		t.Fatalf("expected one batch of 3 events sent, got %v", es.sent)
	}
	if len(uc.marked) != 1 {
		t.Fatalf("expected one mark call, got %d", len(uc.marked))
	}

	for i, event := range uc.events {
		if uc.marked[0][i] != event.ID {
			t.Errorf("marked id %d mismatch: %s vs %s", i, uc.marked[0][i], event.ID)
		}
	}
}

func TestProcessEventsBatch_EmptyBatchSendsNothing(t *testing.T) {
	uc := &fakeOutboxUseCase{}
	es := &fakeEventsSender{}
	relay := newTestRelay(uc, es)

	relay.processEventsBatch(context.Background())

	if len(es.sent) != 0 {
		t.Errorf("expected no send for an empty batch, got %d", len(es.sent))
	}
	if len(uc.marked) != 0 {
		t.Errorf("expected no mark for an empty batch, got %d", len(uc.marked))
	}
}

func TestProcessEventsBatch_PublishFailureLeavesRowsUnmarked(t *testing.T) {
	uc := &fakeOutboxUseCase{events: outboxEvents(2)}
	es := &fakeEventsSender{sendErr: errors.New("broker unreachable")}
	relay := newTestRelay(uc, es)

	relay.processEventsBatch(context.Background())

	if len(uc.marked) != 0 {
		t.Fatal("rows must stay unprocessed when the producer did not ack")
	}

	// next poll retries the same batch
	es.sendErr = nil
	relay.processEventsBatch(context.Background())

	if len(uc.marked) != 1 || len(uc.marked[0]) != 2 {
		t.Fatalf("expected the batch republished and marked, got %v", uc.marked)
	}
}

func TestProcessEventsBatch_FetchFailure(t *testing.T) {
	uc := &fakeOutboxUseCase{fetchErr: errors.New("connection reset")}
	es := &fakeEventsSender{}
	relay := newTestRelay(uc, es)

	relay.processEventsBatch(context.Background())

	if len(es.sent) != 0 {
		t.Error("a fetch failure must not reach the producer")
	}
}

func TestRelay_StartAndShutdown(t *testing.T) {
	uc := &fakeOutboxUseCase{events: outboxEvents(1)}
	es := &fakeEventsSender{}
	relay := New(uc, es, nopLogger{}, 10*time.Millisecond, time.Second, 100)

	if err := relay.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := relay.Start(context.Background()); err == nil {
		t.Error("second Start must fail")
	}

	deadline := time.After(time.Second)
	for len(uc.markedBatches()) == 0 {
		select {
		case <-deadline:
			t.Fatal("relay did not process the batch in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := relay.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !es.closed {
		t.Error("Shutdown must close the sender")
	}
}
