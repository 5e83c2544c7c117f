package payment

import (
	"context"
	"strings"
	"testing"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/google/uuid"
)

type fakeOutboxRepo struct {
	events []*entity.OutboxEvent
}

func (r *fakeOutboxRepo) Create(_ context.Context, event *entity.OutboxEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *fakeOutboxRepo) GetUnprocessed(_ context.Context, _ int) ([]*entity.OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkProcessedBatch(_ context.Context, _ uuid.UUIDs) error { return nil }

type fakeTransactor struct{}

func (fakeTransactor) WithinTransaction(ctx context.Context, f func(ctx context.Context) error) error {
	return f(ctx)
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

func decodePaymentEvent(t *testing.T, outboxEvent *entity.OutboxEvent) entity.Event {
	t.Helper()

	env, err := entity.DecodeEnvelope(outboxEvent.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if env.Version != 1 {
		t.Errorf("a payment outcome carries version 1, got %d", env.Version)
	}

	event, err := entity.DecodeEventPayload(env)
	if err != nil {
		t.Fatal(err)
	}

	return event
}

func TestProcess_Approves(t *testing.T) {
	outboxRepo := &fakeOutboxRepo{}
	uc := New(outboxRepo, fakeTransactor{}, 1000, nopLogger{})

	cmd := entity.ProcessPayment{OrderID: "order-1", BuyerID: "buyer-1", TotalAmount: 999.99}
	if err := uc.Process(context.Background(), cmd); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(outboxRepo.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(outboxRepo.events))
	}

	processed, ok := decodePaymentEvent(t, outboxRepo.events[0]).(entity.PaymentProcessed)
	if !ok {
		t.Fatalf("expected PaymentProcessed, got %s", outboxRepo.events[0].EventType)
	}
	if processed.OrderID != "order-1" {
		t.Errorf("unexpected order id %s", processed.OrderID)
	}
	if outboxRepo.events[0].AggregateType != entity.AggregatePayment {
		t.Errorf("expected aggregate %s, got %s", entity.AggregatePayment, outboxRepo.events[0].AggregateType)
	}
}

func TestProcess_DeclinesAboveLimit(t *testing.T) {
	outboxRepo := &fakeOutboxRepo{}
	uc := New(outboxRepo, fakeTransactor{}, 1000, nopLogger{})

	cmd := entity.ProcessPayment{OrderID: "order-1", BuyerID: "buyer-1", TotalAmount: 1000.01}
	if err := uc.Process(context.Background(), cmd); err != nil {
		t.Fatalf("a decline must not surface as an error: %v", err)
	}

	failed, ok := decodePaymentEvent(t, outboxRepo.events[0]).(entity.PaymentFailed)
	if !ok {
		t.Fatalf("expected PaymentFailed, got %s", outboxRepo.events[0].EventType)
	}
	if !strings.Contains(failed.Reason, "exceeds limit") {
		t.Errorf("unexpected reason %q", failed.Reason)
	}
}

func TestProcess_ZeroLimitApprovesEverything(t *testing.T) {
	outboxRepo := &fakeOutboxRepo{}
	uc := New(outboxRepo, fakeTransactor{}, 0, nopLogger{})

	cmd := entity.ProcessPayment{OrderID: "order-1", BuyerID: "buyer-1", TotalAmount: 1e9}
	if err := uc.Process(context.Background(), cmd); err != nil {
		t.Fatal(err)
	}

	if _, ok := decodePaymentEvent(t, outboxRepo.events[0]).(entity.PaymentProcessed); !ok {
		t.Fatalf("expected PaymentProcessed, got %s", outboxRepo.events[0].EventType)
	}
}
