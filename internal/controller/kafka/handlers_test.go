package kafka

import (
	"context"
	"fmt"
	"testing"

	"github.com/agriflow/procurement/internal/dto"
	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/pkg/types/errs"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type fakeSaga struct {
	handled []string
}

func (f *fakeSaga) HandleOrderCreated(_ context.Context, _ entity.OrderCreated) error {
	f.handled = append(f.handled, entity.EventTypeOrderCreated)
	return nil
}

func (f *fakeSaga) HandleOrderConfirmed(_ context.Context, _ entity.OrderConfirmed) error {
	f.handled = append(f.handled, entity.EventTypeOrderConfirmed)
	return nil
}

func (f *fakeSaga) HandleInventoryReserved(_ context.Context, _ entity.InventoryReserved) error {
	f.handled = append(f.handled, entity.EventTypeInventoryReserved)
	return nil
}

func (f *fakeSaga) HandleInventoryReservationFailed(_ context.Context, _ entity.InventoryReservationFailed) error {
	f.handled = append(f.handled, entity.EventTypeInventoryReservationFailed)
	return nil
}

func (f *fakeSaga) HandlePaymentProcessed(_ context.Context, _ entity.PaymentProcessed) error {
	f.handled = append(f.handled, entity.EventTypePaymentProcessed)
	return nil
}

func (f *fakeSaga) HandlePaymentFailed(_ context.Context, _ entity.PaymentFailed) error {
	f.handled = append(f.handled, entity.EventTypePaymentFailed)
	return nil
}

type fakeInventory struct {
	reserved []entity.ReserveInventory
	released []entity.CompensateInventory
}

func (f *fakeInventory) Reserve(_ context.Context, cmd entity.ReserveInventory) error {
	f.reserved = append(f.reserved, cmd)
	return nil
}

func (f *fakeInventory) Release(_ context.Context, cmd entity.CompensateInventory) error {
	f.released = append(f.released, cmd)
	return nil
}

func (f *fakeInventory) GetStock(_ context.Context, _ string) (*entity.InventoryItem, error) {
	return nil, nil
}

type fakePayment struct {
	processed []entity.ProcessPayment
}

func (f *fakePayment) Process(_ context.Context, cmd entity.ProcessPayment) error {
	f.processed = append(f.processed, cmd)
	return nil
}

type fakeOrder struct {
	confirmed []uuid.UUID
	cancelled []uuid.UUID

	confirmErr error
}

func (f *fakeOrder) CreateOrder(_ context.Context, _ string, _ dto.CreateOrder) (*entity.Order, error) {
	return nil, nil
}

func (f *fakeOrder) GetOrder(_ context.Context, _ uuid.UUID) (*entity.Order, error) {
	return nil, nil
}

func (f *fakeOrder) ConfirmOrder(_ context.Context, orderID uuid.UUID) error {
	if f.confirmErr != nil {
		return f.confirmErr
	}

	f.confirmed = append(f.confirmed, orderID)

	return nil
}

func (f *fakeOrder) CancelOrder(_ context.Context, orderID uuid.UUID, _ string) error {
	f.cancelled = append(f.cancelled, orderID)
	return nil
}

func (f *fakeOrder) CompleteOrder(_ context.Context, _ uuid.UUID) error { return nil }

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

func eventMessage(t *testing.T, event entity.Event) kafka.Message {
	t.Helper()

	outboxEvent, err := entity.NewOutboxEvent(entity.AggregateOrder, "order-1", 0, event)
	if err != nil {
		t.Fatal(err)
	}

	return kafka.Message{Key: []byte("order-1"), Value: outboxEvent.Payload}
}

func commandMessage(t *testing.T, cmd entity.Command) kafka.Message {
	t.Helper()

	data, err := entity.MarshalCommand(cmd)
	if err != nil {
		t.Fatal(err)
	}

	return kafka.Message{Value: data}
}

func TestSagaEventsHandler_Dispatch(t *testing.T) {
	saga := &fakeSaga{}
	handler := NewSagaEventsHandler(saga, nopLogger{})
	ctx := context.Background()

	events := []entity.Event{
		entity.OrderCreated{OrderID: "order-1"},
		entity.InventoryReserved{OrderID: "order-1"},
		entity.PaymentProcessed{OrderID: "order-1"},
		entity.OrderConfirmed{OrderID: "order-1"},
		entity.InventoryReservationFailed{OrderID: "order-1", Reason: "out of stock"},
		entity.PaymentFailed{OrderID: "order-1", Reason: "declined"},
	}

	for _, event := range events {
		if err := handler.Handle(ctx, eventMessage(t, event)); err != nil {
			t.Fatalf("Handle(%s) failed: %v", event.EventType(), err)
		}
	}

	if len(saga.handled) != len(events) {
		t.Fatalf("expected %d dispatches, got %v", len(events), saga.handled)
	}
	for i, event := range events {
		if saga.handled[i] != event.EventType() {
			t.Errorf("dispatch %d: expected %s, got %s", i, event.EventType(), saga.handled[i])
		}
	}
}

func TestSagaEventsHandler_SkipsUnorchestratedEvent(t *testing.T) {
	saga := &fakeSaga{}
	handler := NewSagaEventsHandler(saga, nopLogger{})

	// OrderCompleted closes the order lifecycle after the saga is done
	err := handler.Handle(context.Background(), eventMessage(t, entity.OrderCompleted{OrderID: "order-1"}))
	if err != nil {
		t.Fatalf("uninteresting events must be dropped, not retried: %v", err)
	}

	if len(saga.handled) != 0 {
		t.Errorf("expected no dispatch, got %v", saga.handled)
	}
}

func TestSagaEventsHandler_MalformedMessage(t *testing.T) {
	handler := NewSagaEventsHandler(&fakeSaga{}, nopLogger{})

	err := handler.Handle(context.Background(), kafka.Message{Value: []byte("not json")})
	if err == nil {
		t.Fatal("expected an error for a malformed message")
	}
}

func TestInventoryCommandsHandler_Dispatch(t *testing.T) {
	inventory := &fakeInventory{}
	handler := NewInventoryCommandsHandler(inventory, nopLogger{})
	ctx := context.Background()

	reserve := entity.ReserveInventory{
		OrderID: "order-1",
		Items:   []entity.LineItem{{ProductID: "WHEAT-001", Quantity: 10}},
	}
	if err := handler.Handle(ctx, commandMessage(t, reserve)); err != nil {
		t.Fatal(err)
	}

	release := entity.CompensateInventory{OrderID: "order-1"}
	if err := handler.Handle(ctx, commandMessage(t, release)); err != nil {
		t.Fatal(err)
	}

	if len(inventory.reserved) != 1 || inventory.reserved[0].OrderID != "order-1" {
		t.Errorf("reserve not dispatched: %+v", inventory.reserved)
	}
	if len(inventory.released) != 1 || inventory.released[0].OrderID != "order-1" {
		t.Errorf("release not dispatched: %+v", inventory.released)
	}
}

func TestPaymentCommandsHandler_Dispatch(t *testing.T) {
	payment := &fakePayment{}
	handler := NewPaymentCommandsHandler(payment, nopLogger{})

	cmd := entity.ProcessPayment{OrderID: "order-1", BuyerID: "buyer-1", TotalAmount: 120.5}
	if err := handler.Handle(context.Background(), commandMessage(t, cmd)); err != nil {
		t.Fatal(err)
	}

	if len(payment.processed) != 1 || payment.processed[0].TotalAmount != 120.5 {
		t.Errorf("payment not dispatched: %+v", payment.processed)
	}
}

func TestOrderCommandsHandler_ConfirmAndCancel(t *testing.T) {
	order := &fakeOrder{}
	handler := NewOrderCommandsHandler(order, nopLogger{})
	ctx := context.Background()

	confirmID := uuid.New()
	if err := handler.Handle(ctx, commandMessage(t, entity.ConfirmOrder{OrderID: confirmID.String()})); err != nil {
		t.Fatal(err)
	}

	cancelID := uuid.New()
	cancel := entity.CancelOrder{OrderID: cancelID.String(), Reason: "payment declined"}
	if err := handler.Handle(ctx, commandMessage(t, cancel)); err != nil {
		t.Fatal(err)
	}

	if len(order.confirmed) != 1 || order.confirmed[0] != confirmID {
		t.Errorf("confirm not dispatched: %v", order.confirmed)
	}
	if len(order.cancelled) != 1 || order.cancelled[0] != cancelID {
		t.Errorf("cancel not dispatched: %v", order.cancelled)
	}
}

func TestOrderCommandsHandler_ConflictIsDone(t *testing.T) {
	order := &fakeOrder{confirmErr: fmt.Errorf("already confirmed: %w", errs.ErrConflict)}
	handler := NewOrderCommandsHandler(order, nopLogger{})

	cmd := entity.ConfirmOrder{OrderID: uuid.NewString()}
	if err := handler.Handle(context.Background(), commandMessage(t, cmd)); err != nil {
		t.Fatalf("an already-applied transition must not be retried: %v", err)
	}
}

func TestOrderCommandsHandler_BadOrderID(t *testing.T) {
	handler := NewOrderCommandsHandler(&fakeOrder{}, nopLogger{})

	cmd := entity.ConfirmOrder{OrderID: "not-a-uuid"}
	if err := handler.Handle(context.Background(), commandMessage(t, cmd)); err == nil {
		t.Fatal("expected an error for a malformed order id")
	}
}
