package order

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/agriflow/procurement/internal/dto"
	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/pkg/types/errs"
	"github.com/google/uuid"
)

type fakeOrderRepo struct {
	orders map[uuid.UUID]*entity.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*entity.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *entity.Order) error {
	copied := *order
	r.orders[order.ID] = &copied

	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("fakeOrderRepo: %w", errs.ErrRecordNotFound)
	}

	copied := *order

	return &copied, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *entity.Order) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("fakeOrderRepo: %w", errs.ErrRecordNotFound)
	}
	if stored.Version != order.Version {
		return fmt.Errorf("fakeOrderRepo: %w", errs.ErrConcurrency)
	}

	copied := *order
	copied.Version++
	r.orders[order.ID] = &copied
	order.Version++

	return nil
}

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

// passthroughGuard runs every op and remembers responses by key, close
// enough to the real guard for exercising the order flow.
type passthroughGuard struct {
	responses map[string][]byte
}

func (g *passthroughGuard) Execute(ctx context.Context, key string, op func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if stored, ok := g.responses[key]; ok {
		return stored, nil
	}

	response, err := op(ctx)
	if err != nil {
		return nil, err
	}

	if g.responses == nil {
		g.responses = make(map[string][]byte)
	}
	g.responses[key] = response

	return response, nil
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warn(string, ...interface{})       {}
func (nopLogger) Error(interface{}, ...interface{}) {}
func (nopLogger) Fatal(interface{}, ...interface{}) {}

func newTestUseCase() (*OrderUseCase, *fakeOrderRepo, *fakeOutboxRepo) {
	orderRepo := newFakeOrderRepo()
	outboxRepo := &fakeOutboxRepo{}
	uc := New(orderRepo, outboxRepo, fakeTransactor{}, &passthroughGuard{}, nopLogger{})

	return uc, orderRepo, outboxRepo
}

func createRequest() dto.CreateOrder {
	return dto.CreateOrder{
		BuyerID:    "buyer-1",
		SupplierID: "supplier-1",
		Items: []dto.CreateOrderItem{
			{ProductID: "WHEAT-001", ProductName: "Winter Wheat", Quantity: 10, Price: 250, Unit: "t"},
			{ProductID: "CORN-001", ProductName: "Feed Corn", Quantity: 4, Price: 180, Unit: "t"},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	uc, orderRepo, outboxRepo := newTestUseCase()

	order, err := uc.CreateOrder(context.Background(), "key-1", createRequest())
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if order.Status != entity.OrderStatusPending {
		t.Errorf("expected PENDING, got %s", order.Status)
	}
	if order.TotalAmount != 10*250+4*180 {
		t.Errorf("unexpected total %f", order.TotalAmount)
	}

	if _, ok := orderRepo.orders[order.ID]; !ok {
		t.Error("order not persisted")
	}

	if len(outboxRepo.events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(outboxRepo.events))
	}
	if outboxRepo.events[0].EventType != entity.EventTypeOrderCreated {
		t.Errorf("expected OrderCreated, got %s", outboxRepo.events[0].EventType)
	}
	if outboxRepo.events[0].AggregateID != order.ID.String() {
		t.Error("outbox row must reference the order")
	}
}

func TestCreateOrder_DuplicateKeyReplays(t *testing.T) {
	uc, orderRepo, outboxRepo := newTestUseCase()
	ctx := context.Background()

	first, err := uc.CreateOrder(ctx, "key-1", createRequest())
	if err != nil {
		t.Fatal(err)
	}

	second, err := uc.CreateOrder(ctx, "key-1", createRequest())
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID {
		t.Errorf("a retried create must return the original order: %s vs %s", first.ID, second.ID)
	}
	if len(orderRepo.orders) != 1 {
		t.Errorf("expected 1 persisted order, got %d", len(orderRepo.orders))
	}
	if len(outboxRepo.events) != 1 {
		t.Errorf("expected no second OrderCreated, got %d events", len(outboxRepo.events))
	}
}

func TestCreateOrder_InvalidRequest(t *testing.T) {
	uc, _, outboxRepo := newTestUseCase()

	req := createRequest()
	req.BuyerID = ""

	_, err := uc.CreateOrder(context.Background(), "key-1", req)
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(outboxRepo.events) != 0 {
		t.Error("a rejected order must not emit events")
	}
}

func TestOrderTransitions(t *testing.T) {
	uc, orderRepo, outboxRepo := newTestUseCase()
	ctx := context.Background()

	order, err := uc.CreateOrder(ctx, "key-1", createRequest())
	if err != nil {
		t.Fatal(err)
	}

	if err := uc.ConfirmOrder(ctx, order.ID); err != nil {
		t.Fatalf("ConfirmOrder failed: %v", err)
	}
	if got := orderRepo.orders[order.ID].Status; got != entity.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", got)
	}

	if err := uc.CompleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("CompleteOrder failed: %v", err)
	}
	if got := orderRepo.orders[order.ID].Status; got != entity.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", got)
	}

	var types []string
	for _, event := range outboxRepo.events {
		types = append(types, event.EventType)
	}

	want := []string{entity.EventTypeOrderCreated, entity.EventTypeOrderConfirmed, entity.EventTypeOrderCompleted}
	if len(types) != len(want) {
		t.Fatalf("expected events %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestCancelOrder(t *testing.T) {
	uc, orderRepo, outboxRepo := newTestUseCase()
	ctx := context.Background()

	order, err := uc.CreateOrder(ctx, "key-1", createRequest())
	if err != nil {
		t.Fatal(err)
	}

	if err := uc.CancelOrder(ctx, order.ID, "payment declined"); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
	if got := orderRepo.orders[order.ID].Status; got != entity.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", got)
	}

	// cancelling again is a conflict the caller treats as already done
	err = uc.CancelOrder(ctx, order.ID, "payment declined")
	if !errors.Is(err, errs.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	last := outboxRepo.events[len(outboxRepo.events)-1]
	if last.EventType != entity.EventTypeOrderCancelled {
		t.Errorf("expected OrderCancelled, got %s", last.EventType)
	}
}

func TestConfirmOrder_Unknown(t *testing.T) {
	uc, _, _ := newTestUseCase()

	err := uc.ConfirmOrder(context.Background(), uuid.New())
	if !errors.Is(err, errs.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
