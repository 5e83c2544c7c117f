package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agriflow/procurement/config"
	kafkactrl "github.com/agriflow/procurement/internal/controller/kafka"
	"github.com/agriflow/procurement/internal/controller/restapi"
	outboxworker "github.com/agriflow/procurement/internal/controller/worker/outbox"
	"github.com/agriflow/procurement/internal/entity"
	infrakafka "github.com/agriflow/procurement/internal/infrastructure/kafka"
	"github.com/agriflow/procurement/internal/repo/persistent"
	"github.com/agriflow/procurement/internal/usecase/idempotency"
	"github.com/agriflow/procurement/internal/usecase/inventory"
	"github.com/agriflow/procurement/internal/usecase/order"
	outboxuc "github.com/agriflow/procurement/internal/usecase/outbox"
	"github.com/agriflow/procurement/internal/usecase/payment"
	"github.com/agriflow/procurement/internal/usecase/saga"
	"github.com/agriflow/procurement/pkg/httpserver"
	"github.com/agriflow/procurement/pkg/kafka/consumer"
	"github.com/agriflow/procurement/pkg/kafka/producer"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/agriflow/procurement/pkg/postgres"
	"github.com/google/uuid"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	// Schema
	if err := persistent.Migrate(ctx, pg); err != nil {
		l.Fatal(fmt.Errorf("app - Run - persistent.Migrate: %w", err))
	}

	// Repository
	orderRepo := persistent.NewOrderRepo(pg)
	sagaRepo := persistent.NewSagaRepo(pg)
	inventoryRepo := persistent.NewInventoryRepo(pg, persistent.LockTimeout(cfg.PG.LockTimeout))
	reservationRepo := persistent.NewReservationRepo(pg)
	outboxRepo := persistent.NewOutboxRepo(pg)
	idempotencyRepo := persistent.NewIdempotencyRepo(pg)

	if cfg.Inventory.SeedDemoData {
		if err := inventoryRepo.Seed(ctx, demoInventory()); err != nil {
			l.Fatal(fmt.Errorf("app - Run - inventoryRepo.Seed: %w", err))
		}
	}

	// Kafka Producers. The relay owns its producer and closes it on
	// shutdown; commands and DLQ share the second one.
	relayProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}
	defer kafkaProducer.Close()

	eventProducer := infrakafka.NewEventProducer(relayProducer)
	commandProducer := infrakafka.NewCommandProducer(kafkaProducer)
	dlqProducer := infrakafka.NewDLQProducer(kafkaProducer)

	// Use-Case
	guard := idempotency.New(idempotencyRepo, pg, l, idempotency.TTL(cfg.Idempotency.TTL))
	orderUseCase := order.New(orderRepo, outboxRepo, pg, guard, l)
	outboxUseCase := outboxuc.New(outboxRepo, l)
	inventoryUseCase := inventory.New(inventoryRepo, reservationRepo, outboxRepo, pg, l)
	paymentUseCase := payment.New(outboxRepo, pg, cfg.Payment.DeclineAbove, l)
	sagaUseCase := saga.New(
		sagaRepo,
		commandProducer,
		infrakafka.TopicInventoryCommands,
		infrakafka.TopicPaymentCommands,
		infrakafka.TopicOrderCommands,
		l,
	)

	// Outbox Relay Worker
	outboxRelayWorker := outboxworker.New(
		outboxUseCase,
		eventProducer,
		l,
		cfg.OutboxRelay.PollInterval,
		cfg.OutboxRelay.ProcessBatchTimeout,
		cfg.OutboxRelay.BatchSize,
	)

	// Kafka Controllers
	controllerOpts := []kafkactrl.Option{
		kafkactrl.Workers(cfg.Consumer.Workers),
		kafkactrl.MaxAttempts(cfg.Consumer.MaxAttempts),
		kafkactrl.RetryBackoff(cfg.Consumer.RetryBackoff),
		kafkactrl.ProcessTimeout(cfg.Consumer.ProcessTimeout),
		kafkactrl.CommitTimeout(cfg.Consumer.CommitTimeout),
	}

	newController := func(name, groupID string, topics []string, handler kafkactrl.Handler) *kafkactrl.Controller {
		kafkaConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, groupID, topics)
		if err != nil {
			l.Fatal(fmt.Errorf("app - Run - consumer.New(%s): %w", name, err))
		}

		return kafkactrl.New(name, handler, infrakafka.NewMessageConsumer(kafkaConsumer), dlqProducer, l, controllerOpts...)
	}

	controllers := []*kafkactrl.Controller{
		newController("saga-orchestrator", cfg.Consumer.SagaGroupID,
			[]string{infrakafka.TopicOrderEvents, infrakafka.TopicInventoryEvents, infrakafka.TopicPaymentEvents},
			kafkactrl.NewSagaEventsHandler(sagaUseCase, l)),
		newController("inventory-service", cfg.Consumer.InventoryGroupID,
			[]string{infrakafka.TopicInventoryCommands},
			kafkactrl.NewInventoryCommandsHandler(inventoryUseCase, l)),
		newController("payment-service", cfg.Consumer.PaymentGroupID,
			[]string{infrakafka.TopicPaymentCommands},
			kafkactrl.NewPaymentCommandsHandler(paymentUseCase, l)),
		newController("order-service", cfg.Consumer.OrderGroupID,
			[]string{infrakafka.TopicOrderCommands},
			kafkactrl.NewOrderCommandsHandler(orderUseCase, l)),
	}

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewRouter(httpServer.App, cfg, orderUseCase, inventoryUseCase, l)

	// Start Components
	err = outboxRelayWorker.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - outboxRelayWorker.Start: %w", err))
	}

	for _, controller := range controllers {
		if err := controller.Start(ctx); err != nil {
			l.Fatal(fmt.Errorf("app - Run - controller.Start: %w", err))
		}
	}

	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	orlShutdownCtx, orlShutdownCancel := context.WithTimeout(ctx, cfg.OutboxRelay.ShutdownTimeout)
	defer orlShutdownCancel()
	err = outboxRelayWorker.Shutdown(orlShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - outboxRelayWorker.Shutdown: %w", err))
	}

	for _, controller := range controllers {
		ctrlShutdownCtx, ctrlShutdownCancel := context.WithTimeout(ctx, cfg.Consumer.ShutdownTimeout)
		err = controller.Shutdown(ctrlShutdownCtx)
		ctrlShutdownCancel()
		if err != nil {
			l.Error(fmt.Errorf("app - Run - controller.Shutdown: %w", err))
		}
	}
}

func demoInventory() []entity.InventoryItem {
	return []entity.InventoryItem{
		{ID: uuid.New(), ProductID: "WHEAT-001", ProductName: "Winter Wheat", AvailableQuantity: 1000, ReservedQuantity: 0},
		{ID: uuid.New(), ProductID: "CORN-001", ProductName: "Feed Corn", AvailableQuantity: 800, ReservedQuantity: 0},
		{ID: uuid.New(), ProductID: "SOY-001", ProductName: "Soybeans", AvailableQuantity: 500, ReservedQuantity: 0},
		{ID: uuid.New(), ProductID: "FERT-001", ProductName: "Nitrogen Fertilizer", AvailableQuantity: 300, ReservedQuantity: 0},
	}
}
