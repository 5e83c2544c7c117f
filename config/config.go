package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP        HTTP
		Log         Log
		PG          PG
		Kafka       Kafka
		Consumer    Consumer
		OutboxRelay OutboxRelay
		Idempotency Idempotency
		Payment     Payment
		Inventory   Inventory
		Swagger     Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax     int    `env:"PG_POOL_MAX,required"`
		URL         string `env:"PG_URL,required"`
		LockTimeout string `env:"PG_LOCK_TIMEOUT" envDefault:"3s"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS,required"`
	}

	Consumer struct {
		SagaGroupID      string        `env:"CONSUMER_SAGA_GROUP_ID" envDefault:"saga-orchestrator-group"`
		InventoryGroupID string        `env:"CONSUMER_INVENTORY_GROUP_ID" envDefault:"inventory-service-group"`
		PaymentGroupID   string        `env:"CONSUMER_PAYMENT_GROUP_ID" envDefault:"payment-service-group"`
		OrderGroupID     string        `env:"CONSUMER_ORDER_GROUP_ID" envDefault:"order-service-group"`
		Workers          int           `env:"CONSUMER_WORKERS" envDefault:"4"`
		MaxAttempts      int           `env:"CONSUMER_MAX_ATTEMPTS" envDefault:"3"`
		RetryBackoff     time.Duration `env:"CONSUMER_RETRY_BACKOFF" envDefault:"1s"`
		ProcessTimeout   time.Duration `env:"CONSUMER_PROCESS_TIMEOUT" envDefault:"15s"`
		CommitTimeout    time.Duration `env:"CONSUMER_COMMIT_TIMEOUT" envDefault:"2s"`
		ShutdownTimeout  time.Duration `env:"CONSUMER_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	OutboxRelay struct {
		PollInterval        time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"2s"`
		ProcessBatchTimeout time.Duration `env:"OUTBOX_RELAY_PROCESS_BATCH_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout     time.Duration `env:"OUTBOX_RELAY_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize           int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
	}

	Idempotency struct {
		TTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	}

	Payment struct {
		DeclineAbove float64 `env:"PAYMENT_DECLINE_ABOVE" envDefault:"0"` // 0 approves everything
	}

	Inventory struct {
		SeedDemoData bool `env:"INVENTORY_SEED_DEMO_DATA" envDefault:"false"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}
