package infrastructure

import (
	"context"

	"github.com/agriflow/procurement/internal/entity"
)

type (
	// EventsSender publishes outbox rows to the bus, routing each row to
	// the topic of its aggregate type.
	EventsSender interface {
		SendEvents(ctx context.Context, events []*entity.OutboxEvent) error
		Close() error
	}

	// CommandSender delivers a command to a service topic, keyed so that
	// commands for one order stay ordered.
	CommandSender interface {
		SendCommand(ctx context.Context, topic, key string, cmd entity.Command) error
		Close() error
	}
)
