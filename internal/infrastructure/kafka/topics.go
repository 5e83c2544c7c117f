package kafka

import "github.com/agriflow/procurement/internal/entity"

// Bus topics. Events flow toward the orchestrator, commands flow away
// from it.
const (
	TopicOrderEvents       = "order.events"
	TopicOrderCommands     = "order.commands"
	TopicInventoryEvents   = "inventory.events"
	TopicInventoryCommands = "inventory.commands"
	TopicPaymentEvents     = "payment.events"
	TopicPaymentCommands   = "payment.commands"
)

// TopicForAggregate maps an outbox aggregate type to its events topic.
func TopicForAggregate(aggregateType string) (string, bool) {
	switch aggregateType {
	case entity.AggregateOrder:
		return TopicOrderEvents, true
	case entity.AggregateInventory:
		return TopicInventoryEvents, true
	case entity.AggregatePayment:
		return TopicPaymentEvents, true
	default:
		return "", false
	}
}
