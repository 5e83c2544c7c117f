package kafka

import (
	"context"
	"fmt"

	"github.com/agriflow/procurement/internal/entity"
	"github.com/agriflow/procurement/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

// EventProducer publishes outbox rows, routing each to the events topic
// of its aggregate type. Messages are keyed by aggregate id so one
// order's events land on one partition, in order.
type EventProducer struct {
	*producer.Producer
}

func NewEventProducer(producer *producer.Producer) *EventProducer {
	return &EventProducer{producer}
}

func (ep *EventProducer) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	var msgsToSend []kafka.Message

	for _, event := range events {
		topic, ok := TopicForAggregate(event.AggregateType)
		if !ok {
			return fmt.Errorf("EventProducer - SendEvents - unknown aggregate type %q", event.AggregateType)
		}

		msg := kafka.Message{
			Topic: topic,
			Key:   []byte(event.AggregateID),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(event.ID.String())},
				{Key: "event_type", Value: []byte(event.EventType)},
			},
		}
		msgsToSend = append(msgsToSend, msg)
	}

	if len(msgsToSend) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}

// CommandProducer delivers orchestrator commands to service topics,
// keyed by order id.
type CommandProducer struct {
	*producer.Producer
}

func NewCommandProducer(producer *producer.Producer) *CommandProducer {
	return &CommandProducer{producer}
}

func (cp *CommandProducer) SendCommand(ctx context.Context, topic, key string, cmd entity.Command) error {
	value, err := entity.MarshalCommand(cmd)
	if err != nil {
		return fmt.Errorf("CommandProducer - SendCommand - entity.MarshalCommand: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "command_type", Value: []byte(cmd.CommandType())},
		},
	}

	err = cp.Writer.WriteMessages(ctx, msg)
	if err != nil {
		return fmt.Errorf("CommandProducer - SendCommand - cp.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (cp *CommandProducer) Close() error {
	err := cp.Producer.Close()
	if err != nil {
		return fmt.Errorf("CommandProducer - Close: %w", err)
	}

	return nil
}
