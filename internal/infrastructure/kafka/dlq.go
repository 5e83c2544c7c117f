package kafka

import (
	"context"
	"fmt"

	"github.com/agriflow/procurement/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

// DLQSuffix is appended to a topic name to form its dead-letter topic.
const DLQSuffix = ".dlq"

// DLQProducer parks messages whose handler exhausted its retries. The
// original payload, key and headers are forwarded untouched so the
// message can be replayed later.
type DLQProducer struct {
	*producer.Producer
}

func NewDLQProducer(producer *producer.Producer) *DLQProducer {
	return &DLQProducer{producer}
}

func (dp *DLQProducer) Publish(ctx context.Context, msg kafka.Message) error {
	dead := kafka.Message{
		Topic:   msg.Topic + DLQSuffix,
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: msg.Headers,
	}

	err := dp.Writer.WriteMessages(ctx, dead)
	if err != nil {
		return fmt.Errorf("DLQProducer - Publish - dp.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (dp *DLQProducer) Close() error {
	err := dp.Producer.Close()
	if err != nil {
		return fmt.Errorf("DLQProducer - Close: %w", err)
	}

	return nil
}
