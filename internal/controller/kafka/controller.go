package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	kafkapc "github.com/agriflow/procurement/internal/infrastructure/kafka"
	"github.com/agriflow/procurement/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// Handler processes one decoded bus message.
type Handler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}

// Controller drains one consumer group with a pool of workers. Each
// message gets a bounded number of handler attempts with doubling
// backoff; exhausted messages go to the dead-letter topic. The offset is
// committed only after the handler succeeded or the message was parked,
// so a crash mid-flight results in redelivery, never loss.
type Controller struct {
	name     string
	handler  Handler
	consumer *kafkapc.MessageConsumer
	dlq      *kafkapc.DLQProducer
	logger   logger.Interface

	maxAttempts    int
	retryBackoff   time.Duration
	processTimeout time.Duration
	commitTimeout  time.Duration

	workers int
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	started atomic.Bool
}

func New(
	name string,
	handler Handler,
	consumer *kafkapc.MessageConsumer,
	dlq *kafkapc.DLQProducer,
	l logger.Interface,
	opts ...Option,
) *Controller {
	c := &Controller{
		name:           name,
		handler:        handler,
		consumer:       consumer,
		dlq:            dlq,
		logger:         l,
		maxAttempts:    3,
		retryBackoff:   time.Second,
		processTimeout: 30 * time.Second,
		commitTimeout:  10 * time.Second,
		workers:        4,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return fmt.Errorf("Controller - Start - %s already started", c.name)
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	tasks := make(chan kafka.Message, c.workers*2)

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(tasks)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(tasks)

		for {
			select {
			case <-c.ctx.Done():
				return
			default:
				msg, err := c.consumer.ReadMessage(c.ctx)
				if err != nil {
					if !errors.Is(err, context.Canceled) {
						c.logger.Error(err, "Controller - Start - %s - c.consumer.ReadMessage", c.name)
					}
					continue
				}

				select {
				case tasks <- msg:
				case <-c.ctx.Done():
					return
				}
			}
		}
	}()

	return nil
}

func (c *Controller) worker(tasks <-chan kafka.Message) {
	defer c.wg.Done()

	for msg := range tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error(fmt.Errorf("panic %v", r), "Controller - worker - %s - panic", c.name)
				}
			}()

			if err := c.process(msg); err != nil {
				c.logger.Error(err, "Controller - worker - %s - c.process", c.name)
				return
			}

			commitCtx, commitCancel := context.WithTimeout(c.ctx, c.commitTimeout)
			err := c.consumer.CommitMessage(commitCtx, msg)
			commitCancel()
			if err != nil {
				c.logger.Error(err, "Controller - worker - %s - c.consumer.CommitMessage", c.name)
			}
		}()
	}
}

// process runs the handler with retries; a returned error means the
// message must not be committed yet.
func (c *Controller) process(msg kafka.Message) error {
	backoff := c.retryBackoff

	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		handleCtx, handleCancel := context.WithTimeout(c.ctx, c.processTimeout)
		lastErr = c.handler.Handle(handleCtx, msg)
		handleCancel()

		if lastErr == nil {
			return nil
		}

		c.logger.Warn("Controller - process - %s - attempt %d/%d for %s@%d: %v",
			c.name, attempt, c.maxAttempts, msg.Topic, msg.Offset, lastErr)

		if attempt < c.maxAttempts {
			select {
			case <-time.After(backoff):
			case <-c.ctx.Done():
				return fmt.Errorf("Controller - process - %s - cancelled: %w", c.name, c.ctx.Err())
			}
			backoff *= 2
		}
	}

	// attempts exhausted: park the message so the partition can move on
	dlqCtx, dlqCancel := context.WithTimeout(c.ctx, c.commitTimeout)
	err := c.dlq.Publish(dlqCtx, msg)
	dlqCancel()
	if err != nil {
		return fmt.Errorf("Controller - process - %s - c.dlq.Publish: %w (handler: %v)", c.name, err, lastErr)
	}

	c.logger.Error(lastErr, "Controller - process - %s - message %s@%d moved to DLQ", c.name, msg.Topic, msg.Offset)

	return nil
}

func (c *Controller) Shutdown(ctx context.Context) error {
	if !c.started.Load() {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})

	go func() {
		c.wg.Wait()
		c.consumer.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return nil
	}
}
