package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes one message. Returning an error triggers a retry.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// Consumer reads one topic as a member of a consumer group.
type Consumer struct {
	reader     *kafkago.Reader
	logger     *zap.Logger
	maxRetries int
	backoff    time.Duration
}

func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        500 * time.Millisecond,
			StartOffset:    kafkago.FirstOffset,
			CommitInterval: 0,
		}),
		logger:     logger.With(zap.String("topic", topic), zap.String("group", groupID)),
		maxRetries: 3,
		backoff:    200 * time.Millisecond,
	}
}

// Consume blocks, handing each message to handler until ctx is cancelled.
// A message is committed once handled or once its retries are exhausted.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		c.handle(ctx, handler, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to commit message", zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler MessageHandler, msg kafkago.Message) {
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return
		}
		if attempt >= c.maxRetries || ctx.Err() != nil {
			c.logger.Error("dropping message after retries",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempts", attempt),
				zap.Error(err),
			)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
