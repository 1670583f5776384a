package events

import (
	"context"
	"errors"

	"github.com/bookline/service-booking/internal/domain/event"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AuditRecorder stores one consumed event.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, ce kafka.CloudEvent) error
}

// AuditEventConsumer listens to booking events and writes them to the audit log.
type AuditEventConsumer struct {
	consumer *kafka.Consumer
	recorder AuditRecorder
	logger   *zap.Logger
}

// NewAuditEventConsumer creates a new AuditEventConsumer.
func NewAuditEventConsumer(
	brokers []string,
	groupID string,
	recorder AuditRecorder,
	logger *zap.Logger,
) *AuditEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, event.TopicBookingEvents, logger)
	return &AuditEventConsumer{
		consumer: consumer,
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins consuming booking events. This blocks until the context is cancelled.
func (c *AuditEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *AuditEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *AuditEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from booking topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	if event.EntityOf(cloudEvent.Type) == "unknown" {
		c.logger.Debug("ignoring unhandled booking event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}

	if err := c.recorder.RecordEvent(ctx, cloudEvent); err != nil {
		var de *domain.Error
		if errors.As(err, &de) && de.Kind == domain.KindValidation {
			c.logger.Error("dropping malformed event",
				zap.String("event_id", cloudEvent.ID),
				zap.String("type", cloudEvent.Type),
				zap.Error(err),
			)
			return nil // Don't retry malformed data
		}
		c.logger.Error("failed to record audit entry",
			zap.String("event_id", cloudEvent.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
