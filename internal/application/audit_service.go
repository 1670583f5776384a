package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/audit"
	"github.com/bookline/service-booking/internal/domain/event"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/bookline/service-booking/internal/pkg/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListAuditLogsQuery holds the optional audit log filters.
type ListAuditLogsQuery struct {
	Action     string `form:"action"`
	EntityType string `form:"entity_type"`
	EntityID   string `form:"entity_id"`
}

// AuditService records published domain events and serves them to admins.
type AuditService struct {
	repo   audit.Repository
	logger *zap.Logger
}

func NewAuditService(repo audit.Repository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// RecordEvent stores ce as an audit entry. Replays of the same event are ignored.
func (s *AuditService) RecordEvent(ctx context.Context, ce kafka.CloudEvent) error {
	var env event.Envelope
	if err := ce.ParseData(&env); err != nil {
		return domain.NewValidationError("malformed event payload").Wrap(err)
	}

	occurred := ce.Time
	if occurred.IsZero() {
		occurred = env.Timestamp
	}
	entry := &audit.Entry{
		ID:         uuid.New(),
		EventID:    ce.ID,
		Action:     ce.Type,
		EntityType: event.EntityOf(ce.Type),
		EntityID:   ce.Subject,
		ActorID:    env.ActorID,
		Payload:    ce.Data,
		OccurredAt: occurred.UTC(),
		RecordedAt: time.Now().UTC(),
	}
	if err := s.repo.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}

	s.logger.Debug("audit entry recorded",
		zap.String("action", entry.Action),
		zap.String("entity_id", entry.EntityID),
	)
	return nil
}

// ListAuditLogs returns entries newest first.
func (s *AuditService) ListAuditLogs(ctx context.Context, q ListAuditLogsQuery, page, limit int) (*domain.PaginatedResult[*audit.Entry], error) {
	entries, total, err := s.repo.List(ctx, audit.Filter{
		Action:     q.Action,
		EntityType: q.EntityType,
		EntityID:   q.EntityID,
	}, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return domain.NewPaginatedResult(entries, total, page, limit), nil
}
