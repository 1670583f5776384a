package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/audit"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AuditLogModel is the GORM model for the audit_logs table.
type AuditLogModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	EventID    string          `gorm:"uniqueIndex;not null;size:64"`
	Action     string          `gorm:"not null;size:64;index"`
	EntityType string          `gorm:"not null;size:32;index:idx_audit_logs_entity"`
	EntityID   string          `gorm:"size:64;index:idx_audit_logs_entity"`
	ActorID    *uuid.UUID      `gorm:"type:uuid"`
	Payload    json.RawMessage `gorm:"type:jsonb;not null"`
	OccurredAt time.Time       `gorm:"type:timestamptz;not null;index"`
	RecordedAt time.Time       `gorm:"type:timestamptz;not null"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

// GormAuditRepository is the GORM-based implementation of audit.Repository.
type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Save inserts e unless an entry for the same event already exists.
func (r *GormAuditRepository) Save(ctx context.Context, e *audit.Entry) error {
	model := AuditLogModel{
		ID:         e.ID,
		EventID:    e.EventID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    e.Payload,
		OccurredAt: e.OccurredAt,
		RecordedAt: e.RecordedAt,
	}
	if len(model.Payload) == 0 {
		model.Payload = json.RawMessage("{}")
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save audit log: %w", err)
	}
	return nil
}

// List retrieves entries newest first.
func (r *GormAuditRepository) List(ctx context.Context, filter audit.Filter, page, limit int) ([]*audit.Entry, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Action != "" {
			db = db.Where("action = ?", filter.Action)
		}
		if filter.EntityType != "" {
			db = db.Where("entity_type = ?", filter.EntityType)
		}
		if filter.EntityID != "" {
			db = db.Where("entity_id = ?", filter.EntityID)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&AuditLogModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var models []AuditLogModel
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("occurred_at DESC, id DESC").
		Scopes(paginate(page, limit)).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	entries := make([]*audit.Entry, len(models))
	for i, m := range models {
		entries[i] = &audit.Entry{
			ID:         m.ID,
			EventID:    m.EventID,
			Action:     m.Action,
			EntityType: m.EntityType,
			EntityID:   m.EntityID,
			ActorID:    m.ActorID,
			Payload:    m.Payload,
			OccurredAt: m.OccurredAt,
			RecordedAt: m.RecordedAt,
		}
	}
	return entries, total, nil
}
