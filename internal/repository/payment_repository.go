package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/payment"
	"github.com/bookline/service-booking/internal/pkg/database"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentModel is the GORM model for the payments table.
type PaymentModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID      uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountCents    int64     `gorm:"not null;default:0"`
	Method         string    `gorm:"not null;size:50;index"`
	Status         string    `gorm:"not null;size:20;default:'pending';index"`
	TransactionRef string    `gorm:"size:200"`
	CreatedAt      time.Time `gorm:"not null;index"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (PaymentModel) TableName() string { return "payments" }

// GormPaymentRepository is the GORM-based implementation of payment.Repository.
type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	var model PaymentModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("payment", id.String())
		}
		return nil, fmt.Errorf("failed to find payment by ID: %w", err)
	}
	return toDomainPayment(&model), nil
}

func createdBetween(from, to *time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where("created_at >= ?", *from)
		}
		if to != nil {
			db = db.Where("created_at <= ?", *to)
		}
		return db
	}
}

func (r *GormPaymentRepository) List(ctx context.Context, filter payment.ListFilter, page, limit int) ([]*payment.Payment, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.BookingID != nil {
			db = db.Where("booking_id = ?", *filter.BookingID)
		}
		if filter.Method != "" {
			db = db.Where("method = ?", filter.Method)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", filter.Status.String())
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&PaymentModel{}).
		Scopes(scope, createdBetween(filter.From, filter.To)).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var models []PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(scope, createdBetween(filter.From, filter.To)).
		Order("created_at DESC, id ASC").
		Scopes(paginate(page, limit)).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}

	payments := make([]*payment.Payment, len(models))
	for i := range models {
		payments[i] = toDomainPayment(&models[i])
	}
	return payments, total, nil
}

func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	if err := r.db.WithContext(ctx).Create(toPaymentModel(p)).Error; err != nil {
		return mapPaymentError("save", err)
	}
	return nil
}

func (r *GormPaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	model := toPaymentModel(p)
	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"booking_id":      model.BookingID,
			"amount_cents":    model.AmountCents,
			"method":          model.Method,
			"status":          model.Status,
			"transaction_ref": model.TransactionRef,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return mapPaymentError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("payment", model.ID.String())
	}
	return nil
}

func (r *GormPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &PaymentModel{}, "payment", id)
}

func (r *GormPaymentRepository) TotalsByStatus(ctx context.Context, from, to *time.Time) ([]payment.StatusTotal, error) {
	var rows []struct {
		Status      string
		Count       int64
		AmountCents int64
	}
	if err := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Scopes(createdBetween(from, to)).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount_cents), 0) AS amount_cents").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to total payments by status: %w", err)
	}

	totals := make([]payment.StatusTotal, len(rows))
	for i, row := range rows {
		totals[i] = payment.StatusTotal{Status: payment.Status(row.Status), Count: row.Count, AmountCents: row.AmountCents}
	}
	return totals, nil
}

func mapPaymentError(op string, err error) error {
	if database.IsForeignKeyViolation(err) {
		return domain.NewValidationError("payment references a missing booking").
			WithCode("FOREIGN_KEY_INVALID").
			WithDetails(map[string]string{"constraint": database.ConstraintName(err)})
	}
	return fmt.Errorf("failed to %s payment: %w", op, err)
}

func toPaymentModel(p *payment.Payment) *PaymentModel {
	return &PaymentModel{
		ID:             p.ID(),
		BookingID:      p.BookingID(),
		AmountCents:    p.AmountCents(),
		Method:         p.Method(),
		Status:         p.Status().String(),
		TransactionRef: p.TransactionRef(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

func toDomainPayment(m *PaymentModel) *payment.Payment {
	return payment.Reconstruct(m.ID, m.BookingID, m.AmountCents, m.Method, payment.Status(m.Status), m.TransactionRef, m.CreatedAt, m.UpdatedAt)
}
