package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/catalog"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/database"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberModel is the GORM model for the members table.
type MemberModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null;size:200"`
	Email     string    `gorm:"uniqueIndex;not null;size:320"`
	Phone     string    `gorm:"size:40"`
	Role      string    `gorm:"not null;size:20;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (MemberModel) TableName() string { return "members" }

// ResourceModel is the GORM model for the resources table.
type ResourceModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"uniqueIndex;not null;size:200"`
	Description string    `gorm:"size:2000"`
	Status      string    `gorm:"not null;size:20;default:'available'"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (ResourceModel) TableName() string { return "resources" }

// ServiceModel is the GORM model for the services table.
type ServiceModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"uniqueIndex;not null;size:200"`
	Description string    `gorm:"size:2000"`
	PriceCents  int64     `gorm:"not null;default:0"`
	DurationMin int       `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (ServiceModel) TableName() string { return "services" }

// mapCatalogError turns constraint violations into client errors.
func mapCatalogError(entity, op string, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return domain.NewConflictError(entity + " already exists").
			WithDetails(map[string]string{"constraint": database.ConstraintName(err)})
	case database.IsForeignKeyViolation(err):
		return domain.NewConflictError(entity + " is still referenced by bookings or blocked slots").
			WithDetails(map[string]string{"constraint": database.ConstraintName(err)})
	default:
		return fmt.Errorf("failed to %s %s: %w", op, entity, err)
	}
}

func deleteByID(ctx context.Context, db *gorm.DB, model any, entity string, id uuid.UUID) error {
	result := db.WithContext(ctx).Where("id = ?", id).Delete(model)
	if result.Error != nil {
		return mapCatalogError(entity, "delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError(entity, id.String())
	}
	return nil
}

// --- Members ---

// GormMemberRepository is the GORM-based implementation of catalog.MemberRepository.
type GormMemberRepository struct {
	db *gorm.DB
}

func NewGormMemberRepository(db *gorm.DB) *GormMemberRepository {
	return &GormMemberRepository{db: db}
}

func (r *GormMemberRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Member, error) {
	var model MemberModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("member", id.String())
		}
		return nil, fmt.Errorf("failed to find member by ID: %w", err)
	}
	return toDomainMember(&model), nil
}

// List retrieves members ordered by name, optionally narrowed to one role.
func (r *GormMemberRepository) List(ctx context.Context, role *auth.Role, page, limit int) ([]*catalog.Member, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if role != nil {
			return db.Where("role = ?", role.String())
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&MemberModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count members: %w", err)
	}

	var models []MemberModel
	if err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("name ASC, id ASC").
		Scopes(paginate(page, limit)).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list members: %w", err)
	}

	members := make([]*catalog.Member, len(models))
	for i := range models {
		members[i] = toDomainMember(&models[i])
	}
	return members, total, nil
}

func (r *GormMemberRepository) Save(ctx context.Context, m *catalog.Member) error {
	if err := r.db.WithContext(ctx).Create(toMemberModel(m)).Error; err != nil {
		return mapCatalogError("member", "save", err)
	}
	return nil
}

func (r *GormMemberRepository) Update(ctx context.Context, m *catalog.Member) error {
	model := toMemberModel(m)
	result := r.db.WithContext(ctx).
		Model(&MemberModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"email":      model.Email,
			"phone":      model.Phone,
			"role":       model.Role,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return mapCatalogError("member", "update", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("member", model.ID.String())
	}
	return nil
}

func (r *GormMemberRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &MemberModel{}, "member", id)
}

func toMemberModel(m *catalog.Member) *MemberModel {
	return &MemberModel{
		ID:        m.ID(),
		Name:      m.Name(),
		Email:     m.Email(),
		Phone:     m.Phone(),
		Role:      m.Role().String(),
		CreatedAt: m.CreatedAt(),
		UpdatedAt: m.UpdatedAt(),
	}
}

func toDomainMember(m *MemberModel) *catalog.Member {
	return catalog.ReconstructMember(m.ID, m.Name, m.Email, m.Phone, auth.Role(m.Role), m.CreatedAt, m.UpdatedAt)
}

// --- Resources ---

// GormResourceRepository is the GORM-based implementation of catalog.ResourceRepository.
type GormResourceRepository struct {
	db *gorm.DB
}

func NewGormResourceRepository(db *gorm.DB) *GormResourceRepository {
	return &GormResourceRepository{db: db}
}

func (r *GormResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Resource, error) {
	var model ResourceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("resource", id.String())
		}
		return nil, fmt.Errorf("failed to find resource by ID: %w", err)
	}
	return toDomainResource(&model), nil
}

func (r *GormResourceRepository) List(ctx context.Context, page, limit int) ([]*catalog.Resource, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ResourceModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count resources: %w", err)
	}

	var models []ResourceModel
	if err := r.db.WithContext(ctx).
		Order("name ASC, id ASC").
		Scopes(paginate(page, limit)).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list resources: %w", err)
	}

	resources := make([]*catalog.Resource, len(models))
	for i := range models {
		resources[i] = toDomainResource(&models[i])
	}
	return resources, total, nil
}

func (r *GormResourceRepository) Save(ctx context.Context, res *catalog.Resource) error {
	if err := r.db.WithContext(ctx).Create(toResourceModel(res)).Error; err != nil {
		return mapCatalogError("resource", "save", err)
	}
	return nil
}

func (r *GormResourceRepository) Update(ctx context.Context, res *catalog.Resource) error {
	model := toResourceModel(res)
	result := r.db.WithContext(ctx).
		Model(&ResourceModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":        model.Name,
			"description": model.Description,
			"status":      model.Status,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		return mapCatalogError("resource", "update", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("resource", model.ID.String())
	}
	return nil
}

func (r *GormResourceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &ResourceModel{}, "resource", id)
}

func toResourceModel(r *catalog.Resource) *ResourceModel {
	return &ResourceModel{
		ID:          r.ID(),
		Name:        r.Name(),
		Description: r.Description(),
		Status:      string(r.Status()),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

func toDomainResource(m *ResourceModel) *catalog.Resource {
	return catalog.ReconstructResource(m.ID, m.Name, m.Description, catalog.ResourceStatus(m.Status), m.CreatedAt, m.UpdatedAt)
}

// --- Services ---

// GormServiceRepository is the GORM-based implementation of catalog.ServiceRepository.
type GormServiceRepository struct {
	db *gorm.DB
}

func NewGormServiceRepository(db *gorm.DB) *GormServiceRepository {
	return &GormServiceRepository{db: db}
}

func (r *GormServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var model ServiceModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("service", id.String())
		}
		return nil, fmt.Errorf("failed to find service by ID: %w", err)
	}
	return toDomainService(&model), nil
}

func (r *GormServiceRepository) List(ctx context.Context, page, limit int) ([]*catalog.Service, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&ServiceModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count services: %w", err)
	}

	var models []ServiceModel
	if err := r.db.WithContext(ctx).
		Order("name ASC, id ASC").
		Scopes(paginate(page, limit)).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list services: %w", err)
	}

	services := make([]*catalog.Service, len(models))
	for i := range models {
		services[i] = toDomainService(&models[i])
	}
	return services, total, nil
}

func (r *GormServiceRepository) Save(ctx context.Context, s *catalog.Service) error {
	if err := r.db.WithContext(ctx).Create(toServiceModel(s)).Error; err != nil {
		return mapCatalogError("service", "save", err)
	}
	return nil
}

func (r *GormServiceRepository) Update(ctx context.Context, s *catalog.Service) error {
	model := toServiceModel(s)
	result := r.db.WithContext(ctx).
		Model(&ServiceModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":         model.Name,
			"description":  model.Description,
			"price_cents":  model.PriceCents,
			"duration_min": model.DurationMin,
			"updated_at":   model.UpdatedAt,
		})
	if result.Error != nil {
		return mapCatalogError("service", "update", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("service", model.ID.String())
	}
	return nil
}

func (r *GormServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &ServiceModel{}, "service", id)
}

func toServiceModel(s *catalog.Service) *ServiceModel {
	return &ServiceModel{
		ID:          s.ID(),
		Name:        s.Name(),
		Description: s.Description(),
		PriceCents:  s.PriceCents(),
		DurationMin: s.DurationMin(),
		CreatedAt:   s.CreatedAt(),
		UpdatedAt:   s.UpdatedAt(),
	}
}

func toDomainService(m *ServiceModel) *catalog.Service {
	return catalog.ReconstructService(m.ID, m.Name, m.Description, m.PriceCents, m.DurationMin, m.CreatedAt, m.UpdatedAt)
}

// --- Reference lookups ---

// GormReferenceLookup answers existence checks for blocked slot, availability
// and payment writes.
type GormReferenceLookup struct {
	db *gorm.DB
}

func NewGormReferenceLookup(db *gorm.DB) *GormReferenceLookup {
	return &GormReferenceLookup{db: db}
}

func (l *GormReferenceLookup) MemberExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(l.db.WithContext(ctx), &MemberModel{}, id)
}

func (l *GormReferenceLookup) ResourceExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(l.db.WithContext(ctx), &ResourceModel{}, id)
}

func (l *GormReferenceLookup) BookingExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return exists(l.db.WithContext(ctx), &BookingModel{}, id)
}
