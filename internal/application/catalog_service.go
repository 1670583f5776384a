package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bookline/service-booking/internal/domain/catalog"
	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateMemberRequest is the request DTO for registering a member.
type CreateMemberRequest struct {
	Name  string `json:"name" binding:"required,notblank,max=200"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"max=40"`
	Role  string `json:"role" binding:"required,oneof=admin staff customer"`
}

// UpdateMemberRequest is the request DTO for updating a member. Empty fields are kept.
type UpdateMemberRequest struct {
	Name  string `json:"name" binding:"max=200"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone" binding:"max=40"`
	Role  string `json:"role" binding:"omitempty,oneof=admin staff customer"`
}

type MemberDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateResourceRequest struct {
	Name        string `json:"name" binding:"required,notblank,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

type UpdateResourceRequest struct {
	Name        *string `json:"name" binding:"omitempty,notblank,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Status      *string `json:"status" binding:"omitempty,oneof=available unavailable"`
}

type ResourceDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateServiceRequest struct {
	Name        string `json:"name" binding:"required,notblank,max=200"`
	Description string `json:"description" binding:"max=2000"`
	PriceCents  int64  `json:"price_cents" binding:"gte=0"`
	DurationMin int    `json:"duration_min" binding:"required,gt=0"`
}

type UpdateServiceRequest struct {
	Name        *string `json:"name" binding:"omitempty,notblank,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	PriceCents  *int64  `json:"price_cents" binding:"omitempty,gte=0"`
	DurationMin *int    `json:"duration_min" binding:"omitempty,gt=0"`
}

type ServiceDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	DurationMin int       `json:"duration_min"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CatalogService implements use cases for members, resources and services.
type CatalogService struct {
	members   catalog.MemberRepository
	resources catalog.ResourceRepository
	services  catalog.ServiceRepository
	logger    *zap.Logger
}

func NewCatalogService(
	members catalog.MemberRepository,
	resources catalog.ResourceRepository,
	services catalog.ServiceRepository,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{members: members, resources: resources, services: services, logger: logger}
}

// --- Members ---

func (s *CatalogService) CreateMember(ctx context.Context, req CreateMemberRequest) (*MemberDTO, error) {
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	m, err := catalog.NewMember(req.Name, req.Email, req.Phone, role)
	if err != nil {
		return nil, err
	}
	if err := s.members.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	s.logger.Info("member created", zap.String("member_id", m.ID().String()), zap.String("role", role.String()))
	result := toMemberDTO(m)
	return &result, nil
}

func (s *CatalogService) GetMember(ctx context.Context, id uuid.UUID) (*MemberDTO, error) {
	m, err := s.members.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toMemberDTO(m)
	return &result, nil
}

// ListMembers lists members, optionally narrowed to one role.
func (s *CatalogService) ListMembers(ctx context.Context, role string, page, limit int) (*domain.PaginatedResult[MemberDTO], error) {
	var rolePtr *auth.Role
	if role != "" {
		r, err := auth.ParseRole(role)
		if err != nil {
			return nil, domain.NewValidationError(err.Error())
		}
		rolePtr = &r
	}
	members, total, err := s.members.List(ctx, rolePtr, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

func (s *CatalogService) UpdateMember(ctx context.Context, id uuid.UUID, req UpdateMemberRequest) (*MemberDTO, error) {
	m, err := s.members.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.Update(req.Name, req.Email, req.Phone, auth.Role(req.Role)); err != nil {
		return nil, err
	}
	if err := s.members.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	result := toMemberDTO(m)
	return &result, nil
}

func (s *CatalogService) DeleteMember(ctx context.Context, id uuid.UUID) error {
	if err := s.members.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	s.logger.Info("member deleted", zap.String("member_id", id.String()))
	return nil
}

// --- Resources ---

func (s *CatalogService) CreateResource(ctx context.Context, req CreateResourceRequest) (*ResourceDTO, error) {
	r, err := catalog.NewResource(req.Name, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.resources.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	result := toResourceDTO(r)
	return &result, nil
}

func (s *CatalogService) GetResource(ctx context.Context, id uuid.UUID) (*ResourceDTO, error) {
	r, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toResourceDTO(r)
	return &result, nil
}

func (s *CatalogService) ListResources(ctx context.Context, page, limit int) (*domain.PaginatedResult[ResourceDTO], error) {
	resources, total, err := s.resources.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	dtos := make([]ResourceDTO, len(resources))
	for i, r := range resources {
		dtos[i] = toResourceDTO(r)
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

func (s *CatalogService) UpdateResource(ctx context.Context, id uuid.UUID, req UpdateResourceRequest) (*ResourceDTO, error) {
	r, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var status *catalog.ResourceStatus
	if req.Status != nil {
		st := catalog.ResourceStatus(*req.Status)
		status = &st
	}
	if err := r.Update(req.Name, req.Description, status); err != nil {
		return nil, err
	}
	if err := s.resources.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update resource: %w", err)
	}
	result := toResourceDTO(r)
	return &result, nil
}

func (s *CatalogService) DeleteResource(ctx context.Context, id uuid.UUID) error {
	if err := s.resources.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	s.logger.Info("resource deleted", zap.String("resource_id", id.String()))
	return nil
}

// --- Services ---

func (s *CatalogService) CreateService(ctx context.Context, req CreateServiceRequest) (*ServiceDTO, error) {
	svc, err := catalog.NewService(req.Name, req.Description, req.PriceCents, req.DurationMin)
	if err != nil {
		return nil, err
	}
	if err := s.services.Save(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	result := toServiceDTO(svc)
	return &result, nil
}

func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*ServiceDTO, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toServiceDTO(svc)
	return &result, nil
}

func (s *CatalogService) ListServices(ctx context.Context, page, limit int) (*domain.PaginatedResult[ServiceDTO], error) {
	services, total, err := s.services.List(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	dtos := make([]ServiceDTO, len(services))
	for i, svc := range services {
		dtos[i] = toServiceDTO(svc)
	}
	return domain.NewPaginatedResult(dtos, total, page, limit), nil
}

func (s *CatalogService) UpdateService(ctx context.Context, id uuid.UUID, req UpdateServiceRequest) (*ServiceDTO, error) {
	svc, err := s.services.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := svc.Update(req.Name, req.Description, req.PriceCents, req.DurationMin); err != nil {
		return nil, err
	}
	if err := s.services.Update(ctx, svc); err != nil {
		return nil, fmt.Errorf("failed to update service: %w", err)
	}
	result := toServiceDTO(svc)
	return &result, nil
}

func (s *CatalogService) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := s.services.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}
	s.logger.Info("service deleted", zap.String("service_id", id.String()))
	return nil
}

func toMemberDTO(m *catalog.Member) MemberDTO {
	return MemberDTO{
		ID:        m.ID(),
		Name:      m.Name(),
		Email:     m.Email(),
		Phone:     m.Phone(),
		Role:      m.Role().String(),
		CreatedAt: m.CreatedAt(),
		UpdatedAt: m.UpdatedAt(),
	}
}

func toResourceDTO(r *catalog.Resource) ResourceDTO {
	return ResourceDTO{
		ID:          r.ID(),
		Name:        r.Name(),
		Description: r.Description(),
		Status:      string(r.Status()),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

func toServiceDTO(s *catalog.Service) ServiceDTO {
	return ServiceDTO{
		ID:          s.ID(),
		Name:        s.Name(),
		Description: s.Description(),
		PriceCents:  s.PriceCents(),
		DurationMin: s.DurationMin(),
		CreatedAt:   s.CreatedAt(),
		UpdatedAt:   s.UpdatedAt(),
	}
}
