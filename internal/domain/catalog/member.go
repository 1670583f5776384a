package catalog

import (
	"net/mail"
	"strings"
	"time"

	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/google/uuid"
)

// Member is a person known to the platform: a customer, a staff member who
// can be booked, or an administrator.
type Member struct {
	id        uuid.UUID
	name      string
	email     string
	phone     string
	role      auth.Role
	createdAt time.Time
	updatedAt time.Time
}

func NewMember(name, email, phone string, role auth.Role) (*Member, error) {
	m := &Member{id: uuid.New()}
	if err := m.set(name, email, phone, role); err != nil {
		return nil, err
	}
	m.createdAt = time.Now().UTC()
	m.updatedAt = m.createdAt
	return m, nil
}

// ReconstructMember rebuilds a Member from persistence data (no validation).
func ReconstructMember(id uuid.UUID, name, email, phone string, role auth.Role, createdAt, updatedAt time.Time) *Member {
	return &Member{id: id, name: name, email: email, phone: phone, role: role, createdAt: createdAt, updatedAt: updatedAt}
}

func (m *Member) set(name, email, phone string, role auth.Role) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("member name is required")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.NewValidationError("member email is invalid")
	}
	if !role.IsValid() {
		return domain.NewValidationError("invalid role: " + role.String())
	}
	m.name, m.email, m.phone, m.role = name, email, strings.TrimSpace(phone), role
	return nil
}

// Update replaces the mutable fields; empty strings keep the current value.
func (m *Member) Update(name, email, phone string, role auth.Role) error {
	if name == "" {
		name = m.name
	}
	if email == "" {
		email = m.email
	}
	if phone == "" {
		phone = m.phone
	}
	if role == "" {
		role = m.role
	}
	if err := m.set(name, email, phone, role); err != nil {
		return err
	}
	m.updatedAt = time.Now().UTC()
	return nil
}

func (m *Member) ID() uuid.UUID        { return m.id }
func (m *Member) Name() string         { return m.name }
func (m *Member) Email() string        { return m.email }
func (m *Member) Phone() string        { return m.phone }
func (m *Member) Role() auth.Role      { return m.role }
func (m *Member) CreatedAt() time.Time { return m.createdAt }
func (m *Member) UpdatedAt() time.Time { return m.updatedAt }
