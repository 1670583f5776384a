package catalog

import (
	"testing"

	"github.com/bookline/service-booking/internal/pkg/auth"
	"github.com/bookline/service-booking/internal/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMember(t *testing.T) {
	m, err := NewMember("  Ana Lim ", "Ana@Example.com", "", auth.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lim", m.Name())
	assert.Equal(t, "ana@example.com", m.Email())

	_, err = NewMember("Ana", "not-an-email", "", auth.RoleStaff)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewMember("Ana", "ana@example.com", "", auth.Role("owner"))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestMemberUpdateKeepsBlankFields(t *testing.T) {
	m, err := NewMember("Ana", "ana@example.com", "123", auth.RoleCustomer)
	require.NoError(t, err)

	require.NoError(t, m.Update("", "", "", auth.RoleStaff))
	assert.Equal(t, "Ana", m.Name())
	assert.Equal(t, "123", m.Phone())
	assert.Equal(t, auth.RoleStaff, m.Role())
}

func TestService(t *testing.T) {
	_, err := NewService("Haircut", "", 2500, 0)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = NewService("Haircut", "", -1, 30)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	s, err := NewService("Haircut", "", 2500, 30)
	require.NoError(t, err)

	zero := 0
	assert.Error(t, s.Update(nil, nil, nil, &zero))
	assert.Equal(t, 30, s.DurationMin(), "failed update leaves service unchanged")

	sixty := 60
	require.NoError(t, s.Update(nil, nil, nil, &sixty))
	assert.Equal(t, 60, s.DurationMin())
}

func TestResource(t *testing.T) {
	r, err := NewResource("Room 1", "")
	require.NoError(t, err)
	assert.Equal(t, ResourceAvailable, r.Status())

	bad := ResourceStatus("broken")
	assert.Error(t, r.Update(nil, nil, &bad))

	off := ResourceUnavailable
	require.NoError(t, r.Update(nil, nil, &off))
	assert.Equal(t, ResourceUnavailable, r.Status())
}
