package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleAdmin.Can(CapManageCatalog))
	assert.True(t, RoleAdmin.Can(CapViewAudit))
	assert.True(t, RoleStaff.Can(CapManageBlockedSlots))
	assert.False(t, RoleStaff.Can(CapManageCatalog))
	assert.False(t, RoleCustomer.Can(CapManageBookings))
	assert.True(t, RoleAdmin.Can(CapManagePayments))
	assert.False(t, RoleStaff.Can(CapManagePayments))
	assert.False(t, Role("owner").Can(CapManageBookings))
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("staff")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "bookline", time.Minute, time.Hour)
	id := uuid.New()

	token, err := m.GenerateAccessToken(id, RoleStaff)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.Equal(t, RoleStaff, claims.Role)
}

func TestValidateTokenRejects(t *testing.T) {
	m := NewJWTManager("secret", "bookline", time.Minute, time.Hour)
	id := uuid.New()

	expired, err := NewJWTManager("secret", "bookline", -time.Minute, time.Hour).GenerateAccessToken(id, RoleAdmin)
	require.NoError(t, err)
	_, err = m.ValidateToken(expired)
	assert.Error(t, err)

	foreign, err := NewJWTManager("other", "bookline", time.Minute, time.Hour).GenerateAccessToken(id, RoleAdmin)
	require.NoError(t, err)
	_, err = m.ValidateToken(foreign)
	assert.Error(t, err)

	wrongIssuer, err := NewJWTManager("secret", "elsewhere", time.Minute, time.Hour).GenerateAccessToken(id, RoleAdmin)
	require.NoError(t, err)
	_, err = m.ValidateToken(wrongIssuer)
	assert.Error(t, err)

	badRole, err := m.GenerateAccessToken(id, Role("owner"))
	require.NoError(t, err)
	_, err = m.ValidateToken(badRole)
	assert.Error(t, err)
}
