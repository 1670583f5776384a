package auth

import "fmt"

// Role is the closed set of member roles.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// Capability names an action gated by role.
type Capability string

const (
	CapManageCatalog      Capability = "manage_catalog"
	CapManageBlockedSlots Capability = "manage_blocked_slots"
	CapManageBookings     Capability = "manage_bookings"
	CapViewAudit          Capability = "view_audit"
	CapManagePayments     Capability = "manage_payments"
)

var capabilities = map[Role]map[Capability]bool{
	RoleAdmin: {
		CapManageCatalog:      true,
		CapManageBlockedSlots: true,
		CapManageBookings:     true,
		CapViewAudit:          true,
		CapManagePayments:     true,
	},
	RoleStaff: {
		CapManageBlockedSlots: true,
		CapManageBookings:     true,
	},
	RoleCustomer: {},
}

// ParseRole converts s into a known Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}

func (r Role) IsValid() bool {
	_, ok := capabilities[r]
	return ok
}

// Can reports whether r grants c.
func (r Role) Can(c Capability) bool {
	return capabilities[r][c]
}

func (r Role) String() string { return string(r) }
