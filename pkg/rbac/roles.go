package rbac

import (
	"fmt"
	"slices"
	"strings"
)

// Role is the acting capacity of an identity.
type Role string

const (
	// RoleNone is the null role of an unauthenticated caller.
	RoleNone         Role = ""
	RolePrincipal    Role = "principal"
	RoleStaffAdmin   Role = "staff_admin"
	RoleStaffCashier Role = "staff_cashier"
)

// Roles lists every non-null role.
var Roles = []Role{RolePrincipal, RoleStaffAdmin, RoleStaffCashier}

// StaffRoles lists the roles a delegated session may carry.
var StaffRoles = []Role{RoleStaffAdmin, RoleStaffCashier}

// IsValid reports whether r is one of Roles.
func (r Role) IsValid() bool {
	return slices.Contains(Roles, r)
}

// IsStaff reports whether r can be assigned to a delegated session.
func (r Role) IsStaff() bool {
	return slices.Contains(StaffRoles, r)
}

func (r Role) String() string {
	if r == RoleNone {
		return "none"
	}
	return string(r)
}

// ParseRole converts a stored or user-supplied role name.
// Hyphenated spellings ("staff-admin") are accepted.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !r.IsValid() {
		return RoleNone, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}
