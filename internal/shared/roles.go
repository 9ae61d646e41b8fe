package shared

import "fmt"

// Role classifies a user account. The set is closed: anything outside it is
// rejected at the parse boundary so invalid roles are unrepresentable further
// in.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleSeller  Role = "seller"
	// RoleInternalSeller exists only in the permission domain; it is never
	// assigned to a user record but can carry its own screen grants.
	RoleInternalSeller Role = "internal_seller"
)

// UserRoles lists roles that may appear on a user record.
func UserRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleSeller}
}

// PermissionRoles lists roles addressable in the permission registry.
func PermissionRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleSeller, RoleInternalSeller}
}

// ParseRole validates a raw role value.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleManager, RoleSeller, RoleInternalSeller:
		return Role(raw), nil
	}
	return "", fmt.Errorf("%w: role %q", ErrValidation, raw)
}

func (r Role) String() string { return string(r) }
