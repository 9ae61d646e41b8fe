package rbac

import (
	"time"

	"github.com/lotworks/lotworks/internal/shared"
)

// RolePermission grants one role access to one screen. role+screen is unique;
// the set of rows for a role is that role's dynamic access list.
type RolePermission struct {
	ID        string        `json:"id"`
	Role      shared.Role   `json:"role"`
	Screen    shared.Screen `json:"screen_id"`
	CreatedAt time.Time     `json:"created_at"`
}

// CapabilityFlags are derived purely from role. They never consult the
// permission registry, and the registry never consults them: the two gating
// mechanisms are independent. An admin with no role_permissions rows has all
// flags set and access to zero screens.
type CapabilityFlags struct {
	IsAdmin             bool `json:"is_admin"`
	IsManager           bool `json:"is_manager"`
	CanEditVehicles     bool `json:"can_edit_vehicles"`
	CanManageUsers      bool `json:"can_manage_users"`
	CanAccessAdmin      bool `json:"can_access_admin"`
	CanEditBHPHSettings bool `json:"can_edit_bhph_settings"`
}

// FlagsFor computes the capability flags for a role. Deterministic and total:
// unknown or seller-tier roles get the zero value.
func FlagsFor(role shared.Role) CapabilityFlags {
	isAdmin := role == shared.RoleAdmin
	isManager := role == shared.RoleManager
	return CapabilityFlags{
		IsAdmin:             isAdmin,
		IsManager:           isManager,
		CanEditVehicles:     isAdmin || isManager,
		CanManageUsers:      isAdmin || isManager,
		CanAccessAdmin:      isAdmin || isManager,
		CanEditBHPHSettings: isAdmin,
	}
}
