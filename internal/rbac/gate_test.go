package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lotworks/lotworks/internal/shared"
)

func TestFlagsDerivePurelyFromRole(t *testing.T) {
	admin := FlagsFor(shared.RoleAdmin)
	require.True(t, admin.CanAccessAdmin)
	require.True(t, admin.CanManageUsers)
	require.True(t, admin.CanEditBHPHSettings)

	manager := FlagsFor(shared.RoleManager)
	require.True(t, manager.CanManageUsers)
	require.False(t, manager.CanEditBHPHSettings)

	require.Equal(t, CapabilityFlags{}, FlagsFor(shared.RoleSeller))
	require.Equal(t, CapabilityFlags{}, FlagsFor(shared.RoleInternalSeller))
}

// An admin without a stored grant is denied the screen. The admin flag opens
// the admin tier, never individual screens.
func TestAdminFlagDoesNotGrantScreens(t *testing.T) {
	gate := NewGate(NewRegistry(newMemStore(), nil))

	ok, err := gate.HasScreenAccess(context.Background(), shared.RoleAdmin, shared.ScreenDashboard)
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, FlagsFor(shared.RoleAdmin).CanAccessAdmin)
}

// The reverse also holds: a stored grant never confers capability flags.
func TestScreenGrantDoesNotConferFlags(t *testing.T) {
	store := newMemStore()
	seedGrants(t, store, shared.RoleSeller, shared.ScreenBHPH)
	gate := NewGate(NewRegistry(store, nil))

	ok, err := gate.HasScreenAccess(context.Background(), shared.RoleSeller, shared.ScreenBHPH)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, FlagsFor(shared.RoleSeller).CanEditBHPHSettings)
}

func TestGateChecksGrantedScreens(t *testing.T) {
	store := newMemStore()
	seedGrants(t, store, shared.RoleSeller, shared.ScreenDashboard, shared.ScreenCustomers)
	gate := NewGate(NewRegistry(store, nil))
	ctx := context.Background()

	ok, err := gate.HasScreenAccess(ctx, shared.RoleSeller, shared.ScreenCustomers)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = gate.HasScreenAccess(ctx, shared.RoleSeller, shared.ScreenVehicles)
	require.NoError(t, err)
	require.False(t, ok)
}
