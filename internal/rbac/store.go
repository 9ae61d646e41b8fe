package rbac

import (
	"context"

	"github.com/lotworks/lotworks/internal/shared"
)

// Store is the persistence boundary for role→screen grants. All operations
// are addressed by role; reads always reflect the latest successful write.
type Store interface {
	// List returns the screens granted to role. An empty result is valid
	// and means "no screens granted".
	List(ctx context.Context, role shared.Role) ([]shared.Screen, error)
	// Add grants a screen. Adding an already-present screen is a no-op.
	Add(ctx context.Context, role shared.Role, screen shared.Screen) error
	// Remove revokes a screen. Removing an absent screen is a no-op.
	Remove(ctx context.Context, role shared.Role, screen shared.Screen) error
	// Replace atomically swaps the role's entire grant set.
	Replace(ctx context.Context, role shared.Role, screens []shared.Screen) error
}
