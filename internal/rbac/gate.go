package rbac

import (
	"context"

	"github.com/lotworks/lotworks/internal/shared"
)

// Gate answers screen-access questions from the registry. It deliberately
// never consults capability flags: an admin without a role_permissions row
// for a screen is denied that screen. See the note on CapabilityFlags.
type Gate struct {
	registry *Registry
}

// NewGate constructs a Gate.
func NewGate(registry *Registry) *Gate {
	return &Gate{registry: registry}
}

// HasScreenAccess reports whether role holds a grant for screen.
func (g *Gate) HasScreenAccess(ctx context.Context, role shared.Role, screen shared.Screen) (bool, error) {
	screens, err := g.registry.List(ctx, role)
	if err != nil {
		return false, err
	}
	for _, s := range screens {
		if s == screen {
			return true, nil
		}
	}
	return false, nil
}
