package rbac

import (
	"context"
	"log/slog"

	"github.com/lotworks/lotworks/internal/shared"
)

// Registry serves the dynamic role→screen mapping. There is no client-side
// cache: permissions gate UI visibility and must match storage exactly, so
// every read goes to the store and every mutation re-reads before answering.
type Registry struct {
	store  Store
	logger *slog.Logger
}

// NewRegistry constructs a Registry.
func NewRegistry(store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, logger: logger}
}

// List returns the current grant set for role.
func (r *Registry) List(ctx context.Context, role shared.Role) ([]shared.Screen, error) {
	return r.store.List(ctx, role)
}

// Add grants a screen and returns the refetched grant set so callers always
// display confirmed storage state. On write failure the refetched set is
// still returned when possible, reconciling the caller with reality.
func (r *Registry) Add(ctx context.Context, role shared.Role, screen shared.Screen) ([]shared.Screen, error) {
	if err := r.store.Add(ctx, role, screen); err != nil {
		r.logger.Error("permission add failed",
			slog.String("role", role.String()), slog.String("screen", screen.String()), slog.Any("error", err))
		return r.reconcile(ctx, role, err)
	}
	return r.store.List(ctx, role)
}

// Remove revokes a screen and returns the refetched grant set.
func (r *Registry) Remove(ctx context.Context, role shared.Role, screen shared.Screen) ([]shared.Screen, error) {
	if err := r.store.Remove(ctx, role, screen); err != nil {
		r.logger.Error("permission remove failed",
			slog.String("role", role.String()), slog.String("screen", screen.String()), slog.Any("error", err))
		return r.reconcile(ctx, role, err)
	}
	return r.store.List(ctx, role)
}

// Replace swaps the whole grant set for role and returns the refetched set.
func (r *Registry) Replace(ctx context.Context, role shared.Role, screens []shared.Screen) ([]shared.Screen, error) {
	if err := r.store.Replace(ctx, role, screens); err != nil {
		r.logger.Error("permission replace failed",
			slog.String("role", role.String()), slog.Any("error", err))
		return r.reconcile(ctx, role, err)
	}
	return r.store.List(ctx, role)
}

// reconcile re-reads storage after a failed write. The original write error
// is preserved; the refetched set tells the caller what actually holds.
func (r *Registry) reconcile(ctx context.Context, role shared.Role, writeErr error) ([]shared.Screen, error) {
	screens, listErr := r.store.List(ctx, role)
	if listErr != nil {
		r.logger.Error("permission reconcile refetch failed",
			slog.String("role", role.String()), slog.Any("error", listErr))
		return nil, writeErr
	}
	return screens, writeErr
}
