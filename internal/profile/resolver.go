package profile

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Source is the read-only lookup the resolver wraps.
type Source interface {
	FetchByID(ctx context.Context, id string) (*User, error)
}

// Resolver deduplicates concurrent fetches for the same user id. Results are
// not cached across calls: a role change must be visible on the very next
// resolution.
type Resolver struct {
	source Source
	group  singleflight.Group
}

// NewResolver constructs a Resolver.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// FetchByID resolves a profile, collapsing concurrent lookups per id.
func (r *Resolver) FetchByID(ctx context.Context, id string) (*User, error) {
	result, err, _ := r.group.Do(id, func() (any, error) {
		return r.source.FetchByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*User), nil
}
