package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lotworks/lotworks/internal/platform/db"
	"github.com/lotworks/lotworks/internal/shared"
)

// PGStore implements Store on PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// List returns the screens granted to role, in stable order.
func (s *PGStore) List(ctx context.Context, role shared.Role) ([]shared.Screen, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT screen_id FROM role_permissions WHERE role = $1 ORDER BY screen_id`, role.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	screens := make([]shared.Screen, 0, 8)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		screen, err := shared.ParseScreen(raw)
		if err != nil {
			return nil, fmt.Errorf("rbac: stored grant for %s: %w", role, err)
		}
		screens = append(screens, screen)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return screens, nil
}

// Add grants a screen to role. Duplicate grants are silently absorbed.
func (s *PGStore) Add(ctx context.Context, role shared.Role, screen shared.Screen) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO role_permissions (id, role, screen_id, created_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (role, screen_id) DO NOTHING`,
		uuid.NewString(), role.String(), screen.String())
	return mapPGError(err)
}

// Remove revokes a screen from role. Deleting an absent grant succeeds.
func (s *PGStore) Remove(ctx context.Context, role shared.Role, screen shared.Screen) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM role_permissions WHERE role = $1 AND screen_id = $2`,
		role.String(), screen.String())
	return err
}

// Replace swaps the role's grant set inside one transaction. A failed insert
// rolls the delete back, so the role is never observed half-updated.
func (s *PGStore) Replace(ctx context.Context, role shared.Role, screens []shared.Screen) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM role_permissions WHERE role = $1`, role.String()); err != nil {
			return err
		}
		if len(screens) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, screen := range screens {
			batch.Queue(
				`INSERT INTO role_permissions (id, role, screen_id, created_at)
				 VALUES ($1, $2, $3, NOW())
				 ON CONFLICT (role, screen_id) DO NOTHING`,
				uuid.NewString(), role.String(), screen.String())
		}
		results := tx.SendBatch(ctx, batch)
		defer results.Close()
		for range screens {
			if _, err := results.Exec(); err != nil {
				return mapPGError(err)
			}
		}
		return results.Close()
	})
}

// mapPGError translates constraint violations into domain errors.
func mapPGError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation: grant already present
			return nil
		case "23503", "23514": // foreign key / check violation
			return fmt.Errorf("%w: %s", shared.ErrValidation, pgErr.Message)
		}
	}
	return err
}

var _ Store = (*PGStore)(nil)
