package menu

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// restrictionType is the only restriction kind currently modeled.
const restrictionType = "hide"

// Repository provides PostgreSQL backed restriction persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Hidden returns the persisted hidden slugs for a role.
func (r *Repository) Hidden(ctx context.Context, roleName string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT menu_slug FROM menu_restrictions WHERE role_name = $1 AND restriction_type = $2 ORDER BY menu_slug`,
		roleName, restrictionType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// Replace deletes the role's restriction rows and inserts the new set in
// one transaction.
func (r *Repository) Replace(ctx context.Context, roleName string, slugs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`DELETE FROM menu_restrictions WHERE role_name = $1`, roleName); err != nil {
		return err
	}

	if len(slugs) > 0 {
		batch := &pgx.Batch{}
		for _, slug := range slugs {
			batch.Queue(
				`INSERT INTO menu_restrictions (role_name, menu_slug, restriction_type, created_at, updated_at)
				 VALUES ($1, $2, $3, now(), now())
				 ON CONFLICT (role_name, menu_slug, restriction_type) DO NOTHING`,
				roleName, slug, restrictionType)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
