package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuguard/menuguard/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the user directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns a user by ID.
func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, email, display_name, role_name, created_at FROM users WHERE id = $1`, id)
	var u User
	if err := row.Scan(&u.ID, &u.Login, &u.Email, &u.DisplayName, &u.RoleName, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("users: %d: %w", id, shared.ErrNotFound)
		}
		return User{}, err
	}
	return u, nil
}

// Search finds users matching the term against login, email, or display
// name, capped at limit rows.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, login, email, display_name, role_name, created_at
		 FROM users
		 WHERE login ILIKE '%' || $1 || '%'
		    OR email ILIKE '%' || $1 || '%'
		    OR display_name ILIKE '%' || $1 || '%'
		 ORDER BY login
		 LIMIT $2`, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var found []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Login, &u.Email, &u.DisplayName, &u.RoleName, &u.CreatedAt); err != nil {
			return nil, err
		}
		found = append(found, u)
	}
	return found, rows.Err()
}
