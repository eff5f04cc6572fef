package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/shared"
)

const uniqueViolation = "23505"

// Repository is the PostgreSQL backed Authority implementation. Writes are
// plain read-modify-write with no optimistic locking; two simultaneous
// edits to the same role race and the last writer wins (accepted
// limitation).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RoleExists reports whether a role slug is taken.
func (r *Repository) RoleExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

// GetRole fetches a role by slug.
func (r *Repository) GetRole(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT name, display_name, capabilities, builtin, created_at, updated_at FROM roles WHERE name = $1`, name)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("roles: %s: %w", name, shared.ErrNotFound)
		}
		return Role{}, err
	}
	return role, nil
}

// ListRoles returns all roles ordered by slug.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, display_name, capabilities, builtin, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRole inserts a new role definition.
func (r *Repository) CreateRole(ctx context.Context, role Role) error {
	caps, err := json.Marshal(role.Capabilities.Sorted())
	if err != nil {
		return fmt.Errorf("roles: encode capabilities: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO roles (name, display_name, capabilities, builtin, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, now(), now())`,
		role.Name, role.DisplayName, caps, role.Builtin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("roles: %s: %w", role.Name, shared.ErrAlreadyExists)
		}
		return err
	}
	return nil
}

// SetRoleCapabilities replaces the role's capability set and display name.
func (r *Repository) SetRoleCapabilities(ctx context.Context, name, displayName string, caps capability.Set) error {
	encoded, err := json.Marshal(caps.Sorted())
	if err != nil {
		return fmt.Errorf("roles: encode capabilities: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET display_name = $2, capabilities = $3, updated_at = now() WHERE name = $1`,
		name, displayName, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("roles: %s: %w", name, shared.ErrNotFound)
	}
	return nil
}

// DeleteRole removes a role definition.
func (r *Repository) DeleteRole(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("roles: %s: %w", name, shared.ErrNotFound)
	}
	return nil
}

// UsersWithRole lists IDs of users whose primary role matches.
func (r *Repository) UsersWithRole(ctx context.Context, name string) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE role_name = $1 ORDER BY id`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetUserRole replaces the user's primary role.
func (r *Repository) SetUserRole(ctx context.Context, userID int64, name string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET role_name = $2 WHERE id = $1`, userID, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("users: %d: %w", userID, shared.ErrNotFound)
	}
	return nil
}

// RoleOfUser returns the user's primary role slug.
func (r *Repository) RoleOfUser(ctx context.Context, userID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT role_name FROM users WHERE id = $1`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("users: %d: %w", userID, shared.ErrNotFound)
		}
		return "", err
	}
	return name, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (Role, error) {
	var (
		role Role
		caps []byte
	)
	if err := row.Scan(&role.Name, &role.DisplayName, &caps, &role.Builtin, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return Role{}, err
	}
	var names []string
	if len(caps) > 0 {
		if err := json.Unmarshal(caps, &names); err != nil {
			return Role{}, fmt.Errorf("roles: decode capabilities: %w", err)
		}
	}
	role.Capabilities = capability.NewSet(names...)
	return role, nil
}
