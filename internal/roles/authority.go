package roles

import (
	"context"

	"github.com/menuguard/menuguard/internal/capability"
)

// Authority is the host's role and user-role store: the single source of
// truth for which roles exist and which capabilities they grant. The
// service depends only on this interface so tests can substitute an
// in-memory fake.
type Authority interface {
	RoleExists(ctx context.Context, name string) (bool, error)
	// GetRole returns shared.ErrNotFound (wrapped) for unknown roles.
	GetRole(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, role Role) error
	// SetRoleCapabilities replaces the role's entire capability set and
	// display name. It never merges.
	SetRoleCapabilities(ctx context.Context, name, displayName string, caps capability.Set) error
	DeleteRole(ctx context.Context, name string) error
	UsersWithRole(ctx context.Context, name string) ([]int64, error)
	// SetUserRole replaces the user's primary role.
	SetUserRole(ctx context.Context, userID int64, name string) error
	// RoleOfUser returns the user's current primary role slug.
	RoleOfUser(ctx context.Context, userID int64) (string, error)
}
