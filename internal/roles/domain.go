package roles

import (
	"regexp"
	"strings"
	"time"

	"github.com/menuguard/menuguard/internal/capability"
)

// Role is a named bundle of capabilities identified by a unique slug.
type Role struct {
	Name         string
	DisplayName  string
	Capabilities capability.Set
	Builtin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AdministratorRole is the protected superuser role. It can never be
// created, cloned, updated, deleted, assigned, exported, or imported
// through this service.
const AdministratorRole = "administrator"

// FallbackRole receives users whose role is deleted.
const FallbackRole = "subscriber"

// builtinRoles are immutable by policy; deletion is refused.
var builtinRoles = map[string]struct{}{
	"administrator": {},
	"editor":        {},
	"author":        {},
	"contributor":   {},
	"subscriber":    {},
}

// IsBuiltinRole reports whether the slug names one of the five built-in roles.
func IsBuiltinRole(name string) bool {
	_, ok := builtinRoles[name]
	return ok
}

// BuiltinRoles returns the five built-in roles with their default
// capability grants, used to seed an empty role store.
func BuiltinRoles() map[string]Role {
	return map[string]Role{
		"administrator": {
			Name:        "administrator",
			DisplayName: "Administrator",
			Capabilities: capability.NewSet(
				"read", "edit_posts", "publish_posts", "delete_posts",
				"edit_pages", "publish_pages", "delete_pages", "upload_files",
				"edit_comments", "moderate_comments", "edit_users", "list_users",
				"create_users", "delete_users", "manage_categories",
				"switch_themes", "edit_themes", "activate_plugins",
				"edit_plugins", "import", "manage_options",
			),
			Builtin: true,
		},
		"editor": {
			Name:        "editor",
			DisplayName: "Editor",
			Capabilities: capability.NewSet(
				"read", "edit_posts", "publish_posts", "delete_posts",
				"edit_pages", "publish_pages", "delete_pages", "upload_files",
				"edit_comments", "moderate_comments", "manage_categories",
			),
			Builtin: true,
		},
		"author": {
			Name:        "author",
			DisplayName: "Author",
			Capabilities: capability.NewSet(
				"read", "edit_posts", "publish_posts", "delete_posts", "upload_files",
			),
			Builtin: true,
		},
		"contributor": {
			Name:         "contributor",
			DisplayName:  "Contributor",
			Capabilities: capability.NewSet("read", "edit_posts", "delete_posts"),
			Builtin:      true,
		},
		"subscriber": {
			Name:         "subscriber",
			DisplayName:  "Subscriber",
			Capabilities: capability.NewSet("read"),
			Builtin:      true,
		},
	}
}

// IsProtectedRoleName reports whether a role name is, or resembles, the
// administrator identifier. The substring match is deliberate
// defense-in-depth against privilege escalation by naming; it also blocks
// legitimate-looking names that merely contain "admin".
func IsProtectedRoleName(name string) bool {
	lowered := strings.ToLower(name)
	return lowered == AdministratorRole ||
		lowered == "admin" ||
		strings.Contains(lowered, "admin")
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9_-]+`)

// SanitizeSlug normalizes a role name to a lowercase slug.
func SanitizeSlug(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	return slugInvalid.ReplaceAllString(lowered, "_")
}
