package capability

import (
	"regexp"
	"strings"
)

// Group identifies a capability grouping for the management UI.
type Group string

// Capability groups, keyed by naming convention.
const (
	GroupCore     Group = "core"
	GroupPosts    Group = "posts"
	GroupMedia    Group = "media"
	GroupUsers    Group = "users"
	GroupComments Group = "comments"
	GroupThemes   Group = "themes"
	GroupPlugins  Group = "plugins"
	GroupCommerce Group = "commerce"
	GroupForms    Group = "forms"
	GroupCustom   Group = "custom"
)

// GroupLabels maps groups to display labels.
var GroupLabels = map[Group]string{
	GroupCore:     "Core",
	GroupPosts:    "Posts & Pages",
	GroupMedia:    "Media",
	GroupUsers:    "Users",
	GroupComments: "Comments",
	GroupThemes:   "Themes",
	GroupPlugins:  "Plugins",
	GroupCommerce: "Commerce",
	GroupForms:    "Forms",
	GroupCustom:   "Custom",
}

// coreCatalog is the built-in capability list always offered by the
// management UI, independent of what existing roles currently grant.
var coreCatalog = []string{
	"read", "edit_posts", "edit_pages", "edit_others_posts", "edit_others_pages",
	"publish_posts", "publish_pages", "delete_posts", "delete_pages",
	"delete_others_posts", "delete_others_pages", "delete_published_posts",
	"delete_published_pages", "edit_published_posts", "edit_published_pages",
	"manage_categories", "manage_links", "moderate_comments", "upload_files",
	"edit_comments", "edit_others_comments", "delete_comments", "delete_others_comments",
	"switch_themes", "edit_themes", "activate_plugins", "edit_plugins",
	"edit_users", "list_users", "delete_users", "create_users", "manage_options",
	"import", "unfiltered_upload", "edit_dashboard",
	"update_plugins", "delete_plugins", "install_plugins", "update_themes",
	"install_themes", "update_core", "edit_theme_options", "customize",
}

// commerceCatalog is offered only when the commerce subsystem is detected.
var commerceCatalog = []string{
	"manage_commerce", "view_commerce_reports",
	"edit_products", "publish_products", "delete_products",
	"edit_others_products", "read_private_products",
	"edit_shop_orders", "read_shop_orders", "delete_shop_orders",
	"edit_shop_coupons",
}

// formsCatalog is offered only when a form subsystem is detected.
var formsCatalog = []string{
	"nf_view_submissions", "nf_edit_submissions", "nf_delete_submissions",
	"gravityforms_view_entries", "gravityforms_edit_entries", "gravityforms_delete_entries",
	"gravityforms_view_settings", "gravityforms_export_entries",
}

var (
	postsPattern    = regexp.MustCompile(`^(edit|publish|delete)_(published_)?(others_)?(posts|pages)`)
	usersPattern    = regexp.MustCompile(`^(edit|list|delete|create)_users`)
	commentsPattern = regexp.MustCompile(`^(edit|delete|moderate)_(others_)?comments`)
	themesPattern   = regexp.MustCompile(`^((switch|edit|install|update)_themes|edit_theme_options|customize)`)
	pluginsPattern  = regexp.MustCompile(`^(activate|edit|delete|install|update)_plugins`)
	commercePattern = regexp.MustCompile(`^(manage_commerce|view_commerce_reports|(edit|read|delete|publish)_(others_)?(private_)?(products?|shop_orders?|shop_coupons?))`)
	corePattern     = regexp.MustCompile(`^(read|edit_dashboard|manage_options|import|unfiltered_upload|update_core|manage_categories|manage_links)$`)
)

// GroupOf classifies a capability by its naming convention.
func GroupOf(cap string) Group {
	switch {
	case postsPattern.MatchString(cap):
		return GroupPosts
	case strings.HasPrefix(cap, "upload_files"):
		return GroupMedia
	case usersPattern.MatchString(cap):
		return GroupUsers
	case commentsPattern.MatchString(cap):
		return GroupComments
	case themesPattern.MatchString(cap):
		return GroupThemes
	case pluginsPattern.MatchString(cap):
		return GroupPlugins
	case commercePattern.MatchString(cap):
		return GroupCommerce
	case strings.HasPrefix(cap, "nf_") || strings.HasPrefix(cap, "gravityforms_"):
		return GroupForms
	case corePattern.MatchString(cap):
		return GroupCore
	default:
		return GroupCustom
	}
}

// DisplayName renders a capability slug as a human readable label.
func DisplayName(cap string) string {
	words := strings.Split(cap, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Catalog returns every capability the management UI should offer, given
// the detected optional subsystems and the capabilities already granted by
// existing roles.
func Catalog(commerceActive, formsActive bool, fromRoles ...string) Set {
	all := NewSet(coreCatalog...)
	if commerceActive {
		for _, c := range commerceCatalog {
			all.Add(c)
		}
	}
	if formsActive {
		for _, c := range formsCatalog {
			all.Add(c)
		}
	}
	for _, c := range fromRoles {
		all.Add(c)
	}
	return all
}

// Grouped buckets capabilities by group, preserving lexical order inside
// each bucket. Empty groups are omitted.
func Grouped(caps Set) map[Group][]string {
	grouped := make(map[Group][]string)
	for _, c := range caps.Sorted() {
		g := GroupOf(c)
		grouped[g] = append(grouped[g], c)
	}
	return grouped
}
