// Package menu resolves per-role admin navigation visibility: which menu
// entries are hidden for a role, either from an explicit persisted
// restriction set or derived from the role's capabilities.
package menu

// Entry identifies an admin navigation entry. The slug is a path or
// path+query key; Requires names the capability needed to see the entry,
// empty when the entry has no declared requirement.
type Entry struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Icon     string `json:"icon"`
	Requires string `json:"-"`
}

// EntryState is an Entry tagged with its visibility for a role.
type EntryState struct {
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	Icon   string `json:"icon"`
	Hidden bool   `json:"hidden"`
}

// ContentType describes a dynamically registered content type whose listing
// menu appears alongside the core entries.
type ContentType struct {
	Name    string
	Title   string
	Icon    string
	EditCap string
}

// Subsystems flags the optional subsystems detected at startup. Their menu
// entries and capability requirements only exist while active.
type Subsystems struct {
	Commerce     bool
	NinjaForms   bool
	GravityForms bool
}

// coreEntries is the static candidate menu set with declared capability
// requirements. An entry with an empty requirement is never
// capability-hidden.
var coreEntries = []Entry{
	{Slug: "index.php", Title: "Dashboard", Icon: "icon-dashboard", Requires: "read"},
	{Slug: "edit.php", Title: "Posts", Icon: "icon-post", Requires: "edit_posts"},
	{Slug: "upload.php", Title: "Media", Icon: "icon-media", Requires: "upload_files"},
	{Slug: "edit.php?post_type=page", Title: "Pages", Icon: "icon-page", Requires: "edit_pages"},
	{Slug: "edit-comments.php", Title: "Comments", Icon: "icon-comments", Requires: "moderate_comments"},
	{Slug: "themes.php", Title: "Appearance", Icon: "icon-appearance", Requires: "switch_themes"},
	{Slug: "plugins.php", Title: "Plugins", Icon: "icon-plugins", Requires: "activate_plugins"},
	{Slug: "users.php", Title: "Users", Icon: "icon-users", Requires: "list_users"},
	{Slug: "tools.php", Title: "Tools", Icon: "icon-tools", Requires: "import"},
	{Slug: "options-general.php", Title: "Settings", Icon: "icon-settings", Requires: "manage_options"},
}

// commerceEntries joins the candidate set when the commerce subsystem is active.
var commerceEntries = []Entry{
	{Slug: "commerce", Title: "Commerce", Icon: "icon-cart", Requires: "manage_commerce"},
	{Slug: "edit.php?post_type=product", Title: "Products", Icon: "icon-products", Requires: "edit_products"},
	{Slug: "edit.php?post_type=shop_order", Title: "Orders", Icon: "icon-orders", Requires: "edit_shop_orders"},
	{Slug: "edit.php?post_type=shop_coupon", Title: "Coupons", Icon: "icon-coupons", Requires: "edit_shop_coupons"},
}

// formsEntries joins the candidate set when a form viewer is active.
var (
	ninjaEntry   = Entry{Slug: "nf-submissions", Title: "Form Submissions", Icon: "icon-forms", Requires: "nf_view_submissions"}
	gravityEntry = Entry{Slug: "gf-entries", Title: "Form Entries", Icon: "icon-forms", Requires: "gravityforms_view_entries"}
)

// Candidates assembles the full candidate menu set for the given
// environment: core entries, custom content types, then conditionally the
// detected subsystems.
func Candidates(contentTypes []ContentType, subsystems Subsystems) []Entry {
	candidates := make([]Entry, 0, len(coreEntries)+len(contentTypes)+len(commerceEntries)+2)
	candidates = append(candidates, coreEntries...)
	for _, ct := range contentTypes {
		icon := ct.Icon
		if icon == "" {
			icon = "icon-post"
		}
		candidates = append(candidates, Entry{
			Slug:     "edit.php?post_type=" + ct.Name,
			Title:    ct.Title,
			Icon:     icon,
			Requires: ct.EditCap,
		})
	}
	if subsystems.Commerce {
		candidates = append(candidates, commerceEntries...)
	}
	if subsystems.NinjaForms {
		candidates = append(candidates, ninjaEntry)
	}
	if subsystems.GravityForms {
		candidates = append(candidates, gravityEntry)
	}
	return candidates
}
