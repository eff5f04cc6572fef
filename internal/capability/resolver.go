package capability

// dependencies maps a capability to the capabilities it requires. The table
// is shallow today, but Resolve iterates to a fixed point so multi-level
// chains added later still close correctly.
var dependencies = map[string][]string{
	// Post and page management requires read access.
	"edit_posts":    {Baseline},
	"edit_pages":    {Baseline},
	"publish_posts": {Baseline, "edit_posts"},
	"publish_pages": {Baseline, "edit_pages"},
	"delete_posts":  {Baseline, "edit_posts"},
	"delete_pages":  {Baseline, "edit_pages"},

	"upload_files": {Baseline},

	"edit_comments":     {Baseline},
	"moderate_comments": {Baseline, "edit_comments"},

	"edit_users":   {Baseline},
	"list_users":   {Baseline},
	"create_users": {Baseline},
	"delete_users": {Baseline},

	"manage_categories": {Baseline},

	"switch_themes":    {Baseline},
	"edit_themes":      {Baseline},
	"activate_plugins": {Baseline},
	"edit_plugins":     {Baseline},

	// Commerce subsystem.
	"edit_products":    {Baseline},
	"publish_products": {Baseline, "edit_products"},
	"delete_products":  {Baseline, "edit_products"},
	"edit_shop_orders": {Baseline},
	"read_shop_orders": {Baseline},
}

// Resolve expands the requested capability set into a closed set honoring
// the declared prerequisite table. The result always contains the baseline
// read capability when the input is non-empty. Unknown capability names
// pass through unchanged; Resolve never fails and has no side effects.
func Resolve(requested Set) Set {
	resolved := requested.Clone()
	if len(resolved) == 0 {
		return resolved
	}

	for added := true; added; {
		added = false
		for cap := range resolved {
			for _, dep := range dependencies[cap] {
				if !resolved.Has(dep) {
					resolved.Add(dep)
					added = true
				}
			}
		}
	}

	resolved.Add(Baseline)
	return resolved
}

// Requires returns the declared direct prerequisites of a capability.
func Requires(cap string) []string {
	deps := dependencies[cap]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}
