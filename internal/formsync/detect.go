// Package formsync bridges role capability changes to third-party form
// subsystems (Ninja Forms, Gravity Forms): whenever a role changes, the
// per-user form access snapshots for everyone holding that role are
// recomputed so the form viewers see the new grants.
package formsync

import "strings"

// Integrations flags which form subsystems are enabled for this
// deployment. Detection is configuration driven.
type Integrations struct {
	NinjaForms   bool
	GravityForms bool
}

// IntegrationsFromNames parses the configured integration list.
func IntegrationsFromNames(names []string) Integrations {
	var enabled Integrations
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "ninja", "ninja_forms", "ninjaforms":
			enabled.NinjaForms = true
		case "gravity", "gravity_forms", "gravityforms":
			enabled.GravityForms = true
		}
	}
	return enabled
}

// Any reports whether at least one integration is enabled.
func (i Integrations) Any() bool {
	return i.NinjaForms || i.GravityForms
}
