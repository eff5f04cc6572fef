package menu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/roles"
	"github.com/menuguard/menuguard/internal/shared"
)

type fakeRestrictions struct {
	byRole map[string][]string
}

func (f *fakeRestrictions) Hidden(_ context.Context, roleName string) ([]string, error) {
	return f.byRole[roleName], nil
}

func (f *fakeRestrictions) Replace(_ context.Context, roleName string, slugs []string) error {
	if f.byRole == nil {
		f.byRole = make(map[string][]string)
	}
	f.byRole[roleName] = append([]string(nil), slugs...)
	return nil
}

type fakeOptions struct {
	values map[string]any
}

func (f *fakeOptions) Get(_ context.Context, name string, target any) (bool, error) {
	stored, ok := f.values[name]
	if !ok {
		return false, nil
	}
	if m, ok := target.(*map[string][]string); ok {
		*m = stored.(map[string][]string)
	}
	return true, nil
}

func (f *fakeOptions) Set(_ context.Context, name string, value any) error {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	f.values[name] = value
	return nil
}

type fakeRoleSource struct {
	roles map[string]roles.Role
}

func (f *fakeRoleSource) GetRole(_ context.Context, name string) (roles.Role, error) {
	role, ok := f.roles[name]
	if !ok {
		return roles.Role{}, shared.ErrNotFound
	}
	return role, nil
}

func newTestMenuService(t *testing.T) (*Service, *fakeRestrictions, *fakeOptions, *fakeRoleSource) {
	t.Helper()
	restrictions := &fakeRestrictions{byRole: make(map[string][]string)}
	legacy := &fakeOptions{}
	source := &fakeRoleSource{roles: map[string]roles.Role{
		"subscriber": {
			Name:         "subscriber",
			Capabilities: capability.NewSet("read"),
		},
		"editor": {
			Name: "editor",
			Capabilities: capability.NewSet(
				"read", "edit_posts", "upload_files", "edit_pages",
				"moderate_comments", "edit_comments",
			),
		},
	}}
	svc := NewService(nil, restrictions, legacy, source, nil, nil, Subsystems{})
	return svc, restrictions, legacy, source
}

func TestHiddenSlugsDerivedFromCapabilities(t *testing.T) {
	svc, _, _, _ := newTestMenuService(t)

	hidden, err := svc.HiddenSlugs(context.Background(), "subscriber")
	require.NoError(t, err)

	assert.Contains(t, hidden, "edit.php", "no edit_posts")
	assert.Contains(t, hidden, "options-general.php", "no manage_options")
	assert.NotContains(t, hidden, "index.php", "read grants the dashboard")
}

func TestHiddenSlugsExplicitOverrideWins(t *testing.T) {
	svc, restrictions, _, _ := newTestMenuService(t)

	// The explicit set hides only tools, even though capabilities would
	// hide far more.
	restrictions.byRole["subscriber"] = []string{"tools.php"}

	hidden, err := svc.HiddenSlugs(context.Background(), "subscriber")
	require.NoError(t, err)
	assert.Equal(t, []string{"tools.php"}, hidden)
}

func TestHiddenSlugsEmptyOverrideFallsBackToDefaults(t *testing.T) {
	svc, restrictions, _, _ := newTestMenuService(t)

	restrictions.byRole["subscriber"] = nil

	hidden, err := svc.HiddenSlugs(context.Background(), "subscriber")
	require.NoError(t, err)
	assert.Contains(t, hidden, "edit.php", "empty override is not an override")
}

func TestHiddenSlugsLegacyMirrorFallback(t *testing.T) {
	svc, _, legacy, _ := newTestMenuService(t)

	require.NoError(t, legacy.Set(context.Background(), "menu_restrictions", map[string][]string{
		"subscriber": {"upload.php"},
	}))

	hidden, err := svc.HiddenSlugs(context.Background(), "subscriber")
	require.NoError(t, err)
	assert.Equal(t, []string{"upload.php"}, hidden)
}

func TestHiddenSlugsUnknownRoleRestrictsNothing(t *testing.T) {
	svc, _, _, _ := newTestMenuService(t)

	hidden, err := svc.HiddenSlugs(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, hidden)
}

func TestStructureTagsHiddenEntries(t *testing.T) {
	svc, restrictions, _, _ := newTestMenuService(t)
	restrictions.byRole["editor"] = []string{"upload.php"}

	entries, err := svc.Structure(context.Background(), "editor")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	byShown := make(map[string]bool, len(entries))
	for _, e := range entries {
		byShown[e.Slug] = e.Hidden
	}
	assert.True(t, byShown["upload.php"])
	assert.False(t, byShown["index.php"])
}

func TestSaveRestrictionsReplacesWholesale(t *testing.T) {
	svc, restrictions, legacy, _ := newTestMenuService(t)

	require.NoError(t, svc.SaveRestrictions(context.Background(), "editor", []string{"tools.php", "upload.php"}))
	require.NoError(t, svc.SaveRestrictions(context.Background(), "editor", []string{"themes.php"}))

	assert.Equal(t, []string{"themes.php"}, restrictions.byRole["editor"], "prior set fully replaced")

	mirror := legacy.values["menu_restrictions"].(map[string][]string)
	assert.Equal(t, []string{"themes.php"}, mirror["editor"])
}

func TestSaveRestrictionsRequiresRole(t *testing.T) {
	svc, _, _, _ := newTestMenuService(t)

	err := svc.SaveRestrictions(context.Background(), "", []string{"tools.php"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestResetBakesInDefaults(t *testing.T) {
	svc, restrictions, _, _ := newTestMenuService(t)

	// An operator override that shows everything.
	restrictions.byRole["subscriber"] = []string{"tools.php"}

	defaults, err := svc.ResetRestrictions(context.Background(), "subscriber")
	require.NoError(t, err)

	assert.Contains(t, defaults, "edit.php")
	assert.Contains(t, defaults, "tools.php")
	assert.Equal(t, defaults, restrictions.byRole["subscriber"], "defaults persisted as the new explicit set")
}

func TestEntriesWithoutRequirementNeverHidden(t *testing.T) {
	source := &fakeRoleSource{roles: map[string]roles.Role{
		"bare": {Name: "bare", Capabilities: capability.NewSet("read")},
	}}
	svc := NewService(nil, &fakeRestrictions{byRole: map[string][]string{}}, nil, source,
		nil, []ContentType{{Name: "faq", Title: "FAQs"}}, Subsystems{})

	hidden, err := svc.HiddenSlugs(context.Background(), "bare")
	require.NoError(t, err)
	assert.NotContains(t, hidden, "edit.php?post_type=faq", "no declared requirement")
}

func TestCandidatesIncludeSubsystems(t *testing.T) {
	all := Candidates(nil, Subsystems{Commerce: true, NinjaForms: true, GravityForms: true})
	slugs := make([]string, len(all))
	for i, e := range all {
		slugs[i] = e.Slug
	}
	assert.Contains(t, slugs, "edit.php?post_type=product")
	assert.Contains(t, slugs, "nf-submissions")
	assert.Contains(t, slugs, "gf-entries")

	core := Candidates(nil, Subsystems{})
	coreSlugs := make([]string, len(core))
	for i, e := range core {
		coreSlugs[i] = e.Slug
	}
	assert.NotContains(t, coreSlugs, "nf-submissions")
	assert.NotContains(t, coreSlugs, "edit.php?post_type=shop_order")
}
