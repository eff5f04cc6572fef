package roles

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menuguard/menuguard/internal/activity"
	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/events"
	"github.com/menuguard/menuguard/internal/shared"
)

// fakeAuthority is an in-memory role and user-role store.
type fakeAuthority struct {
	roles     map[string]Role
	userRoles map[int64]string
}

func newFakeAuthority() *fakeAuthority {
	fa := &fakeAuthority{
		roles:     make(map[string]Role),
		userRoles: make(map[int64]string),
	}
	for name, role := range BuiltinRoles() {
		fa.roles[name] = role
	}
	return fa
}

func (f *fakeAuthority) RoleExists(_ context.Context, name string) (bool, error) {
	_, ok := f.roles[name]
	return ok, nil
}

func (f *fakeAuthority) GetRole(_ context.Context, name string) (Role, error) {
	role, ok := f.roles[name]
	if !ok {
		return Role{}, fmt.Errorf("roles: %s: %w", name, shared.ErrNotFound)
	}
	return role, nil
}

func (f *fakeAuthority) ListRoles(_ context.Context) ([]Role, error) {
	names := make([]string, 0, len(f.roles))
	for name := range f.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Role, 0, len(names))
	for _, name := range names {
		out = append(out, f.roles[name])
	}
	return out, nil
}

func (f *fakeAuthority) CreateRole(_ context.Context, role Role) error {
	if _, ok := f.roles[role.Name]; ok {
		return fmt.Errorf("roles: %s: %w", role.Name, shared.ErrAlreadyExists)
	}
	f.roles[role.Name] = role
	return nil
}

func (f *fakeAuthority) SetRoleCapabilities(_ context.Context, name, displayName string, caps capability.Set) error {
	role, ok := f.roles[name]
	if !ok {
		return fmt.Errorf("roles: %s: %w", name, shared.ErrNotFound)
	}
	role.DisplayName = displayName
	role.Capabilities = caps
	f.roles[name] = role
	return nil
}

func (f *fakeAuthority) DeleteRole(_ context.Context, name string) error {
	if _, ok := f.roles[name]; !ok {
		return fmt.Errorf("roles: %s: %w", name, shared.ErrNotFound)
	}
	delete(f.roles, name)
	return nil
}

func (f *fakeAuthority) UsersWithRole(_ context.Context, name string) ([]int64, error) {
	var ids []int64
	for id, role := range f.userRoles {
		if role == name {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeAuthority) SetUserRole(_ context.Context, userID int64, name string) error {
	f.userRoles[userID] = name
	return nil
}

func (f *fakeAuthority) RoleOfUser(_ context.Context, userID int64) (string, error) {
	role, ok := f.userRoles[userID]
	if !ok {
		return "", fmt.Errorf("roles: user %d: %w", userID, shared.ErrNotFound)
	}
	return role, nil
}

// fakeInvalidator records which users had cached capabilities cleared.
type fakeInvalidator struct {
	cleared  []int64
	excluded []int64
}

func (f *fakeInvalidator) InvalidateUsers(_ context.Context, userIDs []int64, excludeUserID int64) int {
	count := 0
	for _, id := range userIDs {
		if id == excludeUserID {
			f.excluded = append(f.excluded, id)
			continue
		}
		f.cleared = append(f.cleared, id)
		count++
	}
	return count
}

// fakeRecorder collects activity records.
type fakeRecorder struct {
	records []activity.Record
}

func (f *fakeRecorder) Record(_ context.Context, rec activity.Record) error {
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRecorder) actions() []string {
	out := make([]string, len(f.records))
	for i, rec := range f.records {
		out[i] = rec.Action
	}
	return out
}

func newTestService(t *testing.T) (*Service, *fakeAuthority, *fakeInvalidator, *fakeRecorder) {
	t.Helper()
	fa := newFakeAuthority()
	inv := &fakeInvalidator{}
	rec := &fakeRecorder{}
	svc := NewService(nil, fa, inv, rec, events.NewBus(nil), nil)
	return svc, fa, inv, rec
}

func operatorContext(id string) context.Context {
	sess := &shared.Session{}
	sess.SetOperator(id)
	return shared.ContextWithSession(context.Background(), sess)
}

func TestCreateResolvesDependencies(t *testing.T) {
	svc, fa, _, rec := newTestService(t)

	role, err := svc.Create(context.Background(), "reviewer", "Reviewer", []string{"publish_posts"})
	require.NoError(t, err)

	assert.True(t, role.Capabilities.Has("publish_posts"))
	assert.True(t, role.Capabilities.Has("edit_posts"), "publish implies edit")
	assert.True(t, role.Capabilities.Has("read"), "baseline always present")

	stored, ok := fa.roles["reviewer"]
	require.True(t, ok)
	assert.True(t, stored.Capabilities.Equal(role.Capabilities))
	assert.Equal(t, []string{"role_created"}, rec.actions())
}

func TestCreateRejectsAdminLikeNames(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	for _, name := range []string{"administrator", "wp_administrator", "my-admin-helper", "ADMIN"} {
		_, err := svc.Create(context.Background(), name, "Nope", nil)
		assert.ErrorIs(t, err, shared.ErrSecurity, "name %q", name)
	}
}

func TestCreateRejectsEmptyInput(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "", "Display", nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = svc.Create(context.Background(), "slug", "   ", nil)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCreateRejectsDuplicates(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "editorial", "Editorial", nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "editorial", "Editorial Again", nil)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestCreateSanitizesSlug(t *testing.T) {
	svc, fa, _, _ := newTestService(t)

	role, err := svc.Create(context.Background(), "Content Review!", "Content Review", nil)
	require.NoError(t, err)
	assert.Equal(t, "content_review_", role.Name)
	_, ok := fa.roles[role.Name]
	assert.True(t, ok)
}

func TestUpdateReplacesCapabilitySet(t *testing.T) {
	svc, fa, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "reviewer", "Reviewer", []string{"publish_posts", "upload_files"})
	require.NoError(t, err)

	// Replacement semantics: the new set wholly supersedes the old one.
	updated, err := svc.Update(context.Background(), "reviewer", "Reviewer", []string{"edit_pages"})
	require.NoError(t, err)

	assert.True(t, updated.Capabilities.Has("edit_pages"))
	assert.True(t, updated.Capabilities.Has("read"))
	assert.False(t, updated.Capabilities.Has("publish_posts"))
	assert.False(t, updated.Capabilities.Has("upload_files"))
	assert.True(t, fa.roles["reviewer"].Capabilities.Equal(updated.Capabilities))
}

func TestUpdateAdministratorRefused(t *testing.T) {
	svc, fa, _, _ := newTestService(t)

	before := fa.roles[AdministratorRole].Capabilities.Sorted()
	_, err := svc.Update(context.Background(), AdministratorRole, "Administrator", []string{"read"})
	assert.ErrorIs(t, err, shared.ErrSecurity)
	assert.Equal(t, before, fa.roles[AdministratorRole].Capabilities.Sorted(), "administrator untouched")
}

func TestUpdateOwnRoleRefused(t *testing.T) {
	svc, fa, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "reviewer", "Reviewer", nil)
	require.NoError(t, err)
	fa.userRoles[42] = "reviewer"

	_, err = svc.Update(operatorContext("42"), "reviewer", "Reviewer", []string{"edit_posts"})
	assert.ErrorIs(t, err, shared.ErrSecurity)
}

func TestUpdateRefusedWhenOperatorRoleUnresolvable(t *testing.T) {
	svc, fa, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "reviewer", "Reviewer", nil)
	require.NoError(t, err)
	before := fa.roles["reviewer"].Capabilities.Sorted()

	// Operator 42 has a session but no resolvable role; the self-role
	// guard cannot run, so the update must fail closed.
	_, err = svc.Update(operatorContext("42"), "reviewer", "Reviewer", []string{"edit_posts"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, before, fa.roles["reviewer"].Capabilities.Sorted(), "role untouched")
}

func TestUpdateInvalidatesHoldersExceptPrivilegedOperator(t *testing.T) {
	svc, fa, inv, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "reviewer", "Reviewer", nil)
	require.NoError(t, err)
	fa.userRoles[7] = "reviewer"
	fa.userRoles[8] = "reviewer"
	fa.userRoles[99] = AdministratorRole

	_, err = svc.Update(operatorContext("99"), "reviewer", "Reviewer", []string{"edit_posts"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{7, 8}, inv.cleared)
	assert.Empty(t, inv.excluded, "operator holds a different role, nothing to exclude")
}

func TestUpdateUnknownRole(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "ghost", "Ghost", nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteBuiltinRefused(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	for _, name := range []string{"administrator", "editor", "author", "contributor", "subscriber"} {
		_, err := svc.Delete(context.Background(), name)
		assert.ErrorIs(t, err, shared.ErrProtected, "builtin %q", name)
	}
}

func TestDeleteReassignsHoldersToFallback(t *testing.T) {
	svc, fa, _, rec := newTestService(t)

	_, err := svc.Create(context.Background(), "reviewer", "Reviewer", nil)
	require.NoError(t, err)
	fa.userRoles[7] = "reviewer"
	fa.userRoles[8] = "reviewer"
	fa.userRoles[9] = "editor"

	reassigned, err := svc.Delete(context.Background(), "reviewer")
	require.NoError(t, err)

	assert.Equal(t, 2, reassigned)
	assert.Equal(t, FallbackRole, fa.userRoles[7])
	assert.Equal(t, FallbackRole, fa.userRoles[8])
	assert.Equal(t, "editor", fa.userRoles[9])
	_, exists := fa.roles["reviewer"]
	assert.False(t, exists)
	assert.Contains(t, rec.actions(), "role_deleted")
}

func TestCloneSeedsFromSource(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), "reviewer", "Reviewer", []string{"publish_posts"})
	require.NoError(t, err)

	clone, err := svc.Clone(context.Background(), "reviewer", "reviewer_jr", "Junior Reviewer")
	require.NoError(t, err)

	assert.Equal(t, "reviewer_jr", clone.Name)
	assert.True(t, clone.Capabilities.Has("publish_posts"))
	assert.True(t, clone.Capabilities.Has("edit_posts"))
}

func TestCloneAdministratorRefused(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Clone(context.Background(), AdministratorRole, "copy", "Copy")
	assert.ErrorIs(t, err, shared.ErrSecurity)

	_, err = svc.Clone(context.Background(), "editor", "shadow-admin", "Shadow")
	assert.ErrorIs(t, err, shared.ErrSecurity)
}

func TestAssign(t *testing.T) {
	svc, fa, _, _ := newTestService(t)

	require.NoError(t, svc.Assign(context.Background(), 7, "editor"))
	assert.Equal(t, "editor", fa.userRoles[7])
}

func TestAssignAdministratorRefused(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Assign(context.Background(), 7, AdministratorRole)
	assert.ErrorIs(t, err, shared.ErrSecurity)
}

func TestAssignSelfRefused(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Assign(operatorContext("7"), 7, "editor")
	assert.ErrorIs(t, err, shared.ErrSecurity)
}

func TestAssignUnknownRole(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	err := svc.Assign(context.Background(), 7, "ghost")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBulkAssignRefusedWhenOperatorInBatch(t *testing.T) {
	svc, fa, _, _ := newTestService(t)

	fa.userRoles[5] = "subscriber"
	_, err := svc.BulkAssign(operatorContext("5"), []int64{4, 5, 6}, "editor")
	assert.ErrorIs(t, err, shared.ErrSecurity)
	assert.Equal(t, "subscriber", fa.userRoles[5], "whole batch refused, nothing applied")
	assert.Empty(t, fa.userRoles[4])
}

func TestBulkAssignAdministratorRefused(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.BulkAssign(context.Background(), []int64{4, 5}, AdministratorRole)
	assert.ErrorIs(t, err, shared.ErrSecurity)
}

func TestBulkAssignTalliesPerUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	result, err := svc.BulkAssign(context.Background(), []int64{4, 5, 6}, "editor")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Success)
	assert.Equal(t, 0, result.Failed)
}

func TestFixExistingRolesClosesStoredSets(t *testing.T) {
	svc, fa, inv, _ := newTestService(t)

	// A role persisted before dependency resolution existed.
	fa.roles["legacy"] = Role{
		Name:         "legacy",
		DisplayName:  "Legacy",
		Capabilities: capability.NewSet("publish_posts"),
	}
	fa.userRoles[3] = "legacy"

	fixed, err := svc.FixExistingRoles(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, fixed, 1)
	repaired := fa.roles["legacy"].Capabilities
	assert.True(t, repaired.Has("edit_posts"))
	assert.True(t, repaired.Has("read"))
	assert.Contains(t, inv.cleared, int64(3))
}

func TestFixExistingRolesSkipsAdministrator(t *testing.T) {
	svc, fa, _, _ := newTestService(t)

	before := fa.roles[AdministratorRole].Capabilities.Sorted()
	_, err := svc.FixExistingRoles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, fa.roles[AdministratorRole].Capabilities.Sorted())
}

func TestIsProtectedRoleName(t *testing.T) {
	cases := map[string]bool{
		"administrator":    true,
		"admin":            true,
		"wp_administrator": true,
		"my-admin-helper":  true,
		"ADMINISTRATOR":    true,
		"editor":           false,
		"shop_manager":     false,
	}
	for name, want := range cases {
		assert.Equal(t, want, IsProtectedRoleName(name), "name %q", name)
	}
}

func TestSanitizeSlug(t *testing.T) {
	assert.Equal(t, "content_review_", SanitizeSlug("Content Review!"))
	assert.Equal(t, "shop-manager", SanitizeSlug("shop-manager"))
	assert.Equal(t, "a_b_c", SanitizeSlug("a b/c"))
}
