package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/menuguard/menuguard/internal/activity"
	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/events"
	"github.com/menuguard/menuguard/internal/shared"
)

// CacheInvalidator forces affected users' cached capability state to be
// re-derived. Best-effort: failures never propagate to the caller.
type CacheInvalidator interface {
	InvalidateUsers(ctx context.Context, userIDs []int64, excludeUserID int64) int
}

// ActivityRecorder appends to the activity log.
type ActivityRecorder interface {
	Record(ctx context.Context, rec activity.Record) error
}

// Marker acquires a named once-per-interval marker, used to throttle the
// startup role-repair pass.
type Marker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
}

// BulkResult tallies a bulk assignment. Per-user failures are collected;
// the batch never aborts partway on a single user's failure.
type BulkResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// Service creates, updates, clones, deletes, and assigns roles, applying
// the capability dependency resolver and the safety invariants.
type Service struct {
	logger      *slog.Logger
	authority   Authority
	invalidator CacheInvalidator
	recorder    ActivityRecorder
	bus         *events.Bus
	marker      Marker
	mutations   *prometheus.CounterVec
}

// WithMutationCounter attaches a counter incremented per recorded mutation,
// labelled by action.
func (s *Service) WithMutationCounter(c *prometheus.CounterVec) *Service {
	s.mutations = c
	return s
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, authority Authority, invalidator CacheInvalidator, recorder ActivityRecorder, bus *events.Bus, marker Marker) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:      logger,
		authority:   authority,
		invalidator: invalidator,
		recorder:    recorder,
		bus:         bus,
		marker:      marker,
	}
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.authority.ListRoles(ctx)
}

// Get returns a single role.
func (s *Service) Get(ctx context.Context, name string) (Role, error) {
	return s.authority.GetRole(ctx, name)
}

// Create persists a new role with the resolved capability closure.
func (s *Service) Create(ctx context.Context, name, displayName string, requested []string) (Role, error) {
	name = strings.TrimSpace(name)
	displayName = strings.TrimSpace(displayName)
	if name == "" || displayName == "" {
		return Role{}, fmt.Errorf("roles: name and display name are required: %w", shared.ErrInvalidInput)
	}
	if IsProtectedRoleName(name) {
		return Role{}, fmt.Errorf("roles: cannot create role with admin-like name %q: %w", name, shared.ErrSecurity)
	}
	name = SanitizeSlug(name)

	exists, err := s.authority.RoleExists(ctx, name)
	if err != nil {
		return Role{}, err
	}
	if exists {
		return Role{}, fmt.Errorf("roles: %s: %w", name, shared.ErrAlreadyExists)
	}

	resolved := capability.Resolve(capability.NewSet(requested...))
	role := Role{Name: name, DisplayName: displayName, Capabilities: resolved}
	if err := s.authority.CreateRole(ctx, role); err != nil {
		return Role{}, err
	}

	s.record(ctx, "role_created", "role", name, fmt.Sprintf("Created role %q", displayName), map[string]any{
		"capabilities":           resolved.Sorted(),
		"requested_capabilities": requested,
	})
	if s.bus != nil {
		s.bus.PublishRoleCreated(ctx, events.RoleCreated{
			Name:         name,
			DisplayName:  displayName,
			Capabilities: resolved.Sorted(),
		})
	}
	return role, nil
}

// Update replaces the role's entire capability set with the resolved
// closure of the requested set. It never merges with the existing set.
// Cached capability state for every user holding the role is invalidated,
// except the acting operator's when the operator is a privileged
// administrator (self-lockout prevention).
func (s *Service) Update(ctx context.Context, name, displayName string, requested []string) (Role, error) {
	if name == AdministratorRole {
		return Role{}, fmt.Errorf("roles: cannot modify the administrator role: %w", shared.ErrSecurity)
	}

	operatorID := shared.OperatorID(ctx)
	if operatorID != 0 {
		// Fail closed: if the operator's role cannot be resolved the
		// self-modification guard cannot run, so the update is refused.
		held, err := s.authority.RoleOfUser(ctx, operatorID)
		if err != nil {
			return Role{}, fmt.Errorf("roles: resolve operator role: %w", err)
		}
		if held == name {
			return Role{}, fmt.Errorf("roles: cannot modify your own active role: %w", shared.ErrSecurity)
		}
	}

	if _, err := s.authority.GetRole(ctx, name); err != nil {
		return Role{}, err
	}

	resolved := capability.Resolve(capability.NewSet(requested...))
	if err := s.authority.SetRoleCapabilities(ctx, name, displayName, resolved); err != nil {
		return Role{}, err
	}

	s.invalidateRoleUsers(ctx, name, operatorID)

	s.record(ctx, "role_updated", "role", name, fmt.Sprintf("Updated role %q", displayName), map[string]any{
		"capabilities":           resolved.Sorted(),
		"requested_capabilities": requested,
	})
	if s.bus != nil {
		s.bus.PublishRoleUpdated(ctx, events.RoleUpdated{
			Name:         name,
			DisplayName:  displayName,
			Capabilities: resolved.Sorted(),
		})
	}
	return Role{Name: name, DisplayName: displayName, Capabilities: resolved}, nil
}

// Delete removes a role after reassigning every holder to the fallback
// role. Returns the number of reassigned users for audit purposes.
func (s *Service) Delete(ctx context.Context, name string) (int, error) {
	if IsBuiltinRole(name) {
		return 0, fmt.Errorf("roles: cannot delete built-in role %s: %w", name, shared.ErrProtected)
	}
	if _, err := s.authority.GetRole(ctx, name); err != nil {
		return 0, err
	}

	holders, err := s.authority.UsersWithRole(ctx, name)
	if err != nil {
		return 0, err
	}
	reassigned := 0
	for _, userID := range holders {
		if err := s.authority.SetUserRole(ctx, userID, FallbackRole); err != nil {
			s.logger.Warn("reassign user on role delete",
				slog.Int64("user_id", userID), slog.Any("error", err))
			continue
		}
		reassigned++
	}

	if err := s.authority.DeleteRole(ctx, name); err != nil {
		return reassigned, err
	}

	s.record(ctx, "role_deleted", "role", name, fmt.Sprintf("Deleted role %q", name), map[string]any{
		"users_reassigned": reassigned,
	})
	return reassigned, nil
}

// Clone creates a new role seeded with the source role's raw capability
// map. The seed passes through the dependency resolver inside Create.
func (s *Service) Clone(ctx context.Context, source, newName, newDisplayName string) (Role, error) {
	if source == AdministratorRole {
		return Role{}, fmt.Errorf("roles: cannot clone the administrator role: %w", shared.ErrSecurity)
	}
	if IsProtectedRoleName(newName) {
		return Role{}, fmt.Errorf("roles: cannot create role with admin-like name %q: %w", newName, shared.ErrSecurity)
	}
	src, err := s.authority.GetRole(ctx, source)
	if err != nil {
		return Role{}, err
	}
	role, err := s.Create(ctx, newName, newDisplayName, src.Capabilities.Sorted())
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, "role_cloned", "role", role.Name, fmt.Sprintf("Cloned role %q from %q", newName, source), map[string]any{
		"source_role": source,
	})
	return role, nil
}

// Assign replaces the user's primary role. Administrator assignment is
// outside this service's authority, and operators may not assign roles to
// themselves.
func (s *Service) Assign(ctx context.Context, userID int64, roleName string) error {
	if roleName == AdministratorRole {
		return fmt.Errorf("roles: cannot assign the administrator role: %w", shared.ErrSecurity)
	}
	if operatorID := shared.OperatorID(ctx); operatorID != 0 && operatorID == userID {
		return fmt.Errorf("roles: cannot assign a role to yourself: %w", shared.ErrSecurity)
	}
	if _, err := s.authority.GetRole(ctx, roleName); err != nil {
		return err
	}
	if err := s.authority.SetUserRole(ctx, userID, roleName); err != nil {
		return err
	}

	s.record(ctx, "role_assigned", "user", fmt.Sprintf("%d", userID), fmt.Sprintf("Assigned role %q to user %d", roleName, userID), map[string]any{
		"role_name": roleName,
	})
	if s.bus != nil {
		s.bus.PublishRoleAssigned(ctx, events.RoleAssigned{UserID: userID, RoleName: roleName})
	}
	return nil
}

// BulkAssign applies Assign per user. The whole batch is refused when the
// administrator role is targeted or the operator's own ID is in the batch;
// otherwise per-user failures are collected and the batch continues.
func (s *Service) BulkAssign(ctx context.Context, userIDs []int64, roleName string) (BulkResult, error) {
	if roleName == AdministratorRole {
		return BulkResult{}, fmt.Errorf("roles: cannot bulk assign the administrator role: %w", shared.ErrSecurity)
	}
	operatorID := shared.OperatorID(ctx)
	for _, id := range userIDs {
		if operatorID != 0 && id == operatorID {
			return BulkResult{}, fmt.Errorf("roles: bulk assignment including yourself is refused: %w", shared.ErrSecurity)
		}
	}

	var result BulkResult
	for _, id := range userIDs {
		if err := s.Assign(ctx, id, roleName); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("user %d: %v", id, err))
			continue
		}
		result.Success++
	}
	return result, nil
}

// FixExistingRoles adds missing dependent capabilities to every
// non-administrator role whose stored set is not already closed. Returns
// the number of repaired roles.
func (s *Service) FixExistingRoles(ctx context.Context) (int, error) {
	all, err := s.authority.ListRoles(ctx)
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, role := range all {
		if role.Name == AdministratorRole {
			continue
		}
		closed := capability.Resolve(role.Capabilities)
		if closed.Equal(role.Capabilities) {
			continue
		}
		if err := s.authority.SetRoleCapabilities(ctx, role.Name, role.DisplayName, closed); err != nil {
			s.logger.Warn("fix existing role", slog.String("role", role.Name), slog.Any("error", err))
			continue
		}
		s.invalidateRoleUsers(ctx, role.Name, shared.OperatorID(ctx))
		fixed++
	}
	if fixed > 0 {
		s.record(ctx, "roles_fixed", "role", "", fmt.Sprintf("Repaired dependent capabilities on %d roles", fixed), map[string]any{
			"fixed_count": fixed,
		})
	}
	return fixed, nil
}

// MaybeFixExistingRoles runs FixExistingRoles at most once per interval,
// guarded by a shared marker so restarts and replicas do not repeat the pass.
func (s *Service) MaybeFixExistingRoles(ctx context.Context, interval time.Duration) {
	if s.marker != nil {
		acquired, err := s.marker.Acquire(ctx, "roles_fixed", interval)
		if err != nil {
			s.logger.Warn("acquire role repair marker", slog.Any("error", err))
			return
		}
		if !acquired {
			return
		}
	}
	if _, err := s.FixExistingRoles(ctx); err != nil {
		s.logger.Warn("fix existing roles", slog.Any("error", err))
	}
}

// invalidateRoleUsers clears cached capability state for holders of the
// role. The acting operator is excluded when privileged so an
// administrator cannot lose manage_options on their own live session
// mid-edit. Fire-and-forget: failures are logged per user.
func (s *Service) invalidateRoleUsers(ctx context.Context, roleName string, operatorID int64) {
	if s.invalidator == nil {
		return
	}
	holders, err := s.authority.UsersWithRole(ctx, roleName)
	if err != nil {
		s.logger.Warn("list users for invalidation",
			slog.String("role", roleName), slog.Any("error", err))
		return
	}
	exclude := int64(0)
	if operatorID != 0 && s.operatorIsPrivileged(ctx, operatorID) {
		exclude = operatorID
	}
	cleared := s.invalidator.InvalidateUsers(ctx, holders, exclude)
	s.logger.Info("invalidated cached capabilities",
		slog.String("role", roleName), slog.Int("users", cleared))
}

func (s *Service) operatorIsPrivileged(ctx context.Context, operatorID int64) bool {
	held, err := s.authority.RoleOfUser(ctx, operatorID)
	if err != nil {
		return false
	}
	role, err := s.authority.GetRole(ctx, held)
	if err != nil {
		return false
	}
	return role.Capabilities.Has(capability.ManageOptions)
}

func (s *Service) record(ctx context.Context, action, objectType, objectID, description string, metadata map[string]any) {
	if s.recorder == nil {
		return
	}
	rec := activity.Record{
		UserID:      shared.OperatorID(ctx),
		Action:      action,
		ObjectType:  objectType,
		ObjectID:    objectID,
		Description: description,
		Metadata:    metadata,
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Warn("record activity", slog.String("action", action), slog.Any("error", err))
	}
	if s.mutations != nil {
		s.mutations.WithLabelValues(action).Inc()
	}
}
