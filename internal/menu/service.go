package menu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/menuguard/menuguard/internal/activity"
	"github.com/menuguard/menuguard/internal/roles"
	"github.com/menuguard/menuguard/internal/shared"
)

// legacyOptionName is the option-store mirror of all role restrictions,
// kept for backward compatibility with deployments reading options only.
const legacyOptionName = "menu_restrictions"

// RestrictionStore is the relational store for per-role hidden menu slugs.
type RestrictionStore interface {
	Hidden(ctx context.Context, roleName string) ([]string, error)
	// Replace deletes the role's prior restriction set and inserts the new
	// one wholesale.
	Replace(ctx context.Context, roleName string, slugs []string) error
}

// OptionStore is the legacy key-value mirror.
type OptionStore interface {
	Get(ctx context.Context, name string, target any) (bool, error)
	Set(ctx context.Context, name string, value any) error
}

// RoleSource resolves a role's effective capabilities.
type RoleSource interface {
	GetRole(ctx context.Context, name string) (roles.Role, error)
}

// ActivityRecorder appends to the activity log.
type ActivityRecorder interface {
	Record(ctx context.Context, rec activity.Record) error
}

// Service answers which menu entries are hidden for a role and persists
// explicit restriction overrides.
type Service struct {
	logger       *slog.Logger
	restrictions RestrictionStore
	legacy       OptionStore
	roleSource   RoleSource
	recorder     ActivityRecorder
	contentTypes []ContentType
	subsystems   Subsystems
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, restrictions RestrictionStore, legacy OptionStore, roleSource RoleSource, recorder ActivityRecorder, contentTypes []ContentType, subsystems Subsystems) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:       logger,
		restrictions: restrictions,
		legacy:       legacy,
		roleSource:   roleSource,
		recorder:     recorder,
		contentTypes: contentTypes,
		subsystems:   subsystems,
	}
}

// Structure returns the full candidate menu set for a role, each entry
// tagged hidden or visible. An explicit persisted restriction set takes
// strict precedence over capability-derived defaults.
func (s *Service) Structure(ctx context.Context, roleName string) ([]EntryState, error) {
	hidden, err := s.HiddenSlugs(ctx, roleName)
	if err != nil {
		return nil, err
	}
	hiddenSet := make(map[string]struct{}, len(hidden))
	for _, slug := range hidden {
		hiddenSet[slug] = struct{}{}
	}

	candidates := Candidates(s.contentTypes, s.subsystems)
	structure := make([]EntryState, len(candidates))
	for i, entry := range candidates {
		_, isHidden := hiddenSet[entry.Slug]
		structure[i] = EntryState{
			Slug:   entry.Slug,
			Title:  entry.Title,
			Icon:   entry.Icon,
			Hidden: isHidden,
		}
	}
	return structure, nil
}

// HiddenSlugs resolves the hidden-menu set for a role: the explicit
// persisted restriction list when one exists and is non-empty, otherwise
// the capability-derived defaults.
func (s *Service) HiddenSlugs(ctx context.Context, roleName string) ([]string, error) {
	explicit, err := s.explicitRestrictions(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if len(explicit) > 0 {
		return explicit, nil
	}
	return s.capabilityDefaults(ctx, roleName)
}

// SaveRestrictions persists hiddenSlugs as the role's explicit restriction
// set. The prior set is deleted first; restrictions are always replaced
// wholesale, never patched. The legacy option mirror is updated alongside
// the relational store.
func (s *Service) SaveRestrictions(ctx context.Context, roleName string, hiddenSlugs []string) error {
	if roleName == "" {
		return fmt.Errorf("menu: role name is required: %w", shared.ErrInvalidInput)
	}
	if err := s.restrictions.Replace(ctx, roleName, hiddenSlugs); err != nil {
		return err
	}
	s.mirrorToLegacy(ctx, roleName, hiddenSlugs)

	s.record(ctx, "menu_restrictions_updated", roleName, map[string]any{
		"hidden_menus":      hiddenSlugs,
		"restriction_count": len(hiddenSlugs),
	})
	return nil
}

// ResetRestrictions recomputes the capability-derived default hidden set,
// ignoring any explicit override, and persists it as the new explicit set.
// Reset bakes the defaults in rather than clearing to an empty override.
func (s *Service) ResetRestrictions(ctx context.Context, roleName string) ([]string, error) {
	defaults, err := s.capabilityDefaults(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if err := s.restrictions.Replace(ctx, roleName, defaults); err != nil {
		return nil, err
	}
	s.mirrorToLegacy(ctx, roleName, defaults)

	s.record(ctx, "menu_restrictions_reset", roleName, map[string]any{
		"hidden_menus": defaults,
	})
	return defaults, nil
}

// explicitRestrictions reads the persisted override, preferring the
// relational store and falling back to the legacy option mirror.
func (s *Service) explicitRestrictions(ctx context.Context, roleName string) ([]string, error) {
	stored, err := s.restrictions.Hidden(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if len(stored) > 0 {
		return stored, nil
	}
	if s.legacy == nil {
		return nil, nil
	}
	var mirror map[string][]string
	found, err := s.legacy.Get(ctx, legacyOptionName, &mirror)
	if err != nil {
		s.logger.Warn("read legacy restriction mirror", slog.Any("error", err))
		return nil, nil
	}
	if !found {
		return nil, nil
	}
	return mirror[roleName], nil
}

// capabilityDefaults derives the hidden set from the role's effective
// capabilities against the requirement table. An unknown role restricts
// nothing; its stale restriction rows are harmless and left in place.
func (s *Service) capabilityDefaults(ctx context.Context, roleName string) ([]string, error) {
	role, err := s.roleSource.GetRole(ctx, roleName)
	if err != nil {
		s.logger.Warn("derive menu defaults for unknown role", slog.String("role", roleName))
		return nil, nil
	}

	var hidden []string
	for _, entry := range Candidates(s.contentTypes, s.subsystems) {
		if entry.Requires == "" {
			continue
		}
		if !role.Capabilities.Has(entry.Requires) {
			hidden = append(hidden, entry.Slug)
		}
	}
	return hidden, nil
}

func (s *Service) mirrorToLegacy(ctx context.Context, roleName string, slugs []string) {
	if s.legacy == nil {
		return
	}
	var mirror map[string][]string
	if _, err := s.legacy.Get(ctx, legacyOptionName, &mirror); err != nil {
		s.logger.Warn("read legacy restriction mirror", slog.Any("error", err))
	}
	if mirror == nil {
		mirror = make(map[string][]string)
	}
	mirror[roleName] = slugs
	if err := s.legacy.Set(ctx, legacyOptionName, mirror); err != nil {
		s.logger.Warn("write legacy restriction mirror", slog.Any("error", err))
	}
}

func (s *Service) record(ctx context.Context, action, roleName string, metadata map[string]any) {
	if s.recorder == nil {
		return
	}
	rec := activity.Record{
		UserID:     shared.OperatorID(ctx),
		Action:     action,
		ObjectType: "menu",
		ObjectID:   roleName,
		Metadata:   metadata,
	}
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Warn("record activity", slog.String("action", action), slog.Any("error", err))
	}
}
