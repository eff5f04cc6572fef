package menu

import (
	"context"
	"log/slog"
)

// RoleLookup resolves a user's current primary role.
type RoleLookup interface {
	RoleOfUser(ctx context.Context, userID int64) (string, error)
}

// Filter applies persisted menu restrictions to a navigation registry at
// request time. It must run strictly after all menu registration and
// before any visibility-dependent redirect logic.
type Filter struct {
	logger  *slog.Logger
	service *Service
	lookup  RoleLookup
}

// NewFilter builds a request-time restriction filter.
func NewFilter(logger *slog.Logger, service *Service, lookup RoleLookup) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{logger: logger, service: service, lookup: lookup}
}

// Apply removes every restricted slug for the user's role from the
// registry, both as a top-level entry and as a sub-entry. Unknown users or
// roles restrict nothing.
func (f *Filter) Apply(ctx context.Context, registry Registry, userID int64) error {
	roleName, err := f.lookup.RoleOfUser(ctx, userID)
	if err != nil {
		f.logger.Warn("resolve role for menu filtering",
			slog.Int64("user_id", userID), slog.Any("error", err))
		return nil
	}

	hidden, err := f.service.HiddenSlugs(ctx, roleName)
	if err != nil {
		return err
	}
	for _, slug := range hidden {
		registry.RemoveEntry(slug)
		registry.RemoveSubEntry(slug)
	}
	return nil
}
