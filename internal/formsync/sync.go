package formsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/roles"
)

const accessKeyPattern = "formaccess:user:%d"

// Access is the per-user form access snapshot the form viewers read.
type Access struct {
	NinjaView     bool `json:"nf_view"`
	NinjaEdit     bool `json:"nf_edit"`
	NinjaDelete   bool `json:"nf_delete"`
	GravityView   bool `json:"gf_view"`
	GravityEdit   bool `json:"gf_edit"`
	GravityDelete bool `json:"gf_delete"`
	GravityExport bool `json:"gf_export"`
}

// Synchronizer recomputes form access snapshots from role capabilities.
type Synchronizer struct {
	logger       *slog.Logger
	client       *redis.Client
	authority    roles.Authority
	integrations Integrations
	counter      prometheus.Counter
}

// WithCounter attaches a counter incremented per snapshot written.
func (s *Synchronizer) WithCounter(c prometheus.Counter) *Synchronizer {
	s.counter = c
	return s
}

// NewSynchronizer builds a Synchronizer.
func NewSynchronizer(logger *slog.Logger, client *redis.Client, authority roles.Authority, integrations Integrations) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		logger:       logger,
		client:       client,
		authority:    authority,
		integrations: integrations,
	}
}

// SyncRole refreshes the snapshot of every user holding the role.
// Per-user failures are logged and the pass continues.
func (s *Synchronizer) SyncRole(ctx context.Context, roleName string) error {
	if !s.integrations.Any() {
		return nil
	}
	holders, err := s.authority.UsersWithRole(ctx, roleName)
	if err != nil {
		return fmt.Errorf("formsync: list users for role %s: %w", roleName, err)
	}
	synced := 0
	for _, userID := range holders {
		if err := s.SyncUser(ctx, userID); err != nil {
			s.logger.Warn("sync form access",
				slog.Int64("user_id", userID), slog.Any("error", err))
			continue
		}
		synced++
	}
	s.logger.Info("synced form access for role",
		slog.String("role", roleName), slog.Int("users", synced))
	return nil
}

// SyncUser recomputes one user's snapshot from their current role.
func (s *Synchronizer) SyncUser(ctx context.Context, userID int64) error {
	roleName, err := s.authority.RoleOfUser(ctx, userID)
	if err != nil {
		return err
	}
	role, err := s.authority.GetRole(ctx, roleName)
	if err != nil {
		return err
	}

	access := AccessFromCapabilities(role.Capabilities, s.integrations)
	data, err := json.Marshal(access)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, fmt.Sprintf(accessKeyPattern, userID), data, 0).Err(); err != nil {
		return err
	}
	if s.counter != nil {
		s.counter.Inc()
	}
	return nil
}

// AccessFromCapabilities derives the snapshot from a capability set.
// Form capabilities are recognized by their subsystem prefix.
func AccessFromCapabilities(caps capability.Set, integrations Integrations) Access {
	var access Access
	if integrations.NinjaForms {
		access.NinjaView = caps.Has("nf_view_submissions") || hasAdminGrant(caps)
		access.NinjaEdit = caps.Has("nf_edit_submissions") || hasAdminGrant(caps)
		access.NinjaDelete = caps.Has("nf_delete_submissions") || hasAdminGrant(caps)
	}
	if integrations.GravityForms {
		access.GravityView = caps.Has("gravityforms_view_entries") || hasAdminGrant(caps)
		access.GravityEdit = caps.Has("gravityforms_edit_entries") || hasAdminGrant(caps)
		access.GravityDelete = caps.Has("gravityforms_delete_entries") || hasAdminGrant(caps)
		access.GravityExport = caps.Has("gravityforms_export_entries") || hasAdminGrant(caps)
	}
	return access
}

// HasFormCapability reports whether the set grants anything form related.
func HasFormCapability(caps capability.Set) bool {
	for _, c := range caps.Sorted() {
		if strings.HasPrefix(c, "nf_") || strings.HasPrefix(c, "gravityforms_") {
			return true
		}
	}
	return false
}

func hasAdminGrant(caps capability.Set) bool {
	return caps.Has(capability.ManageOptions)
}
