// Package authz gates management endpoints on the operator's effective
// capabilities, consulting the cached capability layer before falling back
// to the role store.
package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/roles"
	"github.com/menuguard/menuguard/internal/shared"
)

const capsKeyPattern = "caps:user:%d"

// Middleware wires capability checks for HTTP handlers.
type Middleware struct {
	Authority roles.Authority
	Cache     *redis.Client
	Logger    *slog.Logger
}

// RequireCapability ensures the operator holds every listed capability.
func (m Middleware) RequireCapability(caps ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			operatorID := shared.OperatorID(r.Context())
			if operatorID == 0 {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			granted, err := m.EffectiveCapabilities(r.Context(), operatorID)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("resolve operator capabilities", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			for _, c := range caps {
				if !granted.Has(c) {
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EffectiveCapabilities resolves the operator's capability set, reading
// the per-user cache first. A cache miss re-derives from the persisted
// role and repopulates the cache, which is how invalidated users pick up
// new grants on their next request.
func (m Middleware) EffectiveCapabilities(ctx context.Context, userID int64) (capability.Set, error) {
	key := fmt.Sprintf(capsKeyPattern, userID)
	if m.Cache != nil {
		if data, err := m.Cache.Get(ctx, key).Bytes(); err == nil {
			var names []string
			if err := json.Unmarshal(data, &names); err == nil {
				return capability.NewSet(names...), nil
			}
		}
	}

	roleName, err := m.Authority.RoleOfUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, err := m.Authority.GetRole(ctx, roleName)
	if err != nil {
		return nil, err
	}

	if m.Cache != nil {
		if data, err := json.Marshal(role.Capabilities.Sorted()); err == nil {
			if err := m.Cache.Set(ctx, key, data, 0).Err(); err != nil && m.Logger != nil {
				m.Logger.Warn("populate capability cache",
					slog.Int64("user_id", userID), slog.Any("error", err))
			}
		}
	}
	return role.Capabilities, nil
}
