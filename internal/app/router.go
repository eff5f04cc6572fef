package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuguard/menuguard/internal/activity"
	"github.com/menuguard/menuguard/internal/authz"
	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/menu"
	"github.com/menuguard/menuguard/internal/observability"
	"github.com/menuguard/menuguard/internal/roles"
	"github.com/menuguard/menuguard/internal/shared"
	"github.com/menuguard/menuguard/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	RolesHandler    *roles.Handler
	MenuHandler     *menu.Handler
	UsersHandler    *users.Handler
	ActivityHandler *activity.Handler
	Pool            *pgxpool.Pool
	Authz           authz.Middleware
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				params.Logger.Warn("readiness ping failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	if params.Metrics != nil {
		r.Get("/metrics", params.Metrics.Handler().ServeHTTP)
	}

	// Every management endpoint demands the top-level grant; role and menu
	// surgery is never exposed to lesser operators.
	r.Route("/api", func(api chi.Router) {
		api.Use(params.Authz.RequireCapability(capability.ManageOptions))

		if params.RolesHandler != nil {
			api.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.MenuHandler != nil {
			api.Route("/menus", params.MenuHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			api.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.ActivityHandler != nil {
			api.Route("/logs", params.ActivityHandler.MountRoutes)
		}
	})

	return r
}
