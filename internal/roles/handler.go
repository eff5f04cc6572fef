package roles

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/menuguard/menuguard/internal/capability"
	"github.com/menuguard/menuguard/internal/platform/httpx"
)

// Handler wires the role management JSON endpoints.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	validator      *validator.Validate
	commerceActive bool
	formsActive    bool
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, commerceActive, formsActive bool) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		validator:      validator.New(),
		commerceActive: commerceActive,
		formsActive:    formsActive,
	}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/capabilities", h.catalog)
	r.Post("/assign", h.assign)
	r.Post("/bulk-assign", h.bulkAssign)
	r.Post("/fix", h.fix)
	r.Get("/export", h.export)
	r.Post("/import", h.importRoles)
	r.Route("/{role}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Put("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/clone", h.clone)
		r.Get("/capabilities", h.roleCapabilities)
	})
}

type roleResponse struct {
	Name         string   `json:"name"`
	DisplayName  string   `json:"display_name"`
	Capabilities []string `json:"capabilities"`
	Builtin      bool     `json:"builtin"`
}

func toResponse(role Role) roleResponse {
	return roleResponse{
		Name:         role.Name,
		DisplayName:  role.DisplayName,
		Capabilities: role.Capabilities.Sorted(),
		Builtin:      role.Builtin,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, len(all))
	for i, role := range all {
		out[i] = toResponse(role)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(role))
}

type createRoleRequest struct {
	Name         string   `json:"name" validate:"required"`
	DisplayName  string   `json:"display_name" validate:"required"`
	Capabilities []string `json:"capabilities"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.Create(r.Context(), req.Name, req.DisplayName, req.Capabilities)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(role))
}

type updateRoleRequest struct {
	DisplayName  string   `json:"display_name" validate:"required"`
	Capabilities []string `json:"capabilities"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.Update(r.Context(), chi.URLParam(r, "role"), req.DisplayName, req.Capabilities)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(role))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	reassigned, err := h.service.Delete(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users_reassigned": reassigned})
}

type cloneRoleRequest struct {
	Name        string `json:"name" validate:"required"`
	DisplayName string `json:"display_name" validate:"required"`
}

func (h *Handler) clone(w http.ResponseWriter, r *http.Request) {
	var req cloneRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.Clone(r.Context(), chi.URLParam(r, "role"), req.Name, req.DisplayName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(role))
}

type assignRequest struct {
	UserID   int64  `json:"user_id" validate:"required"`
	RoleName string `json:"role_name" validate:"required"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Assign(r.Context(), req.UserID, req.RoleName); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assigned": true})
}

type bulkAssignRequest struct {
	UserIDs  []int64 `json:"user_ids" validate:"required,min=1"`
	RoleName string  `json:"role_name" validate:"required"`
}

func (h *Handler) bulkAssign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.BulkAssign(r.Context(), req.UserIDs, req.RoleName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) fix(w http.ResponseWriter, r *http.Request) {
	fixed, err := h.service.FixExistingRoles(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"fixed": fixed})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	var names []string
	if raw := strings.TrimSpace(r.URL.Query().Get("roles")); raw != "" {
		names = strings.Split(raw, ",")
	}
	doc, err := h.service.Export(r.Context(), names)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="roles-export.json"`)
	httpx.JSON(w, http.StatusOK, doc)
}

type importRequest struct {
	Overwrite bool   `json:"overwrite"`
	Data      string `json:"data" validate:"required"`
}

func (h *Handler) importRoles(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if !h.decode(w, r, &req) {
		return
	}
	report, err := h.service.Import(r.Context(), []byte(req.Data), req.Overwrite)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

type capabilityInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Granted     bool   `json:"granted,omitempty"`
}

type capabilityGroup struct {
	Group        string           `json:"group"`
	Label        string           `json:"label"`
	Capabilities []capabilityInfo `json:"capabilities"`
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var fromRoles []string
	for _, role := range all {
		fromRoles = append(fromRoles, role.Capabilities.Sorted()...)
	}
	catalog := capability.Catalog(h.commerceActive, h.formsActive, fromRoles...)
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": groupCapabilities(catalog, nil)})
}

func (h *Handler) roleCapabilities(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.Get(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	catalog := capability.Catalog(h.commerceActive, h.formsActive, role.Capabilities.Sorted()...)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":   role.Name,
		"groups": groupCapabilities(catalog, role.Capabilities),
	})
}

func groupCapabilities(catalog capability.Set, granted capability.Set) []capabilityGroup {
	grouped := capability.Grouped(catalog)
	var out []capabilityGroup
	for _, group := range []capability.Group{
		capability.GroupCore, capability.GroupPosts, capability.GroupMedia,
		capability.GroupUsers, capability.GroupComments, capability.GroupThemes,
		capability.GroupPlugins, capability.GroupCommerce, capability.GroupForms,
		capability.GroupCustom,
	} {
		caps := grouped[group]
		if len(caps) == 0 {
			continue
		}
		infos := make([]capabilityInfo, len(caps))
		for i, c := range caps {
			infos[i] = capabilityInfo{
				Name:        c,
				DisplayName: capability.DisplayName(c),
				Granted:     granted != nil && granted.Has(c),
			}
		}
		out = append(out, capabilityGroup{
			Group:        string(group),
			Label:        capability.GroupLabels[group],
			Capabilities: infos,
		})
	}
	return out
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		details := make([]string, 0)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range verrs {
				details = append(details, fieldErr.Error())
			}
		}
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", strings.Join(details, "; "))
		return false
	}
	return true
}
