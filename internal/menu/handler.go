package menu

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/menuguard/menuguard/internal/platform/httpx"
	"github.com/menuguard/menuguard/internal/shared"
)

// Handler exposes the menu restriction endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	filter    *Filter
	structure singleflight.Group
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, filter *Filter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, filter: filter}
}

// MountRoutes registers menu routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/structure", h.getStructure)
	r.Get("/visible", h.getVisible)
	r.Put("/restrictions/{role}", h.saveRestrictions)
	r.Post("/restrictions/{role}/reset", h.resetRestrictions)
}

type structureResponse struct {
	Role    string       `json:"role"`
	Entries []EntryState `json:"entries"`
}

func (h *Handler) getStructure(w http.ResponseWriter, r *http.Request) {
	roleName := strings.TrimSpace(r.URL.Query().Get("role"))
	if roleName == "" {
		httpx.Problem(w, http.StatusBadRequest, "Missing Parameter", "role query parameter is required")
		return
	}

	// Concurrent structure requests for the same role collapse into one
	// resolution pass.
	result, err := h.buildStructure(r.Context(), roleName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) buildStructure(ctx context.Context, roleName string) (structureResponse, error) {
	resultChan := h.structure.DoChan("structure:"+roleName, func() (interface{}, error) {
		entries, err := h.service.Structure(ctx, roleName)
		if err != nil {
			return nil, err
		}
		return structureResponse{Role: roleName, Entries: entries}, nil
	})
	select {
	case <-ctx.Done():
		return structureResponse{}, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return structureResponse{}, res.Err
		}
		return res.Val.(structureResponse), nil
	}
}

// getVisible renders the navigation the acting operator actually sees: the
// full candidate tree is registered first, then the operator's restrictions
// are stripped out of it.
func (h *Handler) getVisible(w http.ResponseWriter, r *http.Request) {
	if h.filter == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Not Configured", "menu filtering is not configured")
		return
	}
	operatorID := shared.OperatorID(r.Context())
	if operatorID == 0 {
		httpx.Problem(w, http.StatusForbidden, "No Operator", "no authenticated operator in session")
		return
	}

	tree := NewTree(Candidates(h.service.contentTypes, h.service.subsystems))
	if err := h.filter.Apply(r.Context(), tree, operatorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": tree.Entries()})
}

type saveRestrictionsRequest struct {
	Hidden []string `json:"hidden"`
}

func (h *Handler) saveRestrictions(w http.ResponseWriter, r *http.Request) {
	var req saveRestrictionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	roleName := chi.URLParam(r, "role")
	if err := h.service.SaveRestrictions(r.Context(), roleName, req.Hidden); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": roleName, "hidden": req.Hidden})
}

func (h *Handler) resetRestrictions(w http.ResponseWriter, r *http.Request) {
	roleName := chi.URLParam(r, "role")
	hidden, err := h.service.ResetRestrictions(r.Context(), roleName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role": roleName, "hidden": hidden})
}
