package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/menuguard/menuguard/internal/platform/httpx"
	"github.com/menuguard/menuguard/jobs"
)

// Handler exposes the activity log endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers activity log routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/export", h.exportCSV)
	r.Delete("/", h.clear)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context(), filtersFromQuery(r))
	if err != nil {
		h.logger.Error("list activity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	entries := make([]entryResponse, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = toEntryResponse(e)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"paging":  result.Paging,
	})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.All(r.Context(), filtersFromQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := WriteCSV(entries)
	if err != nil {
		h.logger.Error("export activity csv", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="activity-%s.csv"`, time.Now().UTC().Format("20060102-150405")))
	_, _ = w.Write(data)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.Clear(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

type entryResponse struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Action      string         `json:"action"`
	ObjectType  string         `json:"object_type"`
	ObjectID    string         `json:"object_id,omitempty"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IPAddress   string         `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toEntryResponse(e Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		Action:      e.Action,
		ObjectType:  e.ObjectType,
		ObjectID:    e.ObjectID,
		Description: e.Description,
		Metadata:    e.Metadata,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		CreatedAt:   e.CreatedAt,
	}
}

func filtersFromQuery(r *http.Request) Filters {
	q := r.URL.Query()
	f := Filters{
		Action:     q.Get("action"),
		ObjectType: q.Get("object_type"),
	}
	if raw := q.Get("user_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.UserID = id
		}
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.From = t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			f.To = t
		}
	}
	if raw := q.Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			f.Page = page
		}
	}
	if raw := q.Get("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil {
			f.PageSize = size
		}
	}
	return f
}

// CleanupHandler returns the background task handler that prunes log rows
// older than the retention window carried in the task payload.
func CleanupHandler(logger *slog.Logger, service *Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload jobs.ActivityCleanupPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("activity cleanup payload: %w: %w", err, asynq.SkipRetry)
		}
		if payload.RetentionDays <= 0 {
			payload.RetentionDays = 90
		}
		deleted, err := service.CleanupOlderThan(ctx, time.Duration(payload.RetentionDays)*24*time.Hour)
		if err != nil {
			return err
		}
		logger.Info("activity log cleanup",
			slog.Int("retention_days", payload.RetentionDays),
			slog.Int64("deleted", deleted))
		return nil
	}
}
