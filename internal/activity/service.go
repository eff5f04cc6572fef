package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/menuguard/menuguard/internal/shared"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// Repository is the relational store behind the log.
type Repository interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, f Filters, limit, offset int) ([]Entry, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Result bundles a log page with paging information.
type Result struct {
	Entries []Entry
	Paging  PagingInfo
}

// Service coordinates activity log reads and writes.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds an activity log service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record appends a log entry. Origin details missing from the record are
// taken from request context.
func (s *Service) Record(ctx context.Context, rec Record) error {
	if s.repo == nil {
		return fmt.Errorf("activity: repository not configured")
	}
	info := shared.ClientInfoFromContext(ctx)
	if rec.IPAddress == "" {
		rec.IPAddress = info.IPAddress
	}
	if rec.UserAgent == "" {
		rec.UserAgent = info.UserAgent
	}
	if rec.Description == "" {
		rec.Description = describeAction(rec.Action, rec.ObjectType, rec.ObjectID)
	}
	return s.repo.Insert(ctx, Entry{
		UserID:      rec.UserID,
		Action:      rec.Action,
		ObjectType:  rec.ObjectType,
		ObjectID:    rec.ObjectID,
		Description: rec.Description,
		Metadata:    rec.Metadata,
		IPAddress:   rec.IPAddress,
		UserAgent:   rec.UserAgent,
		CreatedAt:   s.now().UTC(),
	})
}

// List returns a page of log entries, newest first.
func (s *Service) List(ctx context.Context, f Filters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("activity: repository not configured")
	}
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	// Fetch one extra row to detect a next page without counting.
	entries, err := s.repo.List(ctx, f, pageSize+1, offset)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(entries) > pageSize
	if hasNext {
		entries = entries[:pageSize]
	}

	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Entries: entries, Paging: paging}, nil
}

// All returns every matching entry without paging, for exports.
func (s *Service) All(ctx context.Context, f Filters) ([]Entry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("activity: repository not configured")
	}
	return s.repo.List(ctx, f, 0, 0)
}

// Clear removes the whole log and returns the number of deleted rows. The
// clear itself is recorded as the first entry of the fresh log, so the
// destructive action stays auditable.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Record(ctx, Record{
		UserID:     shared.OperatorID(ctx),
		Action:     "logs_cleared",
		ObjectType: "activity_log",
		Metadata:   map[string]any{"deleted": deleted},
	}); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// CleanupOlderThan removes entries older than the retention window.
func (s *Service) CleanupOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, s.now().Add(-retention))
}

func describeAction(action, objectType, objectID string) string {
	switch action {
	case "role_created":
		return fmt.Sprintf("Role %s was created", objectID)
	case "role_updated":
		return fmt.Sprintf("Role %s was updated", objectID)
	case "role_deleted":
		return fmt.Sprintf("Role %s was deleted", objectID)
	case "role_cloned":
		return fmt.Sprintf("Role %s was cloned", objectID)
	case "role_assigned":
		return fmt.Sprintf("User %s received a new role", objectID)
	case "roles_imported":
		return "Roles were imported"
	case "roles_fixed":
		return "Existing roles were repaired"
	case "menu_restrictions_updated":
		return fmt.Sprintf("Menu restrictions for role %s were updated", objectID)
	case "menu_restrictions_reset":
		return fmt.Sprintf("Menu restrictions for role %s were reset to defaults", objectID)
	case "logs_cleared":
		return "Activity log was cleared"
	default:
		if objectType != "" && objectID != "" {
			return fmt.Sprintf("%s on %s %s", action, objectType, objectID)
		}
		return action
	}
}
