// Package activity keeps the append-only log of administrative actions.
// Entries are never mutated after creation; the log is only ever appended
// to, exported, or bulk-deleted.
package activity

import "time"

// Record is the caller-supplied portion of a log entry. Origin details
// (IP, user agent) are filled from request context when absent.
type Record struct {
	UserID      int64
	Action      string
	ObjectType  string
	ObjectID    string
	Description string
	Metadata    map[string]any
	IPAddress   string
	UserAgent   string
}

// Entry is a persisted log row.
type Entry struct {
	ID          int64
	UserID      int64
	Action      string
	ObjectType  string
	ObjectID    string
	Description string
	Metadata    map[string]any
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
}

// Filters narrows a log listing.
type Filters struct {
	Action     string
	ObjectType string
	UserID     int64
	From       time.Time
	To         time.Time
	Page       int
	PageSize   int
}

// PagingInfo reports listing position.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	NextPage int  `json:"next_page,omitempty"`
	PrevPage int  `json:"prev_page,omitempty"`
}
