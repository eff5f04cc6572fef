package users

import "time"

// User represents a managed user account. A user holds exactly one primary
// role at a time.
type User struct {
	ID          int64
	Login       string
	Email       string
	DisplayName string
	RoleName    string
	CreatedAt   time.Time
}
