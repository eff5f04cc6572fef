package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFormSyncRole refreshes form access for every holder of a role.
	TaskFormSyncRole = "formsync:role"
	// TaskFormSyncUser refreshes form access for a single user.
	TaskFormSyncUser = "formsync:user"
	// TaskActivityCleanup prunes activity log rows past retention.
	TaskActivityCleanup = "activity:cleanup"
)

// FormSyncRolePayload identifies the role whose holders need re-syncing.
type FormSyncRolePayload struct {
	RoleName string `json:"role_name"`
}

// FormSyncUserPayload identifies a single user to re-sync.
type FormSyncUserPayload struct {
	UserID int64 `json:"user_id"`
}

// ActivityCleanupPayload carries the retention window in days.
type ActivityCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewFormSyncRoleTask constructs an Asynq task.
func NewFormSyncRoleTask(payload FormSyncRolePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFormSyncRole, data), nil
}

// NewFormSyncUserTask constructs an Asynq task.
func NewFormSyncUserTask(payload FormSyncUserPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFormSyncUser, data), nil
}

// NewActivityCleanupTask constructs an Asynq task.
func NewActivityCleanupTask(payload ActivityCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityCleanup, data), nil
}
