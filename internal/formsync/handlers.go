package formsync

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/menuguard/menuguard/jobs"
)

// RoleSyncHandler processes TaskFormSyncRole tasks on the worker.
func RoleSyncHandler(sync *Synchronizer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload jobs.FormSyncRolePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return sync.SyncRole(ctx, payload.RoleName)
	}
}

// UserSyncHandler processes TaskFormSyncUser tasks on the worker.
func UserSyncHandler(sync *Synchronizer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload jobs.FormSyncUserPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return sync.SyncUser(ctx, payload.UserID)
	}
}
