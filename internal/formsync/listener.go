package formsync

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/menuguard/menuguard/internal/events"
	"github.com/menuguard/menuguard/jobs"
)

// TaskEnqueuer is the slice of asynq.Client the listener needs.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Listener subscribes to role lifecycle events and hands synchronization
// work to the task queue; the sync itself runs on the worker.
type Listener struct {
	logger       *slog.Logger
	enqueuer     TaskEnqueuer
	integrations Integrations
}

// NewListener builds a Listener.
func NewListener(logger *slog.Logger, enqueuer TaskEnqueuer, integrations Integrations) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{logger: logger, enqueuer: enqueuer, integrations: integrations}
}

// OnRoleCreated enqueues a role sync for the new role.
func (l *Listener) OnRoleCreated(ctx context.Context, ev events.RoleCreated) {
	l.enqueueRoleSync(ev.Name)
}

// OnRoleUpdated enqueues a role sync for every holder of the role.
func (l *Listener) OnRoleUpdated(ctx context.Context, ev events.RoleUpdated) {
	l.enqueueRoleSync(ev.Name)
}

// OnRoleAssigned enqueues a single-user sync.
func (l *Listener) OnRoleAssigned(ctx context.Context, ev events.RoleAssigned) {
	if !l.integrations.Any() {
		return
	}
	task, err := jobs.NewFormSyncUserTask(jobs.FormSyncUserPayload{UserID: ev.UserID})
	if err != nil {
		l.logger.Warn("build form sync task", slog.Any("error", err))
		return
	}
	if _, err := l.enqueuer.Enqueue(task); err != nil {
		l.logger.Warn("enqueue form sync task",
			slog.Int64("user_id", ev.UserID), slog.Any("error", err))
	}
}

func (l *Listener) enqueueRoleSync(roleName string) {
	if !l.integrations.Any() {
		return
	}
	task, err := jobs.NewFormSyncRoleTask(jobs.FormSyncRolePayload{RoleName: roleName})
	if err != nil {
		l.logger.Warn("build form sync task", slog.Any("error", err))
		return
	}
	if _, err := l.enqueuer.Enqueue(task); err != nil {
		l.logger.Warn("enqueue form sync task",
			slog.String("role", roleName), slog.Any("error", err))
	}
}
