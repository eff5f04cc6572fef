// Package events provides the in-process notification fan-out for role
// lifecycle changes. Consumers register listener interfaces explicitly;
// there is no ambient global dispatch.
package events

import (
	"context"
	"log/slog"
)

// RoleCreated is published after a role is persisted for the first time.
type RoleCreated struct {
	Name         string
	DisplayName  string
	Capabilities []string
}

// RoleUpdated is published after a role's capability set is replaced.
type RoleUpdated struct {
	Name         string
	DisplayName  string
	Capabilities []string
}

// RoleAssigned is published after a user's primary role changes.
type RoleAssigned struct {
	UserID   int64
	RoleName string
}

// Listener receives role lifecycle notifications. Implementations must not
// block; long work belongs on the task queue.
type Listener interface {
	OnRoleCreated(ctx context.Context, ev RoleCreated)
	OnRoleUpdated(ctx context.Context, ev RoleUpdated)
	OnRoleAssigned(ctx context.Context, ev RoleAssigned)
}

// Bus dispatches role lifecycle events to registered listeners in
// registration order, synchronously within the publishing request.
type Bus struct {
	logger    *slog.Logger
	listeners []Listener
}

// NewBus constructs a Bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger}
}

// Subscribe registers a listener. Not safe for concurrent use with
// publishing; wire all listeners during startup.
func (b *Bus) Subscribe(l Listener) {
	if l != nil {
		b.listeners = append(b.listeners, l)
	}
}

// PublishRoleCreated notifies all listeners of a role creation.
func (b *Bus) PublishRoleCreated(ctx context.Context, ev RoleCreated) {
	for _, l := range b.listeners {
		l.OnRoleCreated(ctx, ev)
	}
}

// PublishRoleUpdated notifies all listeners of a role update.
func (b *Bus) PublishRoleUpdated(ctx context.Context, ev RoleUpdated) {
	for _, l := range b.listeners {
		l.OnRoleUpdated(ctx, ev)
	}
}

// PublishRoleAssigned notifies all listeners of a role assignment.
func (b *Bus) PublishRoleAssigned(ctx context.Context, ev RoleAssigned) {
	for _, l := range b.listeners {
		l.OnRoleAssigned(ctx, ev)
	}
}
