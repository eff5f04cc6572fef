package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingListener struct {
	label string
	log   *[]string
}

func (l *recordingListener) OnRoleCreated(context.Context, RoleCreated) {
	*l.log = append(*l.log, l.label+":created")
}

func (l *recordingListener) OnRoleUpdated(context.Context, RoleUpdated) {
	*l.log = append(*l.log, l.label+":updated")
}

func (l *recordingListener) OnRoleAssigned(context.Context, RoleAssigned) {
	*l.log = append(*l.log, l.label+":assigned")
}

func TestBusDispatchesInRegistrationOrder(t *testing.T) {
	var log []string
	bus := NewBus(nil)
	bus.Subscribe(&recordingListener{label: "first", log: &log})
	bus.Subscribe(&recordingListener{label: "second", log: &log})

	ctx := context.Background()
	bus.PublishRoleCreated(ctx, RoleCreated{Name: "reviewer"})
	bus.PublishRoleUpdated(ctx, RoleUpdated{Name: "reviewer"})
	bus.PublishRoleAssigned(ctx, RoleAssigned{UserID: 7, RoleName: "reviewer"})

	assert.Equal(t, []string{
		"first:created", "second:created",
		"first:updated", "second:updated",
		"first:assigned", "second:assigned",
	}, log)
}

func TestBusIgnoresNilListener(t *testing.T) {
	bus := NewBus(nil)
	bus.Subscribe(nil)
	// Publishing on an empty bus is a no-op.
	bus.PublishRoleCreated(context.Background(), RoleCreated{Name: "reviewer"})
}
