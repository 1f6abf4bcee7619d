package broker

import (
	"context"

	"restaurant-admin/internal/domain"
)

// Publisher hands an event to every dashboard member, on this node or across
// the cluster depending on the implementation.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Broadcaster is the local delivery side, implemented by hub.Group.
type Broadcaster interface {
	Broadcast(ev domain.Event) int
}

// Local delivers straight to the in-process group.
type Local struct {
	group Broadcaster
}

func NewLocal(group Broadcaster) *Local {
	return &Local{group: group}
}

func (l *Local) Publish(_ context.Context, ev domain.Event) error {
	l.group.Broadcast(ev)
	return nil
}
