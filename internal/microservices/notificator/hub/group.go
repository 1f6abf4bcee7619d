package hub

import (
	"sync"

	"restaurant-admin/internal/common/logger"
	"restaurant-admin/internal/common/metrics"
	"restaurant-admin/internal/domain"
)

// Member is one connection that can receive group broadcasts.
type Member interface {
	ID() string
	Identity() domain.Identity
	// Send queues ev without blocking and reports whether it was accepted.
	Send(ev domain.Event) bool
}

// Group is the set of members currently joined to a room.
type Group struct {
	name    string
	mu      sync.RWMutex
	members map[string]Member
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewGroup(name string, m *metrics.Metrics, lg *logger.Logger) *Group {
	return &Group{
		name:    name,
		members: make(map[string]Member),
		metrics: m,
		log:     lg,
	}
}

func (g *Group) Name() string { return g.name }

// Join adds m to the group. Joining twice with the same id replaces the
// previous member.
func (g *Group) Join(m Member) {
	g.mu.Lock()
	g.members[m.ID()] = m
	n := len(g.members)
	g.mu.Unlock()

	g.setGauge(n)
	g.log.Info("member_joined", map[string]any{
		"room":      g.name,
		"member_id": m.ID(),
		"username":  m.Identity().Username,
		"members":   n,
	})
}

// Leave removes the member with id. Unknown ids are ignored.
func (g *Group) Leave(id string) {
	g.mu.Lock()
	_, ok := g.members[id]
	delete(g.members, id)
	n := len(g.members)
	g.mu.Unlock()

	if !ok {
		return
	}
	g.setGauge(n)
	g.log.Info("member_left", map[string]any{"room": g.name, "member_id": id, "members": n})
}

func (g *Group) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.members)
}

// Broadcast delivers ev to every member joined at the time of the call and
// returns how many accepted it. A member that cannot take the event misses
// it; the others are unaffected.
func (g *Group) Broadcast(ev domain.Event) int {
	g.mu.RLock()
	snapshot := make([]Member, 0, len(g.members))
	for _, m := range g.members {
		snapshot = append(snapshot, m)
	}
	g.mu.RUnlock()

	delivered := 0
	for _, m := range snapshot {
		if m.Send(ev) {
			delivered++
			continue
		}
		if g.metrics != nil {
			g.metrics.DroppedEvents.Inc()
		}
		g.log.Warn("event_dropped", map[string]any{
			"room":      g.name,
			"event":     ev.Name,
			"member_id": m.ID(),
		})
	}

	if g.metrics != nil {
		g.metrics.Broadcasts.WithLabelValues(ev.Name).Inc()
	}
	g.log.Debug("event_broadcast", map[string]any{
		"room":      g.name,
		"event":     ev.Name,
		"members":   len(snapshot),
		"delivered": delivered,
	})
	return delivered
}

func (g *Group) setGauge(n int) {
	if g.metrics != nil {
		g.metrics.DashboardMembers.Set(float64(n))
	}
}
