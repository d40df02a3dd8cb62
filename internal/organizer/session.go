package organizer

import (
	"github.com/google/uuid"

	"chestorganizer/internal/sim/world"
)

// Session records that an actor opened a storage block. It is replaced, never mutated.
type Session struct {
	ID         string
	ActorID    string
	Actor      world.Actor
	Block      world.Block
	OpenedAt   world.Vec3i
	OpenedTick uint64
}

func NewSession(actor world.Actor, block world.Block, tick uint64) *Session {
	return &Session{
		ID:         uuid.NewString(),
		ActorID:    actor.ID(),
		Actor:      actor,
		Block:      block,
		OpenedAt:   block.Location(),
		OpenedTick: tick,
	}
}

// Registry holds at most one open session per actor. It is owned by one Addon and only
// touched from the host's loop goroutine, so it carries no lock.
type Registry struct {
	byActor map[string]*Session
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{byActor: map[string]*Session{}}
}

// Open records s and returns the session it replaced, if any. A replaced session is
// dropped without being organized.
func (r *Registry) Open(s *Session) (replaced *Session) {
	replaced = r.byActor[s.ActorID]
	if replaced == nil {
		r.order = append(r.order, s.ActorID)
	}
	r.byActor[s.ActorID] = s
	return replaced
}

func (r *Registry) Get(actorID string) (*Session, bool) {
	s, ok := r.byActor[actorID]
	return s, ok
}

// Close removes s if it is still the actor's current session.
func (r *Registry) Close(s *Session) bool {
	cur, ok := r.byActor[s.ActorID]
	if !ok || cur != s {
		return false
	}
	r.Remove(s.ActorID)
	return true
}

func (r *Registry) Remove(actorID string) {
	if _, ok := r.byActor[actorID]; !ok {
		return
	}
	delete(r.byActor, actorID)
	for i, id := range r.order {
		if id == actorID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *Registry) Len() int { return len(r.byActor) }

// Sessions returns a snapshot in first-open order; re-opening keeps an actor's position.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byActor[id])
	}
	return out
}

func (r *Registry) Reset() {
	r.byActor = map[string]*Session{}
	r.order = nil
}
