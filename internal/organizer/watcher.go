package organizer

import (
	"log"

	"chestorganizer/internal/sim/world"
)

// StorageKinds is the set of block type ids the organizer acts on.
type StorageKinds map[string]struct{}

func NewStorageKinds(ids ...string) StorageKinds {
	k := StorageKinds{}
	for _, id := range ids {
		k[id] = struct{}{}
	}
	return k
}

func (k StorageKinds) Has(id string) bool {
	_, ok := k[id]
	return ok
}

// Watcher tracks open storage blocks per actor and organizes them once the actor leaves.
type Watcher struct {
	Registry *Registry
	Policy   ClosePolicy
	Storage  StorageKinds
	Runner   *Runner
	Log      *log.Logger
	Clock    func() uint64

	// AutoMessage is sent to the actor after a successful automatic organize.
	AutoMessage string
}

// OnInteract starts a session when the block is a storage block. An existing unclosed
// session for the same actor is replaced and its container is left as is.
func (w *Watcher) OnInteract(ev *world.InteractEvent) {
	if ev == nil || ev.Actor == nil || ev.Block == nil {
		return
	}
	if !w.Storage.Has(ev.Block.TypeID()) {
		return
	}
	var tick uint64
	if w.Clock != nil {
		tick = w.Clock()
	}
	s := NewSession(ev.Actor, ev.Block, tick)
	if prev := w.Registry.Open(s); prev != nil && prev.OpenedAt != s.OpenedAt {
		w.Log.Printf("warn: actor %s opened %s at %v before closing %s at %v; the first one will not be organized",
			s.ActorID, ev.Block.TypeID(), s.OpenedAt, prev.Block.TypeID(), prev.OpenedAt)
	}
}

// Tick checks every session once. A failure in one session never stops the others.
func (w *Watcher) Tick() {
	for _, s := range w.Registry.Sessions() {
		w.check(s)
	}
}

func (w *Watcher) check(s *Session) {
	defer func() {
		if r := recover(); r != nil {
			w.Registry.Close(s)
			w.Log.Printf("session %s: dropped after panic: %v", s.ActorID, r)
		}
	}()

	v, err := w.Policy.Evaluate(s.Actor, s.OpenedAt)
	if err != nil {
		w.Registry.Close(s)
		return
	}

	var trig Trigger
	switch v {
	case VerdictWalkedAway:
		trig = TriggerWalkedAway
	case VerdictActorGone:
		trig = TriggerActorGone
	default:
		return
	}

	w.Registry.Close(s)
	if _, err := w.Runner.OrganizeBlock(s.Block, trig, s.ActorID, s.ID); err != nil {
		return
	}
	if s.Actor.Valid() && w.AutoMessage != "" {
		s.Actor.SendMessage(w.AutoMessage)
	}
}
