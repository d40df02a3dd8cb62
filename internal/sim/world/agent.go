package world

import (
	"fmt"

	"chestorganizer/internal/protocol"
)

// Agent is a connected actor. The same pointer is handed to scripting callbacks; once the
// agent leaves it stays invalid forever.
type Agent struct {
	w *World

	id   string
	Name string
	Pos  Vec3f

	left   bool
	out    chan []byte
	events []protocol.Event
}

func (a *Agent) ID() string { return a.id }

func (a *Agent) Valid() bool { return a != nil && !a.left }

func (a *Agent) Position() (Vec3f, error) {
	if !a.Valid() {
		return Vec3f{}, fmt.Errorf("agent %s: %w", a.id, ErrInvalidActor)
	}
	return a.Pos, nil
}

func (a *Agent) Dimension() Dimension { return a.w }

// SendMessage queues a system chat line for this agent only. Messages to a stale
// handle are dropped.
func (a *Agent) SendMessage(text string) {
	if !a.Valid() {
		return
	}
	a.AddEvent(protocol.Event{
		"t":    a.w.CurrentTick(),
		"type": protocol.EventChat,
		"from": protocol.SystemSender,
		"text": text,
	})
}

func (a *Agent) AddEvent(e protocol.Event) {
	a.events = append(a.events, e)
}

// takeEvents returns and clears pending events.
func (a *Agent) takeEvents() []protocol.Event {
	ev := a.events
	a.events = nil
	return ev
}
