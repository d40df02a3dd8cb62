package world

import (
	"context"
	"encoding/json"
	"time"

	"chestorganizer/internal/protocol"
	"chestorganizer/internal/sim/world/logic/ids"
)

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActions []ActionEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActions = append(pendingActions, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActions)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActions = pendingActions[:0]
		}
	}
}

// StepOnce advances the world by a single tick using the same ordering semantics as the server.
// It is primarily intended for tests and tools.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, actions []ActionEnvelope) uint64 {
	tick := w.tick.Load()
	w.step(joins, leaves, actions)
	return tick
}

// step order: joins, leaves, actions in arrival order, interval callbacks, event flush.
func (w *World) step(joins []JoinRequest, leaves []string, actions []ActionEnvelope) {
	start := time.Now()
	tick := w.tick.Load()

	for _, req := range joins {
		w.handleJoin(req)
	}
	for _, id := range leaves {
		w.handleLeave(id)
	}
	for _, env := range actions {
		a := w.agents[env.AgentID]
		if a == nil {
			continue
		}
		w.applyAct(tick, a, env.Act)
	}

	for _, iv := range append([]interval(nil), w.intervals...) {
		if (tick+1)%iv.every == 0 {
			w.safeCall("interval", iv.fn)
		}
	}

	w.flushEvents(tick)
	w.tick.Store(tick + 1)

	w.metrics.Store(WorldMetrics{
		Tick:       tick,
		Agents:     len(w.agents),
		Containers: len(w.containers),
		StepMS:     float64(time.Since(start).Microseconds()) / 1000,
	})
}

func (w *World) handleJoin(req JoinRequest) {
	n := w.nextAgentNum.Add(1)
	a := &Agent{
		w:    w,
		id:   ids.AgentID(n),
		Name: req.Name,
		Pos:  w.cfg.Spawn,
		out:  req.Out,
	}
	w.agents[a.id] = a

	if req.Resp == nil {
		return
	}
	req.Resp <- JoinResponse{Welcome: protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		AgentID:         a.id,
		Spawn:           a.Pos.ToArray(),
		WorldParams: protocol.WorldParams{
			WorldID:    w.cfg.ID,
			TickRateHz: w.cfg.TickRateHz,
			Height:     w.cfg.Height,
			BoundaryR:  w.cfg.BoundaryR,
		},
		Catalogs: protocol.CatalogDigests{
			BlockPalette: protocol.DigestRef{Digest: w.catalogs.Blocks.PaletteDigest, Count: len(w.catalogs.Blocks.Palette)},
			ItemPalette:  protocol.DigestRef{Digest: w.catalogs.Items.PaletteDigest, Count: len(w.catalogs.Items.Palette)},
		},
	}}
}

func (w *World) handleLeave(agentID string) {
	a := w.agents[agentID]
	if a == nil {
		return
	}
	a.left = true
	a.events = nil
	delete(w.agents, agentID)
}

// safeCall keeps a misbehaving callback from taking down the loop.
func (w *World) safeCall(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Printf("%s callback panic: %v", what, r)
		}
	}()
	fn()
}

func (w *World) dispatchInteract(ev *InteractEvent) {
	for _, s := range append([]interactSub(nil), w.interactSubs...) {
		w.safeCall("interact", func() { s.fn(ev) })
	}
}

func (w *World) dispatchChat(ev *ChatEvent) {
	for _, s := range append([]chatSub(nil), w.chatSubs...) {
		w.safeCall("chat", func() { s.fn(ev) })
	}
}

func (w *World) flushEvents(tick uint64) {
	for _, a := range w.agents {
		ev := a.takeEvents()
		if len(ev) == 0 || a.out == nil {
			continue
		}
		b, err := json.Marshal(protocol.EventMsg{
			Type:            protocol.TypeEvent,
			ProtocolVersion: protocol.Version,
			Tick:            tick,
			Events:          ev,
		})
		if err != nil {
			w.log.Printf("marshal events for %s: %v", a.id, err)
			continue
		}
		sendLatest(a.out, b)
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
