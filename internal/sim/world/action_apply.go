package world

import (
	"errors"
	"strings"

	"chestorganizer/internal/inventory"
	"chestorganizer/internal/protocol"
)

func (w *World) applyAct(tick uint64, a *Agent, act protocol.ActMsg) {
	for _, inst := range act.Instants {
		code, msg := w.applyInstant(tick, a, inst)
		if !protocol.IsKnownCode(code) {
			code = protocol.ErrInternal
		}
		ev := protocol.Event{
			"t":    tick,
			"type": protocol.EventActionResult,
			"ref":  inst.ID,
			"ok":   code == "",
		}
		if code != "" {
			ev["code"] = code
			ev["message"] = msg
		}
		a.AddEvent(ev)
	}
}

func (w *World) applyInstant(tick uint64, a *Agent, inst protocol.InstantReq) (code, msg string) {
	switch inst.Type {
	case protocol.InstantMove:
		pos := Vec3f{X: inst.Pos[0], Y: inst.Pos[1], Z: inst.Pos[2]}
		if !w.inBounds(pos.Floor()) {
			return protocol.ErrUnloaded, "outside world"
		}
		a.Pos = pos
		return "", ""

	case protocol.InstantSay:
		text := inst.Text
		if strings.TrimSpace(text) == "" {
			return protocol.ErrBadRequest, "empty message"
		}
		ev := &ChatEvent{Sender: a, Message: text}
		w.dispatchChat(ev)
		if ev.Cancel {
			return "", ""
		}
		for _, other := range w.agents {
			other.AddEvent(protocol.Event{
				"t":    tick,
				"type": protocol.EventChat,
				"from": a.id,
				"text": text,
			})
		}
		return "", ""

	case protocol.InstantInteract:
		pos := vecFromArray(inst.Target)
		if code, msg := w.checkReach(a, pos); code != "" {
			return code, msg
		}
		b, err := w.BlockAt(pos)
		if err != nil {
			return protocol.ErrUnloaded, err.Error()
		}
		w.dispatchInteract(&InteractEvent{Actor: a, Block: b})
		if c := w.containers[pos]; c != nil {
			a.AddEvent(protocol.Event{
				"t":     tick,
				"type":  protocol.EventContainer,
				"id":    c.ID(),
				"size":  c.Size(),
				"slots": c.Slots(),
			})
		}
		return "", ""

	case protocol.InstantPlace:
		pos := vecFromArray(inst.Target)
		if code, msg := w.checkReach(a, pos); code != "" {
			return code, msg
		}
		from := w.blockName(pos)
		if err := w.SetBlock(pos, inst.Block); err != nil {
			return errCode(err), err.Error()
		}
		w.audit(AuditEntry{Tick: tick, Actor: a.id, Action: "SET_BLOCK", Pos: pos.ToArray(), From: from, To: inst.Block})
		return "", ""

	case protocol.InstantPut:
		pos := vecFromArray(inst.Target)
		if code, msg := w.checkReach(a, pos); code != "" {
			return code, msg
		}
		c := w.containers[pos]
		if c == nil {
			return protocol.ErrInvalidTarget, "no container"
		}
		var s *inventory.Stack
		if inst.Count > 0 {
			var err error
			if s, err = w.NewStack(inst.Item, inst.Count); err != nil {
				return protocol.ErrBadRequest, err.Error()
			}
		}
		if err := c.SetItem(inst.Slot, s); err != nil {
			return errCode(err), err.Error()
		}
		w.audit(AuditEntry{Tick: tick, Actor: a.id, Action: "PUT_ITEM", Pos: pos.ToArray(), To: inst.Item, Slot: inst.Slot, Count: inst.Count})
		return "", ""
	}
	return protocol.ErrBadRequest, "unknown instant type"
}

func (w *World) checkReach(a *Agent, pos Vec3i) (code, msg string) {
	if w.cfg.Reach <= 0 {
		return "", ""
	}
	center := pos.Float()
	center.X += 0.5
	center.Y += 0.5
	center.Z += 0.5
	if Distance(a.Pos, center) > w.cfg.Reach {
		return protocol.ErrBlocked, "too far"
	}
	return "", ""
}

func errCode(err error) string {
	switch {
	case errors.Is(err, ErrUnloaded):
		return protocol.ErrUnloaded
	case errors.Is(err, ErrUnknownBlock), errors.Is(err, inventory.ErrBadAmount):
		return protocol.ErrBadRequest
	case errors.Is(err, inventory.ErrSlotOutOfRange), errors.Is(err, ErrNotContainer):
		return protocol.ErrInvalidTarget
	}
	return protocol.ErrInternal
}

func vecFromArray(v [3]int) Vec3i { return Vec3i{X: v[0], Y: v[1], Z: v[2]} }
