package organizer

import (
	"fmt"

	"chestorganizer/internal/sim/world"
)

// CommandHandler organizes every storage block around the sender of a chat command.
type CommandHandler struct {
	Commands []string
	Storage  StorageKinds
	// Radius is the half-extent of the scanned box on x, y and z.
	Radius [3]int
	Runner *Runner

	OrganizedFormat string // %d = number organized
	NoneFound       string
}

// IsCommand matches the whole message exactly and case-sensitively.
func (h *CommandHandler) IsCommand(msg string) bool {
	for _, c := range h.Commands {
		if msg == c {
			return true
		}
	}
	return false
}

func (h *CommandHandler) OnChat(ev *world.ChatEvent) {
	if ev == nil || ev.Sender == nil || !h.IsCommand(ev.Message) {
		return
	}
	ev.Cancel = true

	actor := ev.Sender
	pos, err := actor.Position()
	if err != nil {
		return
	}
	found := h.Scan(actor.Dimension(), pos.Floor())
	if len(found) == 0 {
		actor.SendMessage(h.NoneFound)
		return
	}

	organized := 0
	for _, b := range found {
		if _, err := h.Runner.OrganizeBlock(b, TriggerCommand, actor.ID(), ""); err == nil {
			organized++
		}
	}
	actor.SendMessage(fmt.Sprintf(h.OrganizedFormat, organized))
}

// Scan returns the storage blocks in the box around origin, x outermost and z innermost.
// Positions that fail to resolve are skipped.
func (h *CommandHandler) Scan(dim world.Dimension, origin world.Vec3i) []world.Block {
	if dim == nil {
		return nil
	}
	rx, ry, rz := h.Radius[0], h.Radius[1], h.Radius[2]
	var out []world.Block
	for x := -rx; x <= rx; x++ {
		for y := -ry; y <= ry; y++ {
			for z := -rz; z <= rz; z++ {
				b, err := dim.BlockAt(origin.Add(world.Vec3i{X: x, Y: y, Z: z}))
				if err != nil || b == nil {
					continue
				}
				if h.Storage.Has(b.TypeID()) {
					out = append(out, b)
				}
			}
		}
	}
	return out
}
