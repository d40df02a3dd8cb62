package world

import (
	"fmt"

	"chestorganizer/internal/inventory"
	"chestorganizer/internal/sim/world/logic/ids"
)

// Container is the slot inventory behind a container block. Its size is fixed when the
// block is placed.
type Container struct {
	Type string
	Pos  Vec3i

	slots   []*inventory.Stack
	removed bool
}

func newContainer(typ string, pos Vec3i, size int) *Container {
	return &Container{Type: typ, Pos: pos, slots: make([]*inventory.Stack, size)}
}

func (c *Container) ID() string { return containerID(c.Type, c.Pos) }

func (c *Container) Size() int { return len(c.slots) }

// Item returns a copy of the stack in slot i, or nil for an empty slot.
func (c *Container) Item(i int) (*inventory.Stack, error) {
	if err := c.check(i); err != nil {
		return nil, err
	}
	return c.slots[i].Clone(), nil
}

// SetItem stores a copy of s in slot i; nil or a non-positive amount empties the slot.
func (c *Container) SetItem(i int, s *inventory.Stack) error {
	if err := c.check(i); err != nil {
		return err
	}
	if s == nil || s.Amount <= 0 {
		c.slots[i] = nil
		return nil
	}
	if !s.Valid() {
		return fmt.Errorf("set slot %d to %s: %w", i, s, inventory.ErrBadAmount)
	}
	c.slots[i] = s.Clone()
	return nil
}

func (c *Container) check(i int) error {
	if c.removed {
		return fmt.Errorf("%s: %w", c.ID(), ErrNotContainer)
	}
	if i < 0 || i >= len(c.slots) {
		return fmt.Errorf("%s slot %d/%d: %w", c.ID(), i, len(c.slots), inventory.ErrSlotOutOfRange)
	}
	return nil
}

// Slots lists occupied slots in slot order for observation events.
func (c *Container) Slots() []map[string]any {
	out := make([]map[string]any, 0, len(c.slots))
	for i, s := range c.slots {
		if s == nil {
			continue
		}
		out = append(out, map[string]any{"slot": i, "item": s.TypeID, "count": s.Amount})
	}
	return out
}

func containerID(typ string, pos Vec3i) string {
	return ids.ContainerID(typ, pos.X, pos.Y, pos.Z)
}

func (w *World) ensureContainer(pos Vec3i, typ string, size int) *Container {
	c := w.containers[pos]
	if c != nil && c.Type == typ && c.Size() == size {
		return c
	}
	if c != nil {
		c.removed = true
	}
	c = newContainer(typ, pos, size)
	w.containers[pos] = c
	return c
}

func (w *World) removeContainer(pos Vec3i) *Container {
	c := w.containers[pos]
	if c == nil {
		return nil
	}
	c.removed = true
	delete(w.containers, pos)
	return c
}
