package world

import (
	"fmt"

	"chestorganizer/internal/inventory"
	"chestorganizer/internal/sim/catalogs"
)

// BlockAt returns a handle for pos. Positions outside the loaded area fail with ErrUnloaded.
func (w *World) BlockAt(pos Vec3i) (Block, error) {
	if !w.inBounds(pos) {
		return nil, fmt.Errorf("block at %v: %w", pos, ErrUnloaded)
	}
	return blockRef{w: w, pos: pos}, nil
}

func (w *World) blockName(pos Vec3i) string {
	id, ok := w.blocks[pos]
	if !ok {
		return catalogs.Air
	}
	if int(id) >= len(w.catalogs.Blocks.Palette) {
		return catalogs.Air
	}
	return w.catalogs.Blocks.Palette[id]
}

// SetBlock places typeID at pos, creating or dropping the container behind it.
// Items in a replaced container are discarded.
func (w *World) SetBlock(pos Vec3i, typeID string) error {
	if !w.inBounds(pos) {
		return fmt.Errorf("set block at %v: %w", pos, ErrUnloaded)
	}
	id, ok := w.catalogs.Blocks.Index[typeID]
	if !ok {
		return fmt.Errorf("set block %s: %w", typeID, ErrUnknownBlock)
	}
	if typeID == catalogs.Air {
		delete(w.blocks, pos)
	} else {
		w.blocks[pos] = id
	}
	if n := w.catalogs.Blocks.ContainerSlots(typeID); n > 0 {
		w.ensureContainer(pos, typeID, n)
	} else {
		w.removeContainer(pos)
	}
	return nil
}

// blockRef is a live view of one position: its type and container are resolved on
// every call, so a handle held across ticks sees later changes.
type blockRef struct {
	w   *World
	pos Vec3i
}

func (b blockRef) TypeID() string  { return b.w.blockName(b.pos) }
func (b blockRef) Location() Vec3i { return b.pos }

func (b blockRef) Container() (inventory.Container, error) {
	c := b.w.containers[b.pos]
	if c == nil {
		return nil, fmt.Errorf("%s at %v: %w", b.TypeID(), b.pos, ErrNotContainer)
	}
	return c, nil
}

func (b blockRef) String() string { return containerID(b.TypeID(), b.pos) }
