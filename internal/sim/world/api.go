package world

import (
	"errors"

	"chestorganizer/internal/inventory"
)

// Lookup failures. Handles go stale when an agent leaves or a block changes; callers
// treat these as "does not exist".
var (
	ErrUnloaded     = errors.New("position not loaded")
	ErrInvalidActor = errors.New("actor no longer valid")
	ErrNotContainer = errors.New("block has no container")
	ErrUnknownBlock = errors.New("unknown block type")
)

// Actor is the scripting view of an agent.
type Actor interface {
	ID() string
	Valid() bool
	Position() (Vec3f, error)
	SendMessage(text string)
	Dimension() Dimension
}

// Block is the scripting view of one block position.
type Block interface {
	TypeID() string
	Location() Vec3i
	Container() (inventory.Container, error)
}

type Dimension interface {
	BlockAt(pos Vec3i) (Block, error)
}

// InteractEvent fires before an agent opens or uses a block.
type InteractEvent struct {
	Actor Actor
	Block Block
}

// ChatEvent fires before a chat message is broadcast. Setting Cancel suppresses the broadcast.
type ChatEvent struct {
	Sender  Actor
	Message string
	Cancel  bool
}

type SubID uint64
