package organizer

import (
	"errors"
	"io"
	"log"
	"testing"

	"chestorganizer/internal/inventory"
	"chestorganizer/internal/sim/world"
)

type fakeActor struct {
	id     string
	valid  bool
	pos    world.Vec3f
	posErr error
	dim    world.Dimension
	msgs   []string
}

func (a *fakeActor) ID() string  { return a.id }
func (a *fakeActor) Valid() bool { return a.valid }
func (a *fakeActor) Position() (world.Vec3f, error) {
	if a.posErr != nil {
		return world.Vec3f{}, a.posErr
	}
	return a.pos, nil
}
func (a *fakeActor) SendMessage(text string)    { a.msgs = append(a.msgs, text) }
func (a *fakeActor) Dimension() world.Dimension { return a.dim }

type fakeContainer struct {
	slots []*inventory.Stack
}

func (c *fakeContainer) Size() int { return len(c.slots) }

func (c *fakeContainer) Item(i int) (*inventory.Stack, error) {
	if i < 0 || i >= len(c.slots) {
		return nil, inventory.ErrSlotOutOfRange
	}
	return c.slots[i].Clone(), nil
}

func (c *fakeContainer) SetItem(i int, s *inventory.Stack) error {
	if i < 0 || i >= len(c.slots) {
		return inventory.ErrSlotOutOfRange
	}
	c.slots[i] = s.Clone()
	return nil
}

type fakeBlock struct {
	typ  string
	pos  world.Vec3i
	c    *fakeContainer
	cErr error
}

func (b *fakeBlock) TypeID() string        { return b.typ }
func (b *fakeBlock) Location() world.Vec3i { return b.pos }
func (b *fakeBlock) Container() (inventory.Container, error) {
	if b.cErr != nil {
		return nil, b.cErr
	}
	if b.c == nil {
		return nil, world.ErrNotContainer
	}
	return b.c, nil
}

// fakeDim maps positions to blocks; positions listed in fail return an error.
type fakeDim struct {
	blocks map[world.Vec3i]*fakeBlock
	fail   map[world.Vec3i]bool
	calls  []world.Vec3i
}

func (d *fakeDim) BlockAt(pos world.Vec3i) (world.Block, error) {
	d.calls = append(d.calls, pos)
	if d.fail[pos] {
		return nil, errors.New("unloaded")
	}
	if b, ok := d.blocks[pos]; ok {
		return b, nil
	}
	return &fakeBlock{typ: "minecraft:air", pos: pos}, nil
}

type memSink struct {
	runs []RunRecord
}

func (m *memSink) WriteRun(rec RunRecord) error {
	m.runs = append(m.runs, rec)
	return nil
}

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func stack(id string, n, max int) *inventory.Stack {
	return &inventory.Stack{TypeID: id, Amount: n, MaxAmount: max}
}

// messyChest holds two partial apple stacks and a dirt stack before bread.
func messyChest(pos world.Vec3i) *fakeBlock {
	slots := make([]*inventory.Stack, 27)
	slots[0] = stack("minecraft:dirt", 10, 64)
	slots[3] = stack("minecraft:apple", 30, 64)
	slots[7] = stack("minecraft:apple", 50, 64)
	return &fakeBlock{typ: "minecraft:chest", pos: pos, c: &fakeContainer{slots: slots}}
}

func assertOrganized(t testing.TB, b *fakeBlock) {
	t.Helper()
	want := []struct {
		id string
		n  int
	}{{"minecraft:apple", 64}, {"minecraft:apple", 16}, {"minecraft:dirt", 10}}
	for i, w := range want {
		s := b.c.slots[i]
		if s == nil || s.TypeID != w.id || s.Amount != w.n {
			t.Fatalf("slot %d: got %v want %s x%d", i, s, w.id, w.n)
		}
	}
	for i := len(want); i < len(b.c.slots); i++ {
		if b.c.slots[i] != nil {
			t.Fatalf("slot %d: expected empty, got %v", i, b.c.slots[i])
		}
	}
}

func assertUntouched(t testing.TB, b *fakeBlock) {
	t.Helper()
	if b.c.slots[0] == nil || b.c.slots[0].TypeID != "minecraft:dirt" || b.c.slots[3] == nil || b.c.slots[7] == nil {
		t.Fatalf("container was modified: %v", b.c.slots)
	}
}

func newTestRunner(sink RunSink) *Runner {
	return &Runner{
		Organizer: &inventory.Organizer{Sorter: inventory.NewSorter("en")},
		Log:       quietLogger(),
		Sink:      sink,
	}
}
