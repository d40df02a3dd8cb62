package organizer

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"
	"testing"

	"chestorganizer/internal/protocol"
	"chestorganizer/internal/sim/catalogs"
	"chestorganizer/internal/sim/world"
)

func newTestWorld(t *testing.T) *world.World {
	t.Helper()
	cats, err := catalogs.New(
		[]catalogs.BlockDef{
			{ID: catalogs.Air},
			{ID: "minecraft:stone", Solid: true},
			{ID: "minecraft:chest", Solid: true, ContainerSlots: 27},
			{ID: "minecraft:barrel", Solid: true, ContainerSlots: 27},
		},
		[]catalogs.ItemDef{
			{ID: "minecraft:apple"},
			{ID: "minecraft:dirt"},
			{ID: "minecraft:ender_pearl", MaxStack: 16},
		},
	)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w, err := world.New(world.WorldConfig{ID: "test", TickRateHz: 20, Height: 128, BoundaryR: 64}, cats, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	return w
}

type testClient struct {
	id  string
	out chan []byte
}

func joinClient(t *testing.T, w *world.World, name string) *testClient {
	t.Helper()
	out := make(chan []byte, 256)
	resp := make(chan world.JoinResponse, 1)
	w.StepOnce([]world.JoinRequest{{Name: name, Out: out, Resp: resp}}, nil, nil)
	jr := <-resp
	return &testClient{id: jr.Welcome.AgentID, out: out}
}

func (c *testClient) act(w *world.World, inst ...protocol.InstantReq) {
	w.StepOnce(nil, nil, []world.ActionEnvelope{{AgentID: c.id, Act: protocol.ActMsg{Instants: inst}}})
}

// chats drains the client's outbox and returns every CHAT text it received.
func (c *testClient) chats(t *testing.T) []string {
	t.Helper()
	var out []string
	for {
		select {
		case b := <-c.out:
			var msg protocol.EventMsg
			if err := json.Unmarshal(b, &msg); err != nil {
				t.Fatalf("decode: %v", err)
			}
			for _, ev := range msg.Events {
				if ev["type"] == "CHAT" {
					out = append(out, ev["text"].(string))
				}
			}
		default:
			return out
		}
	}
}

func stepUntilTick(w *world.World, tick uint64) {
	for w.CurrentTick() < tick {
		w.StepOnce(nil, nil, nil)
	}
}

func containerAt(t *testing.T, w *world.World, pos world.Vec3i) []string {
	t.Helper()
	b, err := w.BlockAt(pos)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	c, err := b.Container()
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	var out []string
	for i := 0; i < c.Size(); i++ {
		s, err := c.Item(i)
		if err != nil {
			t.Fatalf("item %d: %v", i, err)
		}
		out = append(out, s.String())
	}
	return out
}

func fillChest(c *testClient, w *world.World, pos world.Vec3i) {
	target := pos.ToArray()
	c.act(w,
		protocol.InstantReq{ID: "p", Type: protocol.InstantPlace, Target: target, Block: "minecraft:chest"},
		protocol.InstantReq{ID: "i1", Type: protocol.InstantPut, Target: target, Slot: 0, Item: "minecraft:dirt", Count: 10},
		protocol.InstantReq{ID: "i2", Type: protocol.InstantPut, Target: target, Slot: 3, Item: "minecraft:apple", Count: 30},
		protocol.InstantReq{ID: "i3", Type: protocol.InstantPut, Target: target, Slot: 7, Item: "minecraft:apple", Count: 50},
	)
}

func TestAddon_InstallLogsOnce(t *testing.T) {
	w := newTestWorld(t)
	var buf bytes.Buffer
	a := New(DefaultConfig(), log.New(&buf, "", 0), nil)
	if err := a.Install(w); err != nil {
		t.Fatalf("install: %v", err)
	}
	if err := a.Install(w); err != ErrInstalled {
		t.Fatalf("second install: %v", err)
	}
	if n := strings.Count(buf.String(), "Chest Organizer add-on loaded"); n != 1 {
		t.Fatalf("load line count: %d (%q)", n, buf.String())
	}
}

func TestAddon_AutoOrganizeEndToEnd(t *testing.T) {
	w := newTestWorld(t)
	sink := &memSink{}
	a := New(DefaultConfig(), quietLogger(), sink)
	if err := a.Install(w); err != nil {
		t.Fatalf("install: %v", err)
	}
	c := joinClient(t, w, "alice")
	pos := world.Vec3i{X: 2, Y: 0, Z: 2}
	fillChest(c, w, pos)
	c.act(w, protocol.InstantReq{ID: "open", Type: protocol.InstantInteract, Target: pos.ToArray()})
	if a.Registry().Len() != 1 || a.OpenSessions() != 1 {
		t.Fatalf("sessions: %d/%d", a.Registry().Len(), a.OpenSessions())
	}
	c.chats(t)

	// Walking to exactly the close distance keeps the session open.
	c.act(w, protocol.InstantReq{ID: "m1", Type: protocol.InstantMove, Pos: [3]float64{8, 0, 2}})
	stepUntilTick(w, 40)
	if a.Registry().Len() != 1 {
		t.Fatalf("session closed at distance 6")
	}

	c.act(w, protocol.InstantReq{ID: "m2", Type: protocol.InstantMove, Pos: [3]float64{20, 0, 2}})
	stepUntilTick(w, 60)
	if a.Registry().Len() != 0 || a.OpenSessions() != 0 {
		t.Fatalf("session still open")
	}

	got := containerAt(t, w, pos)
	if got[0] != "minecraft:apple x64/64" || got[1] != "minecraft:apple x16/64" || got[2] != "minecraft:dirt x10/64" || got[3] != "<empty>" {
		t.Fatalf("container: %v", got[:4])
	}
	chats := c.chats(t)
	if len(chats) != 1 || chats[0] != DefaultConfig().Messages.AutoOrganized {
		t.Fatalf("chats: %v", chats)
	}
	if len(sink.runs) != 1 || sink.runs[0].Tick != 59 {
		t.Fatalf("runs: %+v", sink.runs)
	}
}

func TestAddon_LeaveOrganizesWithoutMessage(t *testing.T) {
	w := newTestWorld(t)
	a := New(DefaultConfig(), quietLogger(), nil)
	if err := a.Install(w); err != nil {
		t.Fatalf("install: %v", err)
	}
	c := joinClient(t, w, "bob")
	pos := world.Vec3i{X: 1, Y: 0, Z: 0}
	fillChest(c, w, pos)
	c.act(w, protocol.InstantReq{ID: "open", Type: protocol.InstantInteract, Target: pos.ToArray()})
	c.chats(t)

	w.StepOnce(nil, []string{c.id}, nil)
	stepUntilTick(w, 20)

	if a.Registry().Len() != 0 {
		t.Fatalf("session left after actor left")
	}
	if got := containerAt(t, w, pos); got[0] != "minecraft:apple x64/64" {
		t.Fatalf("container: %v", got[:3])
	}
	if chats := c.chats(t); len(chats) != 0 {
		t.Fatalf("departed actor got chat: %v", chats)
	}
}

func TestAddon_CommandCancelsBroadcast(t *testing.T) {
	w := newTestWorld(t)
	a := New(DefaultConfig(), quietLogger(), nil)
	if err := a.Install(w); err != nil {
		t.Fatalf("install: %v", err)
	}
	alice := joinClient(t, w, "alice")
	bob := joinClient(t, w, "bob")
	pos := world.Vec3i{X: 1, Y: 1, Z: -2}
	fillChest(alice, w, pos)
	alice.chats(t)
	bob.chats(t)

	alice.act(w, protocol.InstantReq{ID: "s", Type: protocol.InstantSay, Text: "!organize"})

	if chats := bob.chats(t); len(chats) != 0 {
		t.Fatalf("command was broadcast: %v", chats)
	}
	chats := alice.chats(t)
	if len(chats) != 1 || chats[0] != "§a[Organizer] 1 chest(s) organized!" {
		t.Fatalf("alice chats: %v", chats)
	}
	if got := containerAt(t, w, pos); got[0] != "minecraft:apple x64/64" {
		t.Fatalf("container: %v", got[:3])
	}

	alice.act(w, protocol.InstantReq{ID: "s2", Type: protocol.InstantSay, Text: "hello"})
	if chats := bob.chats(t); len(chats) != 1 || chats[0] != "hello" {
		t.Fatalf("plain chat: %v", chats)
	}
}

func TestAddon_CloseDetaches(t *testing.T) {
	w := newTestWorld(t)
	a := New(DefaultConfig(), quietLogger(), nil)
	if err := a.Install(w); err != nil {
		t.Fatalf("install: %v", err)
	}
	c := joinClient(t, w, "carol")
	pos := world.Vec3i{X: 0, Y: 0, Z: 1}
	fillChest(c, w, pos)
	c.act(w, protocol.InstantReq{ID: "open", Type: protocol.InstantInteract, Target: pos.ToArray()})

	a.Close()
	if a.Registry().Len() != 0 {
		t.Fatalf("close kept sessions")
	}

	c.act(w, protocol.InstantReq{ID: "m", Type: protocol.InstantMove, Pos: [3]float64{30, 0, 30}})
	stepUntilTick(w, 40)
	if got := containerAt(t, w, pos); got[0] != "minecraft:dirt x10/64" {
		t.Fatalf("container changed after close: %v", got[:8])
	}

	c.chats(t)
	c.act(w, protocol.InstantReq{ID: "s", Type: protocol.InstantSay, Text: "!organize"})
	if chats := c.chats(t); len(chats) != 1 || chats[0] != "!organize" {
		t.Fatalf("command handled after close: %v", chats)
	}

	if err := a.Install(w); err != nil {
		t.Fatalf("reinstall: %v", err)
	}
}
