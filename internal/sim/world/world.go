package world

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"chestorganizer/internal/inventory"
	"chestorganizer/internal/protocol"
	"chestorganizer/internal/sim/catalogs"
)

type WorldConfig struct {
	ID         string
	TickRateHz int
	Height     int
	BoundaryR  int

	// Spawn is where newly joined agents appear.
	Spawn Vec3f
	// Reach bounds INTERACT/PLACE/PUT distance from the agent; 0 disables the check.
	Reach float64
}

type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	Welcome protocol.WelcomeMsg
}

type ActionEnvelope struct {
	AgentID string
	Act     protocol.ActMsg
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type AuditEntry struct {
	Tick   uint64 `json:"tick"`
	Actor  string `json:"actor"`
	Action string `json:"action"` // "SET_BLOCK", "PUT_ITEM"
	Pos    [3]int `json:"pos"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Slot   int    `json:"slot,omitempty"`
	Count  int    `json:"count,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// World is a single-threaded authoritative simulation.
// All state must be accessed only from the world loop goroutine; subscriptions and
// interval callbacks are registered before Run starts or from inside a callback.
type World struct {
	cfg      WorldConfig
	catalogs *catalogs.Catalogs
	stacks   inventory.StackFactory
	log      *log.Logger

	tick atomic.Uint64

	blocks     map[Vec3i]uint16
	containers map[Vec3i]*Container
	agents     map[string]*Agent

	inbox chan ActionEnvelope
	join  chan JoinRequest
	leave chan string

	nextAgentNum atomic.Uint64
	nextSubID    uint64

	interactSubs []interactSub
	chatSubs     []chatSub
	intervals    []interval

	auditLogger AuditLogger

	metrics atomic.Value // WorldMetrics
}

type interactSub struct {
	id SubID
	fn func(*InteractEvent)
}

type chatSub struct {
	id SubID
	fn func(*ChatEvent)
}

type interval struct {
	id    SubID
	every uint64
	fn    func()
}

func New(cfg WorldConfig, cats *catalogs.Catalogs, logger *log.Logger) (*World, error) {
	if cats == nil {
		return nil, fmt.Errorf("nil catalogs")
	}
	if cfg.TickRateHz <= 0 {
		return nil, fmt.Errorf("tick rate must be > 0")
	}
	if cfg.Height <= 0 || cfg.BoundaryR <= 0 {
		return nil, fmt.Errorf("height and boundary must be > 0")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	w := &World{
		cfg:        cfg,
		catalogs:   cats,
		stacks:     inventory.CatalogFactory{Items: &cats.Items},
		log:        logger,
		blocks:     map[Vec3i]uint16{},
		containers: map[Vec3i]*Container{},
		agents:     map[string]*Agent{},
		inbox:      make(chan ActionEnvelope, 1024),
		join:       make(chan JoinRequest, 64),
		leave:      make(chan string, 64),
	}
	w.metrics.Store(WorldMetrics{})
	return w, nil
}

func (w *World) Inbox() chan<- ActionEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest     { return w.join }
func (w *World) Leave() chan<- string         { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

func (w *World) ID() string {
	if w == nil {
		return ""
	}
	return w.cfg.ID
}

func (w *World) TickRateHz() int {
	if w == nil {
		return 0
	}
	return w.cfg.TickRateHz
}

func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }

// NewStack builds a stack sized by the item catalog.
func (w *World) NewStack(typeID string, amount int) (*inventory.Stack, error) {
	return w.stacks.NewStack(typeID, amount)
}

// SubscribeInteract registers fn for every interaction, in registration order.
func (w *World) SubscribeInteract(fn func(*InteractEvent)) SubID {
	w.nextSubID++
	w.interactSubs = append(w.interactSubs, interactSub{id: SubID(w.nextSubID), fn: fn})
	return SubID(w.nextSubID)
}

func (w *World) UnsubscribeInteract(id SubID) {
	out := w.interactSubs[:0]
	for _, s := range w.interactSubs {
		if s.id != id {
			out = append(out, s)
		}
	}
	w.interactSubs = out
}

func (w *World) SubscribeChat(fn func(*ChatEvent)) SubID {
	w.nextSubID++
	w.chatSubs = append(w.chatSubs, chatSub{id: SubID(w.nextSubID), fn: fn})
	return SubID(w.nextSubID)
}

func (w *World) UnsubscribeChat(id SubID) {
	out := w.chatSubs[:0]
	for _, s := range w.chatSubs {
		if s.id != id {
			out = append(out, s)
		}
	}
	w.chatSubs = out
}

// RunInterval calls fn at the end of every everyTicks-th tick.
func (w *World) RunInterval(fn func(), everyTicks int) SubID {
	if everyTicks <= 0 {
		everyTicks = 1
	}
	w.nextSubID++
	w.intervals = append(w.intervals, interval{id: SubID(w.nextSubID), every: uint64(everyTicks), fn: fn})
	return SubID(w.nextSubID)
}

func (w *World) ClearRun(id SubID) {
	out := w.intervals[:0]
	for _, iv := range w.intervals {
		if iv.id != id {
			out = append(out, iv)
		}
	}
	w.intervals = out
}

// Agent returns the live handle for an agent id.
func (w *World) Agent(id string) (*Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// inBounds mirrors the loaded area: a square of BoundaryR around the origin, 0 <= y < Height.
func (w *World) inBounds(pos Vec3i) bool {
	r := w.cfg.BoundaryR
	return pos.X >= -r && pos.X <= r && pos.Z >= -r && pos.Z <= r && pos.Y >= 0 && pos.Y < w.cfg.Height
}

func (w *World) audit(e AuditEntry) {
	if w.auditLogger == nil {
		return
	}
	if err := w.auditLogger.WriteAudit(e); err != nil {
		w.log.Printf("audit: %v", err)
	}
}
