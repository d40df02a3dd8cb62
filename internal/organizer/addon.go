// Package organizer is the chest organizer add-on: it watches actors opening storage
// blocks, consolidates a block's stacks once its actor walks away, and answers the
// manual organize chat command.
package organizer

import (
	"errors"
	"io"
	"log"
	"sync/atomic"

	"chestorganizer/internal/inventory"
	"chestorganizer/internal/sim/tuning"
	"chestorganizer/internal/sim/world"
)

// Host is the part of the world the add-on plugs into. *world.World implements it.
type Host interface {
	SubscribeInteract(fn func(*world.InteractEvent)) world.SubID
	UnsubscribeInteract(id world.SubID)
	SubscribeChat(fn func(*world.ChatEvent)) world.SubID
	UnsubscribeChat(id world.SubID)
	RunInterval(fn func(), everyTicks int) world.SubID
	ClearRun(id world.SubID)
	CurrentTick() uint64
}

type Config struct {
	Policy        ClosePolicy
	ScanRadius    [3]int
	StorageBlocks []string
	Commands      []string
	Locale        string
	Messages      tuning.Messages
}

func ConfigFromTuning(t tuning.Organizer) Config {
	return Config{
		Policy:        ClosePolicy{MaxDistance: t.CloseDistance, EveryTicks: t.CheckEveryTicks},
		ScanRadius:    t.ScanRadius,
		StorageBlocks: t.StorageBlocks,
		Commands:      t.Commands,
		Locale:        t.Locale,
		Messages:      t.Messages,
	}
}

func DefaultConfig() Config { return ConfigFromTuning(tuning.DefaultOrganizer()) }

var ErrInstalled = errors.New("organizer already installed")

// Addon owns the session registry for its lifetime: Install wires it into a host,
// Close unwires it and forgets every open session.
type Addon struct {
	cfg Config
	log *log.Logger

	registry *Registry
	runner   *Runner
	watcher  *Watcher
	command  *CommandHandler

	// open mirrors registry.Len for readers outside the loop goroutine.
	open atomic.Int64

	host        Host
	interactSub world.SubID
	chatSub     world.SubID
	tickRun     world.SubID
}

func New(cfg Config, logger *log.Logger, sink RunSink) *Addon {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	storage := NewStorageKinds(cfg.StorageBlocks...)
	reg := NewRegistry()
	runner := &Runner{
		Organizer: &inventory.Organizer{Sorter: inventory.NewSorter(cfg.Locale)},
		Log:       logger,
		Sink:      sink,
	}
	return &Addon{
		cfg:      cfg,
		log:      logger,
		registry: reg,
		runner:   runner,
		watcher: &Watcher{
			Registry:    reg,
			Policy:      cfg.Policy,
			Storage:     storage,
			Runner:      runner,
			Log:         logger,
			AutoMessage: cfg.Messages.AutoOrganized,
		},
		command: &CommandHandler{
			Commands:        cfg.Commands,
			Storage:         storage,
			Radius:          cfg.ScanRadius,
			Runner:          runner,
			OrganizedFormat: cfg.Messages.CommandOrganized,
			NoneFound:       cfg.Messages.NoneFound,
		},
	}
}

func (a *Addon) Install(h Host) error {
	if a.host != nil {
		return ErrInstalled
	}
	a.host = h
	a.runner.Clock = h.CurrentTick
	a.watcher.Clock = h.CurrentTick

	a.interactSub = h.SubscribeInteract(func(ev *world.InteractEvent) {
		a.watcher.OnInteract(ev)
		a.open.Store(int64(a.registry.Len()))
	})
	a.chatSub = h.SubscribeChat(a.command.OnChat)
	a.tickRun = h.RunInterval(func() {
		a.watcher.Tick()
		a.open.Store(int64(a.registry.Len()))
	}, a.cfg.Policy.EveryTicks)

	a.log.Printf("Chest Organizer add-on loaded")
	return nil
}

// Close detaches from the host. Open sessions are dropped without organizing.
func (a *Addon) Close() {
	if a.host == nil {
		return
	}
	a.host.UnsubscribeInteract(a.interactSub)
	a.host.UnsubscribeChat(a.chatSub)
	a.host.ClearRun(a.tickRun)
	a.host = nil
	a.registry.Reset()
	a.open.Store(0)
}

// Registry must only be used from the host's loop goroutine.
func (a *Addon) Registry() *Registry { return a.registry }

// OpenSessions is safe to call from any goroutine.
func (a *Addon) OpenSessions() int { return int(a.open.Load()) }
