package organizer

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"chestorganizer/internal/inventory"
	"chestorganizer/internal/sim/world"
)

type Trigger string

const (
	TriggerWalkedAway Trigger = "walked_away"
	TriggerActorGone  Trigger = "actor_gone"
	TriggerCommand    Trigger = "command"
)

// RunRecord is the audit entry for one organize attempt.
type RunRecord struct {
	RunID     string           `json:"run_id"`
	Tick      uint64           `json:"tick"`
	Trigger   Trigger          `json:"trigger"`
	ActorID   string           `json:"actor_id"`
	SessionID string           `json:"session_id,omitempty"`
	Block     string           `json:"block"`
	Pos       [3]int           `json:"pos"`
	OK        bool             `json:"ok"`
	Error     string           `json:"error,omitempty"`
	Report    inventory.Report `json:"report"`
}

type RunSink interface {
	WriteRun(rec RunRecord) error
}

// Runner organizes one block and reports the attempt to the log and sink.
type Runner struct {
	Organizer *inventory.Organizer
	Log       *log.Logger
	Sink      RunSink
	Clock     func() uint64
}

func (r *Runner) OrganizeBlock(b world.Block, trig Trigger, actorID, sessionID string) (inventory.Report, error) {
	pos := b.Location()
	rec := RunRecord{
		RunID:     uuid.NewString(),
		Trigger:   trig,
		ActorID:   actorID,
		SessionID: sessionID,
		Block:     b.TypeID(),
		Pos:       pos.ToArray(),
	}
	if r.Clock != nil {
		rec.Tick = r.Clock()
	}

	rep, err := r.organize(b)
	rec.Report = rep
	if err != nil {
		rec.Error = err.Error()
		r.Log.Printf("warn: organize %s at %v: %v", rec.Block, pos, err)
	} else {
		rec.OK = true
		if rep.Lost() {
			r.Log.Printf("warn: organize %s at %v dropped %d rejected and %d overflow stacks",
				rec.Block, pos, len(rep.Rejected), len(rep.Overflow))
		}
	}
	if r.Sink != nil {
		if werr := r.Sink.WriteRun(rec); werr != nil {
			r.Log.Printf("run sink: %v", werr)
		}
	}
	return rep, err
}

func (r *Runner) organize(b world.Block) (inventory.Report, error) {
	c, err := b.Container()
	if err != nil {
		return inventory.Report{}, fmt.Errorf("container: %w", err)
	}
	return r.Organizer.Organize(c)
}
