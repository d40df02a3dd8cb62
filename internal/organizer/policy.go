package organizer

import "chestorganizer/internal/sim/world"

type Verdict int

const (
	VerdictOpen Verdict = iota
	VerdictWalkedAway
	VerdictActorGone
)

func (v Verdict) String() string {
	switch v {
	case VerdictOpen:
		return "open"
	case VerdictWalkedAway:
		return "walked_away"
	case VerdictActorGone:
		return "actor_gone"
	}
	return "unknown"
}

// ClosePolicy decides when an open session counts as closed. The host has no
// container-closed event, so leaving the container's vicinity stands in for it.
type ClosePolicy struct {
	// MaxDistance is the straight-line distance from the open location beyond which the
	// session closes. Exactly MaxDistance keeps it open.
	MaxDistance float64
	// EveryTicks is how often sessions are checked.
	EveryTicks int
}

func DefaultClosePolicy() ClosePolicy {
	return ClosePolicy{MaxDistance: 6, EveryTicks: 20}
}

// Evaluate returns an error when the actor's position cannot be read; callers drop such
// sessions without organizing.
func (p ClosePolicy) Evaluate(actor world.Actor, openedAt world.Vec3i) (Verdict, error) {
	if !actor.Valid() {
		return VerdictActorGone, nil
	}
	pos, err := actor.Position()
	if err != nil {
		return VerdictOpen, err
	}
	if world.Distance(pos, openedAt.Float()) > p.MaxDistance {
		return VerdictWalkedAway, nil
	}
	return VerdictOpen, nil
}
