package inventory

// Report describes one organize pass over a container.
type Report struct {
	Before   int            `json:"before"` // non-empty slots read
	After    int            `json:"after"`  // stacks written back
	Totals   map[string]int `json:"totals,omitempty"`
	Rejected []*Stack       `json:"rejected,omitempty"`
	Overflow []*Stack       `json:"overflow,omitempty"`
}

// Lost reports whether the pass dropped any items.
func (r Report) Lost() bool { return len(r.Rejected) > 0 || len(r.Overflow) > 0 }

type Organizer struct {
	Sorter *Sorter
}

// Organize reads, clears, consolidates and rewrites c.
//
// The sequence is not atomic: an error after ClearContainer leaves the container
// partially or fully empty and nothing is rolled back.
func (o *Organizer) Organize(c Container) (Report, error) {
	var r Report

	stacks, err := ReadContainer(c)
	if err != nil {
		return r, err
	}
	r.Before = len(stacks)

	if err := ClearContainer(c); err != nil {
		return r, err
	}

	sorter := defaultSorter
	if o != nil && o.Sorter != nil {
		sorter = o.Sorter
	}
	cons := sorter.Consolidate(stacks)
	r.Rejected = cons.Rejected

	p, err := WriteBack(c, cons.Merged)
	r.After = len(p.Placed)
	r.Overflow = p.Overflow
	r.Totals = Totals(p.Placed)
	if err != nil {
		return r, err
	}
	return r, nil
}
