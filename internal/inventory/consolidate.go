package inventory

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Consolidation is the outcome of merging a set of stacks.
// Rejected holds entries that carried no type id; their amounts are not part of Merged.
type Consolidation struct {
	Merged   []*Stack
	Rejected []*Stack
}

// Sorter orders stacks by type id using locale-aware collation.
type Sorter struct {
	mu  sync.Mutex
	col *collate.Collator
}

func NewSorter(locale string) *Sorter {
	tag := language.English
	if locale != "" {
		if t, err := language.Parse(locale); err == nil {
			tag = t
		}
	}
	return &Sorter{col: collate.New(tag)}
}

func (s *Sorter) Compare(a, b string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.col.CompareString(a, b)
}

// Sort is stable: stacks sharing a type id keep their relative order.
func (s *Sorter) Sort(stacks []*Stack) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(stacks, func(i, j int) bool {
		return s.col.CompareString(stacks[i].TypeID, stacks[j].TypeID) < 0
	})
}

var defaultSorter = NewSorter("")

// Consolidate merges stacks with the default (English) collation.
func Consolidate(entries []*Stack) Consolidation {
	return defaultSorter.Consolidate(entries)
}

// Consolidate groups entries by type id, packs each group into as few stacks as the
// capacity allows and returns them sorted by type id. Inputs are not mutated.
//
// Packing looks for the first stack in the whole output with remaining space, so the
// result depends on input order when several partial stacks of one type exist.
func (s *Sorter) Consolidate(entries []*Stack) Consolidation {
	var res Consolidation

	var order []string
	groups := map[string][]*Stack{}
	for _, e := range entries {
		if e == nil {
			continue
		}
		if e.TypeID == "" {
			res.Rejected = append(res.Rejected, e.Clone())
			continue
		}
		if _, ok := groups[e.TypeID]; !ok {
			order = append(order, e.TypeID)
		}
		groups[e.TypeID] = append(groups[e.TypeID], e)
	}

	out := make([]*Stack, 0, len(entries))
	for _, typeID := range order {
		for _, e := range groups[typeID] {
			dst := firstWithSpace(out, typeID)
			if dst == nil {
				out = append(out, e.Clone())
				continue
			}
			moved := min(dst.Space(), e.Amount)
			dst.Amount += moved
			if left := e.Amount - moved; left > 0 {
				out = append(out, &Stack{TypeID: e.TypeID, Amount: left, MaxAmount: e.MaxAmount})
			}
		}
	}

	s.Sort(out)
	res.Merged = out
	return res
}

func firstWithSpace(out []*Stack, typeID string) *Stack {
	for _, st := range out {
		if st.TypeID == typeID && st.Amount < st.MaxAmount {
			return st
		}
	}
	return nil
}
