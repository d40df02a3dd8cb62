package inventory

import (
	"errors"
	"fmt"
)

// Stack is a quantity of one item type, bounded by the type's stacking capacity.
type Stack struct {
	TypeID    string `json:"type_id"`
	Amount    int    `json:"amount"`
	MaxAmount int    `json:"max_amount"`
}

var (
	ErrSlotOutOfRange = errors.New("slot out of range")
	ErrUnknownItem    = errors.New("unknown item type")
	ErrBadAmount      = errors.New("bad stack amount")
)

// StackFactory builds stacks whose capacity is fixed per type id.
type StackFactory interface {
	NewStack(typeID string, amount int) (*Stack, error)
}

// MaxStacker reports the stacking capacity of an item type.
type MaxStacker interface {
	MaxStack(typeID string) (int, bool)
}

// CatalogFactory is a StackFactory backed by an item catalog.
type CatalogFactory struct {
	Items MaxStacker
}

func (f CatalogFactory) NewStack(typeID string, amount int) (*Stack, error) {
	if typeID == "" {
		return nil, fmt.Errorf("new stack: %w", ErrUnknownItem)
	}
	max, ok := f.Items.MaxStack(typeID)
	if !ok {
		return nil, fmt.Errorf("new stack %s: %w", typeID, ErrUnknownItem)
	}
	if amount <= 0 || amount > max {
		return nil, fmt.Errorf("new stack %s x%d (max %d): %w", typeID, amount, max, ErrBadAmount)
	}
	return &Stack{TypeID: typeID, Amount: amount, MaxAmount: max}, nil
}

func (s *Stack) Clone() *Stack {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Space is the number of units that still fit on top of the stack.
func (s *Stack) Space() int {
	if s.Amount >= s.MaxAmount {
		return 0
	}
	return s.MaxAmount - s.Amount
}

func (s *Stack) Valid() bool {
	return s != nil && s.TypeID != "" && s.Amount > 0 && s.Amount <= s.MaxAmount
}

func (s *Stack) String() string {
	if s == nil {
		return "<empty>"
	}
	return fmt.Sprintf("%s x%d/%d", s.TypeID, s.Amount, s.MaxAmount)
}

// Totals sums amounts per type id.
func Totals(stacks []*Stack) map[string]int {
	out := map[string]int{}
	for _, s := range stacks {
		if s == nil || s.TypeID == "" {
			continue
		}
		out[s.TypeID] += s.Amount
	}
	return out
}
