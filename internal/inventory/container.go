package inventory

import "fmt"

// Container is a fixed-size sequence of optional stack slots.
type Container interface {
	Size() int
	Item(slot int) (*Stack, error)
	SetItem(slot int, s *Stack) error
}

// Placement reports what WriteBack put into the container and what did not fit.
type Placement struct {
	Placed   []*Stack
	Overflow []*Stack
}

// ReadContainer returns the non-empty slots in slot order.
func ReadContainer(c Container) ([]*Stack, error) {
	n := c.Size()
	out := make([]*Stack, 0, n)
	for i := 0; i < n; i++ {
		s, err := c.Item(i)
		if err != nil {
			return nil, fmt.Errorf("read slot %d: %w", i, err)
		}
		if s == nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func ClearContainer(c Container) error {
	n := c.Size()
	for i := 0; i < n; i++ {
		if err := c.SetItem(i, nil); err != nil {
			return fmt.Errorf("clear slot %d: %w", i, err)
		}
	}
	return nil
}

// WriteBack puts entries[i] into slot i. Entries past the container size are returned
// as overflow and are not written anywhere.
func WriteBack(c Container, entries []*Stack) (Placement, error) {
	var p Placement
	n := c.Size()
	for i, s := range entries {
		if i >= n {
			p.Overflow = append(p.Overflow, entries[i:]...)
			break
		}
		if err := c.SetItem(i, s); err != nil {
			return p, fmt.Errorf("write slot %d: %w", i, err)
		}
		p.Placed = append(p.Placed, s)
	}
	return p, nil
}
