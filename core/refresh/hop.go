package refresh

import (
	"fmt"
	"sort"

	"github.com/mkv-git/openttd/core/model"
)

// Hop is a predicted leg between two orders while carrying a given cargo.
type Hop struct {
	From  int
	To    int
	Cargo model.CargoID
}

// Less orders hops by origin, destination then cargo.
func (h Hop) Less(o Hop) bool {
	if h.From != o.From {
		return h.From < o.From
	}
	if h.To != o.To {
		return h.To < o.To
	}
	return h.Cargo < o.Cargo
}

func (h Hop) String() string {
	return fmt.Sprintf("%d->%d/%s", h.From, h.To, h.Cargo)
}

// HopSet records the hops seen during one refresh. It is shared by every
// branch of the traversal and only ever grows.
type HopSet struct {
	seen map[Hop]struct{}
}

// NewHopSet returns an empty set.
func NewHopSet() *HopSet {
	return &HopSet{seen: make(map[Hop]struct{})}
}

func (s *HopSet) Contains(h Hop) bool {
	_, ok := s.seen[h]
	return ok
}

// Insert adds h and reports whether it was new.
func (s *HopSet) Insert(h Hop) bool {
	if _, ok := s.seen[h]; ok {
		return false
	}
	s.seen[h] = struct{}{}
	return true
}

func (s *HopSet) Len() int { return len(s.seen) }

// Sorted returns the hops in ascending order.
func (s *HopSet) Sorted() []Hop {
	out := make([]Hop, 0, len(s.seen))
	for h := range s.seen {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
