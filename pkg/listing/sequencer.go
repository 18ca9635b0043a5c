package listing

import (
	"sync/atomic"
)

// Sequencer hands out increasing request tickets so that only the response
// to the most recently issued request is applied.
type Sequencer struct {
	last atomic.Uint64
}

type Ticket struct {
	n   uint64
	seq *Sequencer
}

// Begin issues a new ticket, superseding every earlier one.
func (s *Sequencer) Begin() Ticket {
	return Ticket{n: s.last.Add(1), seq: s}
}

// IsLatest reports whether no ticket was issued after t.
func (t Ticket) IsLatest() bool {
	return t.seq != nil && t.seq.last.Load() == t.n
}
