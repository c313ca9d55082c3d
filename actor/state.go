// Package actor holds the per-creature state mutated by meetings.
//
// Every field a worker writes during a run is an atomic with explicit
// ordering. The two counter updates and the color store of one meeting are
// not a single transaction: observers see them monotonically, not together.
package actor

import (
	"fmt"

	"code.hybscloud.com/atomix"

	"chameneos/color"
	"chameneos/packed"
)

// State is one creature. name is fixed at construction.
type State struct {
	name  packed.ID
	color atomix.Uint64
	meets atomix.Uint64
	same  atomix.Uint64
	_     [40]byte // spread neighbouring actors across cache lines
}

// Counts is the post-run report of one actor.
type Counts struct {
	Meetings uint64 `json:"meetings"`
	Same     uint64 `json:"same"`
}

// Init names the actor and seeds its color. It must run before any worker
// can see the state.
func (s *State) Init(name packed.ID, c color.Color) {
	s.name = name
	s.color.StoreRelease(uint64(c))
}

// Name returns the immutable actor name.
func (s *State) Name() packed.ID {
	return s.name
}

// Color returns the actor's current color.
func (s *State) Color() color.Color {
	return color.Color(s.color.LoadAcquire())
}

// Meet records one meeting for this actor: the meeting counter always moves,
// the same-name counter only when the partner carried the same name, and the
// new color is published last.
func (s *State) Meet(same bool, c color.Color) {
	s.meets.Add(1)
	if same {
		s.same.Add(1)
	}
	s.color.StoreRelease(uint64(c))
}

// Counts reads both counters. Same is loaded first so that, even while
// meetings are still landing, the returned pair keeps Same <= Meetings.
func (s *State) Counts() Counts {
	same := s.same.LoadAcquire()
	return Counts{Meetings: s.meets.LoadAcquire(), Same: same}
}

// Table is the actor set of one run, indexed by packed.ID. Slot 0 is the
// null actor and is never touched.
type Table struct {
	states []State
}

// NewTable builds actors 1..len(colors) with their seed colors.
func NewTable(colors []color.Color) *Table {
	t := &Table{states: make([]State, len(colors)+1)}
	for i, c := range colors {
		t.states[i+1].Init(packed.ID(i+1), c)
	}
	return t
}

// Len returns the number of real actors.
func (t *Table) Len() int {
	return len(t.states) - 1
}

// Get returns the actor named id. It panics with packed.ErrCorrupt when id is
// outside the run, which only happens if the queue word was corrupted.
func (t *Table) Get(id packed.ID) *State {
	if id == packed.Null || int(id) >= len(t.states) {
		panic(corruptID(id))
	}
	return &t.states[id]
}

// Counts snapshots every actor in construction order.
func (t *Table) Counts() []Counts {
	ret := make([]Counts, t.Len())
	for i := range ret {
		ret[i] = t.states[i+1].Counts()
	}
	return ret
}

// Colors snapshots every actor's current color in construction order.
func (t *Table) Colors() []color.Color {
	ret := make([]color.Color, t.Len())
	for i := range ret {
		ret[i] = t.states[i+1].Color()
	}
	return ret
}

func corruptID(id packed.ID) error {
	return fmt.Errorf("%w: actor id %d", packed.ErrCorrupt, id)
}
