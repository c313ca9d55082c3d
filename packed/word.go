// ════════════════════════════════════════════════════════════════════════════════════════════════
// Packed Queue Word
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Shared rendezvous state encoding
//
// Description:
//   One 64-bit integer carries the whole lock-governing state of a run: the broker slot and a
//   front-packed FIFO of idle actor ids. Every shift and mask touching that integer lives in this
//   file so the encoding invariants are enforced in one place.
//
// Layout (LSB first):
//
//	bits  0..3   broker id (0 = no broker)
//	bits  4..7   queue slot 0 (front)
//	bits  8..11  queue slot 1
//	...
//	bits 60..63  queue slot 14 (back)
//
// Invariants of a valid word for a run of n actors:
//   - every id is in [0, n]
//   - queue slots are front-packed: a zero slot is followed only by zero slots
//   - no id appears twice (broker included)
//
// Stopped (all bits set) spells broker 15 plus fifteen copies of id 15, which breaks the
// uniqueness rule, so the sentinel can never collide with a live queue.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package packed

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"chameneos/constants"
)

// ID names one actor inside the word. 0 is the null id.
type ID uint8

// Null is the "no actor" id.
const Null ID = 0

// Word is the packed broker + queue state.
type Word uint64

const (
	slotBits  = constants.SlotBits
	slotMask  = Word(constants.SlotMask)
	maxQueued = constants.QueueSlots

	// Empty is a word with no broker and an empty queue.
	Empty Word = 0

	// Stopped is the terminal sentinel: no further meetings are permitted.
	Stopped Word = ^Word(0)
)

var (
	// ErrCorrupt marks a word or id that breaks the encoding invariants.
	ErrCorrupt = errors.New("packed: corrupt queue word")

	// ErrFull is returned when a Put would overflow the queue slots.
	ErrFull = errors.New("packed: queue full")
)

// Valid reports whether id can be stored in a slot.
func (id ID) Valid() bool {
	return id != Null && id <= constants.MaxActors
}

// ───────────────────────────── Broker field ─────────────────────────────

// IsStopped reports whether w is the stop sentinel.
func (w Word) IsStopped() bool {
	return w == Stopped
}

// Broker returns the parked broker id, or Null.
func (w Word) Broker() ID {
	return ID(w & slotMask)
}

// WithBroker returns w with its broker field replaced.
func (w Word) WithBroker(id ID) Word {
	return w&^slotMask | Word(id)&slotMask
}

// ───────────────────────────── Queue field ──────────────────────────────

// Len returns the number of queued ids. Because the queue is front-packed the
// count is the index of the highest non-empty slot plus one.
func (w Word) Len() int {
	q := uint64(w >> slotBits)
	return (bits.Len64(q) + slotBits - 1) / slotBits
}

// Front returns the id at the head of the queue without removing it.
func (w Word) Front() ID {
	return ID((w >> slotBits) & slotMask)
}

// Take pops the front id. It returns Null and w unchanged when the queue is empty.
func (w Word) Take() (ID, Word) {
	id := w.Front()
	if id == Null {
		return Null, w
	}
	rest := (w >> (2 * slotBits)) << slotBits
	return id, rest | w&slotMask
}

// Put appends ids to the back of the queue, in order.
func (w Word) Put(ids ...ID) (Word, error) {
	n := w.Len()
	for _, id := range ids {
		if !id.Valid() {
			return w, fmt.Errorf("%w: id %d", ErrCorrupt, id)
		}
		if n >= maxQueued {
			return w, ErrFull
		}
		w |= Word(id) << (slotBits * uint(n+1))
		n++
	}
	return w, nil
}

// ──────────────────────────── Whole-word views ──────────────────────────

// View is a decoded, thread-private copy of a word.
type View struct {
	Stopped bool
	Broker  ID
	Queue   []ID
}

// Decode unpacks w without validating it.
func Decode(w Word) View {
	if w.IsStopped() {
		return View{Stopped: true}
	}
	v := View{Broker: w.Broker()}
	for q := w >> slotBits; q != 0; q >>= slotBits {
		v.Queue = append(v.Queue, ID(q&slotMask))
	}
	return v
}

// Encode packs a broker and queue into a word.
func Encode(broker ID, queue ...ID) (Word, error) {
	if broker != Null && !broker.Valid() {
		return Empty, fmt.Errorf("%w: broker %d", ErrCorrupt, broker)
	}
	return Empty.WithBroker(broker).Put(queue...)
}

// Validate checks w against the invariants for a run of n actors.
// Stopped is always valid.
func Validate(w Word, n int) error {
	if w.IsStopped() {
		return nil
	}
	var seen uint16
	check := func(id ID, where string) error {
		if int(id) > n {
			return fmt.Errorf("%w: %s id %d outside [0,%d]", ErrCorrupt, where, id, n)
		}
		if seen&(1<<id) != 0 {
			return fmt.Errorf("%w: %s id %d duplicated", ErrCorrupt, where, id)
		}
		seen |= 1 << id
		return nil
	}
	if b := w.Broker(); b != Null {
		if err := check(b, "broker"); err != nil {
			return err
		}
	}
	gap := false
	q := w >> slotBits
	for i := 0; i < maxQueued; i++ {
		id := ID(q & slotMask)
		q >>= slotBits
		if id == Null {
			gap = true
			continue
		}
		if gap {
			return fmt.Errorf("%w: slot %d follows an empty slot", ErrCorrupt, i)
		}
		if err := check(id, "slot "+strconv.Itoa(i)); err != nil {
			return err
		}
	}
	return nil
}

func (w Word) String() string {
	v := Decode(w)
	if v.Stopped {
		return "stopped"
	}
	var sb strings.Builder
	sb.WriteString("broker=")
	sb.WriteString(strconv.Itoa(int(v.Broker)))
	sb.WriteString(" queue=[")
	for i, id := range v.Queue {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(int(id)))
	}
	sb.WriteByte(']')
	return sb.String()
}
