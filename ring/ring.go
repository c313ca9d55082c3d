// ============================================================================
// MEETING EVENT RING
// ============================================================================
//
// Single-producer/single-consumer ring carrying meeting events from one
// rendezvous worker to the tap drain.
//
// Core capabilities:
//   - Lock-free SPSC operation, Push never blocks (full ring drops)
//   - Power-of-2 sizing with bit masking
//   - Producer and consumer cursors on separate cache lines
//
// Sequence semantics per slot:
//   - Producer may write slot i when seq == i
//   - Producer publishes with seq = i + 1 (release)
//   - Consumer reads when seq == i + 1 (acquire), then frees with seq = i + size
//
// Safety model:
//   - SPSC discipline required: one worker pushes, the drain pops
//   - Dropped is producer-owned; read it only after the producer exits

package ring

import (
	"code.hybscloud.com/atomix"

	"chameneos/color"
	"chameneos/packed"
)

// Event is one completed meeting as seen by the worker that drove it.
type Event struct {
	Self    packed.ID
	Partner packed.ID
	Color   color.Color
}

type slot struct {
	seq atomix.Uint64
	ev  Event
}

// MinSize is the smallest ring New accepts.
const MinSize = 2

// Ring is an SPSC queue of Events.
type Ring struct {
	_    [64]byte
	head uint64 // consumer cursor

	_    [56]byte
	tail uint64 // producer cursor

	_       [56]byte
	mask    uint64
	step    uint64
	dropped uint64
	buf     []slot
}

// New creates a ring of size slots. size must be a power of two, at least 2:
// with a single slot a freed sequence (h+size) equals a filled one (t+1).
func New(size int) *Ring {
	if size < MinSize || size&(size-1) != 0 {
		panic("ring: size must be >=2 and power of two")
	}
	r := &Ring{
		mask: uint64(size - 1),
		step: uint64(size),
		buf:  make([]slot, size),
	}
	for i := range r.buf {
		r.buf[i].seq.StoreRelaxed(uint64(i))
	}
	return r
}

// Push enqueues ev. It returns false and counts a drop when the ring is full.
func (r *Ring) Push(ev Event) bool {
	t := r.tail
	s := &r.buf[t&r.mask]
	if s.seq.LoadAcquire() != t {
		r.dropped++
		return false
	}
	s.ev = ev
	s.seq.StoreRelease(t + 1)
	r.tail = t + 1
	return true
}

// Pop dequeues the oldest event, if any.
func (r *Ring) Pop() (Event, bool) {
	h := r.head
	s := &r.buf[h&r.mask]
	if s.seq.LoadAcquire() != h+1 {
		return Event{}, false
	}
	ev := s.ev
	s.seq.StoreRelease(h + r.step)
	r.head = h + 1
	return ev, true
}

// Dropped returns how many pushes found the ring full.
func (r *Ring) Dropped() uint64 {
	return r.dropped
}

// Cap returns the ring size.
func (r *Ring) Cap() int {
	return int(r.step)
}
