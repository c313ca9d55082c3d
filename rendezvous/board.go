// ════════════════════════════════════════════════════════════════════════════════════════════════
// Shared Board
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Transactional update protocol over the packed queue word
//
// Description:
//   The board owns the only lock-governing state of a lock-free run: one packed word and the
//   meeting budget. Workers run optimistic transactions against the word:
//
//     begin   acquire-load a snapshot, refuse if it is the stop sentinel
//     (build) compute the successor word privately from the snapshot
//     commit  acq-rel compare-and-swap snapshot -> successor, retry from begin on loss
//
//   A lost commit has no side effects, so retrying is always safe. stop stores the sentinel
//   with release ordering; every later begin observes it and every in-flight commit loses.
//
// Budget:
//   claim moves the budget counter forward by one only while it is below the limit, so the
//   counter never passes the limit and each successful claim pays for exactly one meeting.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package rendezvous

import (
	"fmt"

	"code.hybscloud.com/atomix"

	"chameneos/packed"
)

type board struct {
	_    [64]byte
	word atomix.Uint64

	_       [56]byte
	claimed atomix.Uint64

	_      [56]byte
	limit  uint64
	actors int
	checks bool
}

func newBoard(actors int, limit uint64, checks bool) *board {
	b := &board{limit: limit, actors: actors, checks: checks}
	seed := packed.Empty
	if actors < 2 {
		// Nobody can ever be paired; every worker exits on its first begin.
		seed = packed.Stopped
	}
	b.word.StoreRelease(uint64(seed))
	return b
}

// begin snapshots the word. ok is false once the run is stopped.
//
//go:nosplit
//go:inline
func (b *board) begin() (w packed.Word, ok bool) {
	w = packed.Word(b.word.LoadAcquire())
	return w, !w.IsStopped()
}

// commit publishes next if the word still equals prev.
func (b *board) commit(prev, next packed.Word) bool {
	if b.checks {
		if err := packed.Validate(next, b.actors); err != nil {
			panic(fmt.Errorf("commit %v -> %v: %w", prev, next, err))
		}
	}
	return b.word.CompareAndSwapAcqRel(uint64(prev), uint64(next))
}

// stop stores the sentinel. Safe to call any number of times from any worker.
func (b *board) stop() {
	b.word.StoreRelease(uint64(packed.Stopped))
}

// stopped reports whether the sentinel is in place.
func (b *board) stopped() bool {
	return packed.Word(b.word.LoadAcquire()).IsStopped()
}

// claim takes one unit of the meeting budget. false means the budget is spent.
func (b *board) claim() bool {
	for {
		c := b.claimed.LoadAcquire()
		if c >= b.limit {
			return false
		}
		if b.claimed.CompareAndSwapAcqRel(c, c+1) {
			return true
		}
	}
}

// spent returns how many budget units have been claimed.
func (b *board) spent() uint64 {
	return b.claimed.LoadAcquire()
}
