// ════════════════════════════════════════════════════════════════════════════════════════════════
// Worker Loop
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Token-passing meeting driver
//
// Description:
//   Each worker holds at most one actor id in hand. Every step is one board transaction:
//
//     hand empty, queue empty      idle through the backoff and retry
//     hand empty, queue non-empty  take the queue front into hand
//     hand full,  no broker        park the hand as broker, hand empties
//     hand full,  broker parked    take the broker as partner, claim budget, meet,
//                                  re-queue both ids in one commit, hand empties
//
//   An id is always in exactly one place (a hand, the broker slot, or the queue), so two
//   workers can never drive the same actor at once and counter updates never race.
//
// Termination:
//   The worker that fails to claim budget stores the stop sentinel. Any worker whose begin sees
//   the sentinel returns. A panic inside the loop stops the board and surfaces as ErrInvariant.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package rendezvous

import (
	"fmt"

	"chameneos/actor"
	"chameneos/color"
	"chameneos/control"
	"chameneos/packed"
	"chameneos/ring"
)

// WorkerStats describes what one worker did during a run.
type WorkerStats struct {
	Worker      int    `json:"worker"`
	Meetings    uint64 `json:"meetings"`
	CASFailures uint64 `json:"cas_failures"`
	Backoffs    uint64 `json:"backoffs"`
	Pinned      bool   `json:"pinned"`
}

type worker struct {
	index   int
	seed    packed.ID
	board   *board
	actors  *actor.Table
	tap     *ring.Ring
	backoff control.Backoff
	stats   WorkerStats
}

// run drives the loop until the board stops. Invariant panics are turned
// into ErrInvariant after the board is stopped for everyone else.
func (w *worker) run() (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.board.stop()
			err = fmt.Errorf("%w: worker %d: %v", ErrInvariant, w.index, r)
		}
		w.stats.Backoffs = w.backoff.Idles()
	}()

	hand := w.seed
	for {
		word, ok := w.board.begin()
		if !ok {
			return nil
		}

		if hand == packed.Null {
			id, next := word.Take()
			if id == packed.Null {
				w.backoff.Idle()
				continue
			}
			if !w.board.commit(word, next) {
				w.stats.CASFailures++
				continue
			}
			hand = id
			w.backoff.Reset()
			continue
		}

		partner := word.Broker()
		if partner == packed.Null {
			if !w.board.commit(word, word.WithBroker(hand)) {
				w.stats.CASFailures++
				continue
			}
			hand = packed.Null
			continue
		}

		if !w.board.commit(word, word.WithBroker(packed.Null)) {
			w.stats.CASFailures++
			continue
		}
		if !w.board.claim() {
			w.board.stop()
			return nil
		}
		w.meet(hand, partner)
		w.requeue(hand, partner)
		hand = packed.Null
		w.backoff.Reset()
	}
}

// meet applies one meeting to both actors. self is the id in hand, other
// the broker it took.
func (w *worker) meet(self, other packed.ID) {
	a, b := w.actors.Get(self), w.actors.Get(other)
	c := color.Complement(a.Color(), b.Color())
	if !c.Valid() {
		panic(fmt.Errorf("actors %d and %d carry invalid colors %v, %v", self, other, a.Color(), b.Color()))
	}
	same := a.Name() == b.Name()
	a.Meet(same, c)
	b.Meet(same, c)
	w.stats.Meetings++

	if w.tap != nil {
		w.tap.Push(ring.Event{Self: self, Partner: other, Color: c})
	}
}

// requeue appends both ids to the back of the queue in one commit. If the
// run stops first the ids are simply abandoned.
func (w *worker) requeue(a, b packed.ID) {
	for {
		word, ok := w.board.begin()
		if !ok {
			return
		}
		next, err := word.Put(a, b)
		if err != nil {
			panic(fmt.Errorf("requeue %d,%d onto %v: %w", a, b, word, err))
		}
		if w.board.commit(word, next) {
			return
		}
		w.stats.CASFailures++
	}
}
