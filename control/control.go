// control.go - Idle backoff and thread placement for spinning workers
// ============================================================================
// WORKER PACING
// ============================================================================
//
// Rendezvous workers never block on a lock. When a worker finds nobody to
// meet it idles through Backoff, which escalates in two phases:
//
//   • Spin phase: up to SpinBudget short spin waits (PAUSE-style hints)
//   • Sleep phase: a fixed Sleep per idle (or a scheduler yield when Sleep is 0)
//
// Any successful step calls Reset, dropping the worker back into the spin
// phase. The backoff has no correctness role; it only bounds CPU burn while
// the queue is empty.
//
// Threading model:
//   • One Backoff per worker, never shared
//   • Pin binds the calling, already locked OS thread to one core

package control

import (
	"runtime"
	"time"

	"code.hybscloud.com/spin"
)

// ============================================================================
// BACKOFF
// ============================================================================

// Backoff is a per-worker idle strategy. The zero value spins forever with
// no sleep phase; use NewBackoff for a bounded one.
type Backoff struct {
	SpinBudget int           // spin waits before the sleep phase
	Sleep      time.Duration // pause per idle once spinning is exhausted

	sw    spin.Wait
	miss  int
	idles uint64
}

// NewBackoff returns a Backoff with the given budget and sleep.
func NewBackoff(spinBudget int, sleep time.Duration) Backoff {
	return Backoff{SpinBudget: spinBudget, Sleep: sleep}
}

// Idle waits once. Call it after an attempt that found nothing to do.
func (b *Backoff) Idle() {
	b.idles++
	if b.Spinning() {
		if b.miss < b.SpinBudget {
			b.miss++
		}
		b.sw.Once()
		return
	}
	if b.Sleep > 0 {
		time.Sleep(b.Sleep)
		return
	}
	runtime.Gosched()
}

// Reset returns the backoff to the spin phase after useful work.
func (b *Backoff) Reset() {
	b.miss = 0
	b.sw.Reset()
}

// Idles returns how many times Idle has been called.
func (b *Backoff) Idles() uint64 {
	return b.idles
}

// Spinning reports whether the next Idle will still be a spin wait.
func (b *Backoff) Spinning() bool {
	return b.miss < b.SpinBudget || (b.SpinBudget <= 0 && b.Sleep == 0)
}

// ============================================================================
// THREAD PLACEMENT
// ============================================================================

// Lock wires the calling goroutine to its OS thread and, when pin is set,
// binds that thread to core (modulo the CPU count). The returned func undoes
// the lock and must run on the same goroutine.
func Lock(core int, pin bool) (unlock func(), err error) {
	runtime.LockOSThread()
	if pin {
		err = setAffinity(core % runtime.NumCPU())
	}
	return runtime.UnlockOSThread, err
}
