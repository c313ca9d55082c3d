// -----------------------------------------------------------------------------
// drain.go - Tap consumer on a dedicated, optionally pinned OS thread
// -----------------------------------------------------------------------------
//
//  Drain ties one goroutine to an OS thread and polls every worker ring round
//  robin. While events keep arriving it spins; after DrainSpinBudget empty
//  sweeps it falls back to the shared control.Backoff sleep phase.
//
//  Shutdown is cooperative: the owner stores a non-zero value into stop once
//  all producers have exited, the drain empties what is left and returns.
// -----------------------------------------------------------------------------

package ring

import (
	"code.hybscloud.com/atomix"

	"chameneos/constants"
	"chameneos/control"
)

// Drain launches the consumer goroutine.
//
//	core    – CPU to pin to when pin is set
//	rings   – one ring per producer
//	stop    – set non-zero after every producer has finished pushing
//	handler – called for each event, on the drain goroutine only
//	done    – closed exactly once when the goroutine exits
func Drain(
	core int,
	pin bool,
	rings []*Ring,
	stop *atomix.Uint64,
	handler func(Event),
	done chan<- struct{},
) {
	go func() {
		unlock, _ := control.Lock(core, pin)
		defer func() {
			unlock()
			close(done)
		}()

		backoff := control.NewBackoff(constants.DrainSpinBudget, constants.IdleSleep)
		for {
			// Read stop before sweeping: a sweep that starts after the
			// producers finished sees all their events.
			stopping := stop.LoadAcquire() != 0
			if sweep(rings, handler) > 0 {
				backoff.Reset()
				continue
			}
			if stopping {
				return
			}
			backoff.Idle()
		}
	}()
}

func sweep(rings []*Ring, handler func(Event)) int {
	n := 0
	for _, r := range rings {
		for {
			ev, ok := r.Pop()
			if !ok {
				break
			}
			handler(ev)
			n++
		}
	}
	return n
}
