package rendezvous

import (
	"code.hybscloud.com/atomix"

	"chameneos/ring"
)

// tap collects meeting events from every worker into a pair matrix.
// pairs[i][j] counts meetings between actor i+1 and actor j+1 and is symmetric.
type tap struct {
	rings []*ring.Ring
	stop  atomix.Uint64
	done  chan struct{}
	pairs [][]uint64
}

func startTap(workers, actors, capacity, core int, pin bool) *tap {
	t := &tap{
		rings: make([]*ring.Ring, workers),
		done:  make(chan struct{}),
		pairs: make([][]uint64, actors),
	}
	for i := range t.rings {
		t.rings[i] = ring.New(capacity)
	}
	for i := range t.pairs {
		t.pairs[i] = make([]uint64, actors)
	}
	ring.Drain(core, pin, t.rings, &t.stop, t.record, t.done)
	return t
}

func (t *tap) record(ev ring.Event) {
	a, b := int(ev.Self)-1, int(ev.Partner)-1
	if a < 0 || b < 0 || a >= len(t.pairs) || b >= len(t.pairs) {
		return
	}
	t.pairs[a][b]++
	t.pairs[b][a]++
}

// ring returns the producer ring for worker i, or nil when t is nil.
func (t *tap) ring(i int) *ring.Ring {
	if t == nil {
		return nil
	}
	return t.rings[i]
}

// finish stops the drain after every producer has exited and returns the
// matrix and the total drop count.
func (t *tap) finish() ([][]uint64, uint64) {
	if t == nil {
		return nil, 0
	}
	t.stop.StoreRelease(1)
	<-t.done
	var dropped uint64
	for _, r := range t.rings {
		dropped += r.Dropped()
	}
	return t.pairs, dropped
}
