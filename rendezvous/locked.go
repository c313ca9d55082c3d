package rendezvous

import (
	"sync"

	"chameneos/actor"
	"chameneos/color"
	"chameneos/control"
	"chameneos/packed"
	"chameneos/ring"
)

// mall is the mutex/condvar meeting place. At most one actor waits in it;
// the next arrival completes the meeting for both and wakes the waiter.
type mall struct {
	mu   sync.Mutex
	cond *sync.Cond

	waiting packed.ID
	gen     uint64
	held    uint64
	limit   uint64
	closed  bool
	actors  *actor.Table
}

func newMall(actors *actor.Table, limit uint64) *mall {
	m := &mall{actors: actors, limit: limit, closed: actors.Len() < 2}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// visit brings id into the mall. It returns false once the budget is spent.
func (m *mall) visit(id packed.ID, st *WorkerStats, tap *ring.Ring) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	if m.waiting == packed.Null {
		m.waiting = id
		gen := m.gen
		for m.gen == gen && !m.closed {
			st.Backoffs++
			m.cond.Wait()
		}
		return m.gen != gen
	}

	if m.held >= m.limit {
		m.closed = true
		m.cond.Broadcast()
		return false
	}
	m.held++

	other := m.waiting
	m.waiting = packed.Null
	a, b := m.actors.Get(id), m.actors.Get(other)
	c := color.Complement(a.Color(), b.Color())
	same := a.Name() == b.Name()
	a.Meet(same, c)
	b.Meet(same, c)
	st.Meetings++
	if tap != nil {
		tap.Push(ring.Event{Self: id, Partner: other, Color: c})
	}

	m.gen++
	m.cond.Broadcast()
	return true
}

func (m *mall) meetings() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// runLocked runs one goroutine per actor against a shared mall.
func runLocked(l Launcher, m *mall, stats []WorkerStats, tp *tap, pin bool) error {
	for i := range stats {
		l.Go(func() error {
			unlock, err := control.Lock(i, pin)
			defer unlock()
			stats[i] = WorkerStats{Worker: i, Pinned: pin && err == nil}
			id := packed.ID(i + 1)
			for m.visit(id, &stats[i], tp.ring(i)) {
			}
			return nil
		})
	}
	return l.Wait()
}
