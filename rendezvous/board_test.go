package rendezvous

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chameneos/actor"
	"chameneos/color"
	"chameneos/control"
	"chameneos/packed"
)

// ============================================================================
// BOARD TRANSACTIONS
// ============================================================================

func TestBoard_SeedWord(t *testing.T) {
	w, ok := newBoard(3, 10, false).begin()
	require.True(t, ok)
	assert.Equal(t, packed.Empty, w)

	_, ok = newBoard(1, 10, false).begin()
	assert.False(t, ok, "a single actor run starts stopped")
}

func TestBoard_CommitRejectsStaleSnapshot(t *testing.T) {
	b := newBoard(3, 10, false)
	w, _ := b.begin()
	require.True(t, b.commit(w, w.WithBroker(1)))
	assert.False(t, b.commit(w, w.WithBroker(2)), "second commit from the same snapshot must lose")

	now, ok := b.begin()
	require.True(t, ok)
	assert.Equal(t, packed.ID(1), now.Broker())
}

func TestBoard_StopIsIdempotent(t *testing.T) {
	b := newBoard(3, 10, false)
	w, _ := b.begin()
	b.stop()
	b.stop()
	assert.True(t, b.stopped())
	_, ok := b.begin()
	assert.False(t, ok)
	assert.False(t, b.commit(w, w.WithBroker(1)), "commits lose against the sentinel")
	assert.True(t, b.stopped())
}

func TestBoard_ChecksPanicOnCorruptCommit(t *testing.T) {
	b := newBoard(3, 10, true)
	w, _ := b.begin()
	assert.Panics(t, func() { b.commit(w, w.WithBroker(9)) })
	assert.NotPanics(t, func() { b.commit(w, w.WithBroker(3)) })
}

func TestBoard_ClaimNeverPassesLimit(t *testing.T) {
	const limit, goroutines = 10000, 8
	b := newBoard(3, limit, false)

	var wg sync.WaitGroup
	won := make([]int, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for b.claim() {
				won[g]++
			}
		}(g)
	}
	wg.Wait()

	total := 0
	for _, n := range won {
		total += n
	}
	assert.Equal(t, limit, total)
	assert.Equal(t, uint64(limit), b.spent())
	assert.False(t, b.claim())
}

// ============================================================================
// WORKER INVARIANTS
// ============================================================================

func TestWorker_CorruptBrokerSurfacesInvariant(t *testing.T) {
	b := newBoard(3, 10, false)
	w, _ := b.begin()
	// Broker 9 names an actor outside a three actor run.
	require.True(t, b.commit(w, w.WithBroker(9)))

	wk := &worker{
		index:   0,
		seed:    1,
		board:   b,
		actors:  actor.NewTable([]color.Color{color.Blue, color.Red, color.Yellow}),
		backoff: control.NewBackoff(1, 0),
	}
	err := wk.run()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvariant)
	assert.True(t, b.stopped(), "a failing worker stops the run for everyone")
}

func TestWorker_StopsOnSpentBudget(t *testing.T) {
	b := newBoard(2, 1, false)
	table := actor.NewTable([]color.Color{color.Blue, color.Red})
	w, _ := b.begin()
	require.True(t, b.commit(w, w.WithBroker(2)))

	wk := &worker{seed: 1, board: b, actors: table, backoff: control.NewBackoff(1, 0)}
	require.NoError(t, wk.run())

	assert.True(t, b.stopped())
	assert.Equal(t, uint64(1), wk.stats.Meetings)
	counts := table.Counts()
	assert.Equal(t, uint64(1), counts[0].Meetings)
	assert.Equal(t, uint64(1), counts[1].Meetings)
	assert.Equal(t, color.Yellow, table.Get(1).Color())
	assert.Equal(t, color.Yellow, table.Get(2).Color())
}
