// ============================================================================
// MEETING EVENT RING VALIDATION
// ============================================================================
//
// Test categories:
//   - Constructor validation: power-of-2 sizing
//   - Basic operations: Push/Pop ordering and payload integrity
//   - Capacity: full ring drops and counts
//   - Drain: cross-goroutine delivery and cooperative shutdown

package ring

import (
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chameneos/color"
	"chameneos/packed"
)

func event(i int) Event {
	return Event{Self: packed.ID(i%15 + 1), Partner: packed.ID((i+1)%15 + 1), Color: color.All[i%3]}
}

// ============================================================================
// CONSTRUCTOR
// ============================================================================

func TestNew_RejectsBadSizes(t *testing.T) {
	for _, size := range []int{0, 1, -4, 3, 6, 100} {
		assert.Panics(t, func() { New(size) }, "size %d", size)
	}
	assert.Equal(t, 8, New(8).Cap())
}

// ============================================================================
// BASIC OPERATIONS
// ============================================================================

func TestRing_FIFO(t *testing.T) {
	r := New(8)
	for i := 0; i < 5; i++ {
		require.True(t, r.Push(event(i)))
	}
	for i := 0; i < 5; i++ {
		ev, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, event(i), ev)
	}
	_, ok := r.Pop()
	assert.False(t, ok)
}

func TestRing_Wraparound(t *testing.T) {
	r := New(4)
	for i := 0; i < 100; i++ {
		require.True(t, r.Push(event(i)))
		ev, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, event(i), ev)
	}
	assert.Zero(t, r.Dropped())
}

func TestRing_FullDrops(t *testing.T) {
	r := New(4)
	for i := 0; i < 4; i++ {
		require.True(t, r.Push(event(i)))
	}
	assert.False(t, r.Push(event(4)))
	assert.False(t, r.Push(event(5)))
	assert.Equal(t, uint64(2), r.Dropped())

	_, ok := r.Pop()
	require.True(t, ok)
	assert.True(t, r.Push(event(6)))
}

func TestRing_SmallestRingCountsDrops(t *testing.T) {
	r := New(MinSize)
	require.True(t, r.Push(event(0)))
	require.True(t, r.Push(event(1)))
	assert.False(t, r.Push(event(2)), "third push must not overwrite an unread event")
	assert.Equal(t, uint64(1), r.Dropped())

	for i := 0; i < 2; i++ {
		ev, ok := r.Pop()
		require.True(t, ok)
		assert.Equal(t, event(i), ev)
	}
	_, ok := r.Pop()
	assert.False(t, ok)
}

// ============================================================================
// DRAIN
// ============================================================================

func TestDrain_DeliversEverything(t *testing.T) {
	const producers, per = 4, 20000
	rings := make([]*Ring, producers)
	for i := range rings {
		rings[i] = New(1 << 10)
	}

	var stop atomix.Uint64
	done := make(chan struct{})
	got := make([]int, producers+1)
	Drain(0, false, rings, &stop, func(ev Event) {
		got[ev.Self]++
	}, done)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			ev := Event{Self: packed.ID(p + 1), Partner: 1, Color: color.Red}
			for i := 0; i < per; i++ {
				for !rings[p].Push(ev) {
					time.Sleep(time.Microsecond)
				}
			}
		}(p)
	}
	wg.Wait()
	stop.StoreRelease(1)

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("drain did not stop")
	}

	total := 0
	for p := 1; p <= producers; p++ {
		assert.Equal(t, per, got[p], "producer %d", p)
		total += got[p]
	}
	assert.Equal(t, producers*per, total)
}

func TestDrain_StopsWhenIdle(t *testing.T) {
	var stop atomix.Uint64
	done := make(chan struct{})
	Drain(0, false, []*Ring{New(2)}, &stop, func(Event) {}, done)
	stop.StoreRelease(1)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("idle drain did not stop")
	}
}

func BenchmarkRing_PushPop(b *testing.B) {
	r := New(1024)
	ev := event(1)
	for i := 0; i < b.N; i++ {
		r.Push(ev)
		r.Pop()
	}
}
