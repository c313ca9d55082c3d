// ════════════════════════════════════════════════════════════════════════════════════════════════
// Worker pacing test suite
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Covers the two backoff phases, reset behaviour, the zero value, and thread locking.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package control

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// BACKOFF PHASES
// ============================================================================

func TestBackoff_SpinPhaseIsFast(t *testing.T) {
	b := NewBackoff(64, time.Hour)
	start := time.Now()
	for i := 0; i < 64; i++ {
		require.True(t, b.Spinning(), "idle %d should still spin", i)
		b.Idle()
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, b.Spinning())
	assert.Equal(t, uint64(64), b.Idles())
}

func TestBackoff_SleepPhase(t *testing.T) {
	b := NewBackoff(2, 5*time.Millisecond)
	b.Idle()
	b.Idle()

	start := time.Now()
	b.Idle()
	b.Idle()
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, uint64(4), b.Idles())
}

func TestBackoff_Reset(t *testing.T) {
	b := NewBackoff(1, time.Millisecond)
	b.Idle()
	require.False(t, b.Spinning())

	b.Reset()
	assert.True(t, b.Spinning())
	// Idle count survives a reset; it is a lifetime statistic.
	assert.Equal(t, uint64(1), b.Idles())
}

func TestBackoff_YieldWithoutSleep(t *testing.T) {
	b := NewBackoff(1, 0)
	for i := 0; i < 100; i++ {
		b.Idle()
	}
	assert.Equal(t, uint64(100), b.Idles())
}

func TestBackoff_ZeroValue(t *testing.T) {
	var b Backoff
	for i := 0; i < 10; i++ {
		assert.True(t, b.Spinning())
		b.Idle()
	}
}

// ============================================================================
// THREAD PLACEMENT
// ============================================================================

func TestLock_Unpinned(t *testing.T) {
	unlock, err := Lock(0, false)
	require.NoError(t, err)
	unlock()
}

func TestLock_Pinned(t *testing.T) {
	done := make(chan error, 1)
	go func() {
		unlock, err := Lock(runtime.NumCPU()+1, true)
		defer unlock()
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			// Restricted cpusets refuse cores outside the container's mask.
			t.Skipf("affinity not permitted here: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pinning did not return")
	}
}

func BenchmarkBackoff_Spin(b *testing.B) {
	bo := NewBackoff(1<<30, 0)
	for i := 0; i < b.N; i++ {
		bo.Idle()
	}
}
