package player

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tickerTestInterval = 5 * time.Millisecond

// waitForTicks polls until the counter passed at least n ticks or the
// deadline expires.
func waitForTicks(t *testing.T, counter *int64, n int64) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt64(counter) >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected at least %d ticks, got %d", n, atomic.LoadInt64(counter))
}

func TestListenTickerTicksWhilePlaying(t *testing.T) {
	e := NewEngine(nil)
	var ticks int64
	var lastTrack, lastPlaylist int64
	ticker := NewListenTicker(e, func(trackID, playlistID int64) {
		atomic.StoreInt64(&lastTrack, trackID)
		atomic.StoreInt64(&lastPlaylist, playlistID)
		atomic.AddInt64(&ticks, 1)
	}, tickerTestInterval)
	defer ticker.Stop()

	e.StartPlayback([]int64{42}, 42, 7)
	ticker.Start()

	waitForTicks(t, &ticks, 3)
	assert.Equal(t, int64(42), atomic.LoadInt64(&lastTrack))
	assert.Equal(t, int64(7), atomic.LoadInt64(&lastPlaylist))
}

func TestListenTickerStopsOnPause(t *testing.T) {
	e := NewEngine(nil)
	var ticks int64
	ticker := NewListenTicker(e, func(trackID, playlistID int64) {
		atomic.AddInt64(&ticks, 1)
	}, tickerTestInterval)
	defer ticker.Stop()

	e.StartPlayback([]int64{42}, 42, 0)
	ticker.Start()
	waitForTicks(t, &ticks, 1)

	e.Pause()
	// Let in-flight tick goroutines drain, then the count must hold.
	time.Sleep(5 * tickerTestInterval)
	settled := atomic.LoadInt64(&ticks)
	time.Sleep(10 * tickerTestInterval)
	assert.Equal(t, settled, atomic.LoadInt64(&ticks))
}

func TestListenTickerResumesOnPlay(t *testing.T) {
	e := NewEngine(nil)
	var ticks int64
	ticker := NewListenTicker(e, func(trackID, playlistID int64) {
		atomic.AddInt64(&ticks, 1)
	}, tickerTestInterval)
	defer ticker.Stop()

	e.StartPlayback([]int64{42}, 42, 0)
	ticker.Start()
	waitForTicks(t, &ticks, 1)

	e.Pause()
	time.Sleep(5 * tickerTestInterval)
	settled := atomic.LoadInt64(&ticks)

	e.Play()
	waitForTicks(t, &ticks, settled+2)
}

func TestListenTickerDoesNotStartWhenIdle(t *testing.T) {
	e := NewEngine(nil)
	var ticks int64
	ticker := NewListenTicker(e, func(trackID, playlistID int64) {
		atomic.AddInt64(&ticks, 1)
	}, tickerTestInterval)
	defer ticker.Stop()

	ticker.Start()

	time.Sleep(10 * tickerTestInterval)
	assert.Equal(t, int64(0), atomic.LoadInt64(&ticks))
}

func TestListenTickerFollowsTrackChange(t *testing.T) {
	e := NewEngine(nil)
	var lastTrack int64
	var ticks int64
	ticker := NewListenTicker(e, func(trackID, playlistID int64) {
		atomic.StoreInt64(&lastTrack, trackID)
		atomic.AddInt64(&ticks, 1)
	}, tickerTestInterval)
	defer ticker.Stop()

	e.StartPlayback([]int64{1, 2}, 1, 0)
	ticker.Start()
	waitForTicks(t, &ticks, 1)

	e.Next()

	// After the switch every new tick reports the new track.
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&lastTrack) == 2
	}, time.Second, time.Millisecond)
}

func TestListenTickerSlowTickDoesNotBlockNextFiring(t *testing.T) {
	e := NewEngine(nil)
	var ticks int64
	ticker := NewListenTicker(e, func(trackID, playlistID int64) {
		atomic.AddInt64(&ticks, 1)
		time.Sleep(time.Second) // far slower than the interval
	}, tickerTestInterval)
	defer ticker.Stop()

	e.StartPlayback([]int64{42}, 42, 0)
	ticker.Start()

	// Each tick runs in its own goroutine, so the beat keeps going even
	// while earlier ticks are still sleeping.
	waitForTicks(t, &ticks, 3)
}

func TestListenTickerStop(t *testing.T) {
	e := NewEngine(nil)
	var ticks int64
	ticker := NewListenTicker(e, func(trackID, playlistID int64) {
		atomic.AddInt64(&ticks, 1)
	}, tickerTestInterval)

	e.StartPlayback([]int64{42}, 42, 0)
	ticker.Start()
	waitForTicks(t, &ticks, 1)

	ticker.Stop()
	time.Sleep(5 * tickerTestInterval)
	settled := atomic.LoadInt64(&ticks)
	time.Sleep(10 * tickerTestInterval)
	assert.Equal(t, settled, atomic.LoadInt64(&ticks))
}
