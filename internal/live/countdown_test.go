package live_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickstudio/backend/internal/live"
)

func TestCountdownDerivesFromSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := live.NewCountdown(clock, time.Second, nil)
	defer cd.Stop()

	// Snapshot taken 30s ago with 120s remaining lands on 90.
	cd.Set(120, true, clock.Now().Add(-30*time.Second).UnixMilli())
	assert.Equal(t, 90, cd.Remaining())

	clock.Advance(60 * time.Second)
	assert.Equal(t, 30, cd.Remaining())
}

func TestCountdownClampsToZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := live.NewCountdown(clock, time.Second, nil)
	defer cd.Stop()

	// Snapshot arrived long after the timer ran out.
	cd.Set(120, true, clock.Now().Add(-130*time.Second).UnixMilli())
	assert.Equal(t, 0, cd.Remaining())

	clock.Advance(time.Hour)
	assert.Equal(t, 0, cd.Remaining())
}

func TestCountdownNeverExceedsSnapshotValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := live.NewCountdown(clock, time.Second, nil)
	defer cd.Stop()

	// A lastTickAt in the future (writer clock ahead) must not inflate the value.
	cd.Set(60, true, clock.Now().Add(10*time.Second).UnixMilli())
	assert.LessOrEqual(t, cd.Remaining(), 60)
	assert.GreaterOrEqual(t, cd.Remaining(), 0)
}

func TestCountdownPausedHoldsValue(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := live.NewCountdown(clock, time.Second, nil)
	defer cd.Stop()

	cd.Set(45, false, 0)
	clock.Advance(time.Minute)
	assert.Equal(t, 45, cd.Remaining())
}

func TestCountdownNewSnapshotResetsBase(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := live.NewCountdown(clock, time.Second, nil)
	defer cd.Stop()

	cd.Set(120, true, clock.Now().UnixMilli())
	clock.Advance(40 * time.Second)
	require.Equal(t, 80, cd.Remaining())

	// Writer asserts a new value; local extrapolation is discarded.
	cd.Set(300, true, clock.Now().UnixMilli())
	assert.Equal(t, 300, cd.Remaining())
}

func TestCountdownTickLoopStopsAtZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var mu sync.Mutex
	var ticks []int
	cd := live.NewCountdown(clock, 500*time.Millisecond, func(remaining int) {
		mu.Lock()
		ticks = append(ticks, remaining)
		mu.Unlock()
	})
	defer cd.Stop()

	cd.Set(1, true, clock.Now().UnixMilli())
	clock.BlockUntil(1)
	clock.Advance(500 * time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ticks) >= 1
	}, time.Second, 5*time.Millisecond)

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ticks) >= 2 && ticks[len(ticks)-1] == 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, cd.Remaining())
}

func TestCountdownStopIsIdempotent(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := live.NewCountdown(clock, time.Second, func(int) {})

	cd.Set(60, true, clock.Now().UnixMilli())
	cd.Stop()
	cd.Stop()

	// The value freezes; nothing keeps counting after teardown.
	clock.Advance(time.Minute)
	assert.Equal(t, 60, cd.Remaining())
}
