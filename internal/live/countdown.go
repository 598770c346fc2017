package live

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTickCadence is the countdown refresh cadence when none is configured.
const DefaultTickCadence = 250 * time.Millisecond

// Countdown derives a smoothly decreasing integer-seconds value from a single
// authoritative snapshot (remaining seconds, running flag, last tick
// timestamp), so displays do not depend on the writer pushing every second.
//
// While running, an internal tick loop at a bounded cadence invokes the onTick
// callback; the loop stops the instant the value reaches zero, on Stop, or
// when a new snapshot arrives with running=false. A new snapshot always resets
// the base deterministically: displayed time never free-runs from a value the
// writer did not assert.
type Countdown struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	cadence time.Duration
	onTick  func(remaining int)

	base    float64 // seconds remaining at setAt
	limit   int     // snapshot's remaining seconds; output never exceeds it
	running bool
	setAt   time.Time
	cancel  context.CancelFunc
}

// NewCountdown creates a countdown. onTick may be nil for pull-only use via
// Remaining. Cadence <= 0 falls back to DefaultTickCadence.
func NewCountdown(clock clockwork.Clock, cadence time.Duration, onTick func(remaining int)) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if cadence <= 0 {
		cadence = DefaultTickCadence
	}
	return &Countdown{clock: clock, cadence: cadence, onTick: onTick}
}

// Set resets the countdown from an authoritative snapshot. initialSeconds is
// the snapshot's remaining value, lastTickAt the epoch-millisecond instant it
// was accurate (0 when unknown). When running, elapsed time since lastTickAt
// is subtracted up front so late-arriving snapshots land on the right value.
func (c *Countdown) Set(initialSeconds int, running bool, lastTickAt int64) {
	c.mu.Lock()
	base := float64(initialSeconds)
	if running && lastTickAt > 0 {
		elapsed := float64(c.clock.Now().UnixMilli()-lastTickAt) / 1000
		if elapsed > 0 {
			base -= elapsed
		}
	}
	if base < 0 {
		base = 0
	}
	c.base = base
	c.limit = initialSeconds
	c.running = running && base > 0
	c.setAt = c.clock.Now()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.running && c.onTick != nil {
		ctx, cancel := context.WithCancel(context.Background())
		c.cancel = cancel
		go c.loop(ctx)
	}
	c.mu.Unlock()
}

// Remaining returns the current value: the ceiling of the extrapolated
// seconds, clamped into [0, snapshot remaining].
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remainingLocked()
}

// Stop tears down the tick loop. Safe to call repeatedly; must be called on
// teardown so no ticker outlives its owner.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.running = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
}

func (c *Countdown) remainingLocked() int {
	val := c.base
	if c.running {
		val -= c.clock.Since(c.setAt).Seconds()
	}
	r := int(math.Ceil(val))
	if r < 0 {
		r = 0
	}
	if c.limit >= 0 && r > c.limit {
		r = c.limit
	}
	return r
}

func (c *Countdown) loop(ctx context.Context) {
	ticker := c.clock.NewTicker(c.cadence)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.mu.Lock()
			r := c.remainingLocked()
			done := r <= 0
			if done {
				c.running = false
				if c.cancel != nil {
					c.cancel()
					c.cancel = nil
				}
			}
			onTick := c.onTick
			c.mu.Unlock()
			if onTick != nil {
				onTick(r)
			}
			if done {
				return
			}
		}
	}
}
