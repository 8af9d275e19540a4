package assessment

import (
	"context"
	"sync"
	"time"
)

// TimerState enumerates countdown states.
type TimerState string

const (
	TimerIdle    TimerState = "idle"
	TimerRunning TimerState = "running"
	TimerExpired TimerState = "expired"
	TimerStopped TimerState = "stopped"
)

// Countdown is a single countdown from a configured duration to zero.
// One tick source drives it; starting again fully resets the remaining time
// and invalidates any previous Run loop. The expiry callback fires exactly
// once, synchronously with the tick that reaches zero, and must not block.
type Countdown struct {
	mu        sync.Mutex
	duration  int // seconds
	remaining int
	state     TimerState
	gen       uint64 // bumped on Start/Stop so stale Run loops exit
	onExpire  func()
}

// NewCountdown creates an idle countdown of durationSeconds.
func NewCountdown(durationSeconds int) *Countdown {
	return &Countdown{
		duration:  durationSeconds,
		remaining: durationSeconds,
		state:     TimerIdle,
	}
}

// OnExpire registers the end-of-time callback. Set before Start.
func (c *Countdown) OnExpire(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpire = fn
}

// Start resets the remaining time to the full duration and transitions to
// Running. A previously started Run loop is invalidated.
func (c *Countdown) Start() {
	c.StartAt(-1)
}

// StartAt starts the countdown with remainingSeconds left, used when resuming
// an interrupted attempt. A negative value means the full duration.
func (c *Countdown) StartAt(remainingSeconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if remainingSeconds < 0 || remainingSeconds > c.duration {
		remainingSeconds = c.duration
	}
	c.remaining = remainingSeconds
	c.state = TimerRunning
	c.gen++
}

// Stop transitions Running → Stopped. Safe to call in any state; it has no
// effect once the countdown is already stopped or expired.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == TimerRunning {
		c.state = TimerStopped
		c.gen++
	}
}

// Tick advances the countdown by one second. At zero it transitions to
// Expired and fires the registered callback. Returns false once the
// countdown is no longer running.
func (c *Countdown) Tick() bool {
	c.mu.Lock()
	if c.state != TimerRunning {
		c.mu.Unlock()
		return false
	}

	c.remaining--
	if c.remaining > 0 {
		c.mu.Unlock()
		return true
	}

	c.remaining = 0
	c.state = TimerExpired
	fn := c.onExpire
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
	return false
}

// Run drives Tick from a 1-second ticker until the countdown stops, expires,
// is restarted, or ctx is cancelled. Call in a goroutine after Start.
func (c *Countdown) Run(ctx context.Context) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			stale := c.gen != gen
			c.mu.Unlock()
			if stale {
				return
			}
			if !c.Tick() {
				return
			}
		}
	}
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Elapsed returns duration − remaining. The same formula serves both manual
// submit and expiry paths.
func (c *Countdown) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration - c.remaining
}

// IsActive reports whether the countdown is running.
func (c *Countdown) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == TimerRunning
}

// State returns the current timer state.
func (c *Countdown) State() TimerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Clock splits a seconds value into hours, minutes and seconds for display.
func Clock(totalSeconds int) (hours, minutes, seconds int) {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return totalSeconds / 3600, (totalSeconds % 3600) / 60, totalSeconds % 60
}
