package assessment

import "testing"

func TestCountdown_StartResetsRemaining(t *testing.T) {
	c := NewCountdown(2 * 60)
	c.Start()
	if got := c.Remaining(); got != 120 {
		t.Fatalf("Remaining after Start = %d, want 120", got)
	}
	if c.State() != TimerRunning {
		t.Fatalf("state = %s, want running", c.State())
	}
}

func TestCountdown_ExpiresExactlyOnce(t *testing.T) {
	c := NewCountdown(120)
	fired := 0
	c.OnExpire(func() { fired++ })
	c.Start()

	for i := 0; i < 120; i++ {
		c.Tick()
	}
	if fired != 1 {
		t.Fatalf("expiry fired %d times, want 1", fired)
	}
	if c.State() != TimerExpired {
		t.Fatalf("state = %s, want expired", c.State())
	}

	// Further ticks are no-ops and the clock never goes below zero.
	c.Tick()
	c.Tick()
	if fired != 1 {
		t.Fatalf("expiry refired, total %d", fired)
	}
	if got := c.Remaining(); got != 0 {
		t.Fatalf("Remaining after expiry = %d, want 0", got)
	}
}

func TestCountdown_StopIsIdempotent(t *testing.T) {
	c := NewCountdown(60)
	c.Start()
	c.Stop()
	if c.State() != TimerStopped {
		t.Fatalf("state = %s, want stopped", c.State())
	}
	c.Stop()
	if c.State() != TimerStopped {
		t.Fatalf("second Stop changed state to %s", c.State())
	}
	if c.Tick() {
		t.Fatal("Tick returned true on a stopped countdown")
	}
}

func TestCountdown_RestartResetsFully(t *testing.T) {
	c := NewCountdown(60)
	c.Start()
	for i := 0; i < 10; i++ {
		c.Tick()
	}
	if got := c.Remaining(); got != 50 {
		t.Fatalf("Remaining = %d, want 50", got)
	}

	c.Start()
	if got := c.Remaining(); got != 60 {
		t.Fatalf("Remaining after restart = %d, want 60", got)
	}
}

func TestCountdown_StartAt(t *testing.T) {
	c := NewCountdown(600)

	c.StartAt(45)
	if got := c.Remaining(); got != 45 {
		t.Fatalf("Remaining = %d, want 45", got)
	}
	if got := c.Elapsed(); got != 555 {
		t.Fatalf("Elapsed = %d, want 555", got)
	}

	// Values above the duration clamp to a fresh start.
	c.StartAt(1000)
	if got := c.Remaining(); got != 600 {
		t.Fatalf("Remaining after clamp = %d, want 600", got)
	}
}

func TestCountdown_ElapsedFormula(t *testing.T) {
	c := NewCountdown(600)
	c.Start()
	for i := 0; i < 123; i++ {
		c.Tick()
	}
	if got := c.Elapsed(); got != 123 {
		t.Fatalf("Elapsed = %d, want 123", got)
	}
}

func TestClock(t *testing.T) {
	tests := []struct {
		total   int
		h, m, s int
	}{
		{0, 0, 0, 0},
		{59, 0, 0, 59},
		{3600, 1, 0, 0},
		{3725, 1, 2, 5},
		{-5, 0, 0, 0},
	}

	for _, tc := range tests {
		h, m, s := Clock(tc.total)
		if h != tc.h || m != tc.m || s != tc.s {
			t.Errorf("Clock(%d) = %d:%d:%d, want %d:%d:%d", tc.total, h, m, s, tc.h, tc.m, tc.s)
		}
	}
}
