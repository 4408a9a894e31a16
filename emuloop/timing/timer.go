package timing

import "time"

// Timer is a monotonic tick source measured from a fixed start epoch.
type Timer struct {
	clock Clock
	epoch time.Time
}

func NewTimer(clock Clock) *Timer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Timer{clock: clock, epoch: clock.Now()}
}

// Ticks returns the time elapsed since the timer was created.
func (t *Timer) Ticks() time.Duration {
	return t.clock.Now().Sub(t.epoch)
}
