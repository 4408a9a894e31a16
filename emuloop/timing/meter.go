package timing

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Meter measures the achieved simulation and presentation rates. Frame is
// called by the frame loop; Rates may be called from any goroutine.
type Meter struct {
	clock  Clock
	logger *slog.Logger

	// measurement window, owned by the frame loop
	windowStart time.Time
	simulated   int
	presented   int

	// last completed measurement, stored as float64
	actualSimulated atomic.Value
	actualPresented atomic.Value
}

func NewMeter(clock Clock, logger *slog.Logger) *Meter {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Meter{clock: clock, logger: logger}
	m.actualSimulated.Store(float64(0))
	m.actualPresented.Store(float64(0))
	m.windowStart = clock.Now()
	return m
}

// Reset restarts the measurement window, e.g. after a pause.
func (m *Meter) Reset() {
	m.windowStart = m.clock.Now()
	m.simulated = 0
	m.presented = 0
}

// Frame records one simulated frame and, once a second has passed, publishes
// the rates measured over the window.
func (m *Meter) Frame(presented bool) {
	m.simulated++
	if presented {
		m.presented++
	}

	now := m.clock.Now()
	elapsed := now.Sub(m.windowStart)
	if elapsed < time.Second {
		return
	}

	sim := float64(m.simulated) / elapsed.Seconds()
	pres := float64(m.presented) / elapsed.Seconds()
	m.actualSimulated.Store(sim)
	m.actualPresented.Store(pres)
	m.logger.Debug("Frame rate measured", "presented", int(pres), "simulated", int(sim))

	m.windowStart = now
	m.simulated = 0
	m.presented = 0
}

// Rates returns the last measured presented and simulated frames per second.
func (m *Meter) Rates() (presented, simulated float64) {
	return m.actualPresented.Load().(float64), m.actualSimulated.Load().(float64)
}
