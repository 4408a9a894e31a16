package emuloop

import "github.com/valerio/go-emuloop/emuloop/timing"

// Stats is a point-in-time view of the scheduler for status displays.
type Stats struct {
	State        State               `json:"state"`
	Session      string              `json:"session,omitempty"`
	FPS          int                 `json:"fps,omitempty"`
	Pacing       timing.PacingConfig `json:"pacing"`
	SoundEnabled bool                `json:"sound_enabled"`
	Frames       uint64              `json:"frames"`
	Skipped      uint64              `json:"skipped"`
	Presented    uint64              `json:"presented"`
	PresentedFPS float64             `json:"presented_fps"`
	SimulatedFPS float64             `json:"simulated_fps"`
}

// Stats never blocks on the control side and may be called from any
// goroutine.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		State:        s.State(),
		Pacing:       s.PacingConfig(),
		SoundEnabled: s.soundEnabled.Load(),
		Frames:       s.frames.Load(),
		Skipped:      s.skipped.Load(),
		Presented:    s.presented.Load(),
	}
	if session := s.session.Load(); session != nil {
		st.Session = session.Name
		st.FPS = session.FPS
	}
	st.PresentedFPS, st.SimulatedFPS = s.meter.Rates()
	return st
}
