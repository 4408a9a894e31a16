package emuloop

import (
	"fmt"

	"github.com/valerio/go-emuloop/emuloop/audio"
	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/engine"
	"github.com/valerio/go-emuloop/emuloop/input"
	"github.com/valerio/go-emuloop/emuloop/video"
)

// LoadSession replaces the current session with the program at path and
// resumes if the host had asked to run. On failure the scheduler is left
// paused with no session.
func (s *Scheduler) LoadSession(path string) (*engine.Session, error) {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	s.unloadSession()
	s.requestPause()

	session, err := s.engine.LoadSession(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if session == nil || session.FPS <= 0 {
		s.engine.UnloadSession()
		return nil, fmt.Errorf("failed to load %s: engine reported an invalid frame rate", path)
	}

	s.audioReady = false
	if s.sink != nil {
		format := audio.Format{
			SampleRate: session.SoundRate,
			Bits:       session.SoundBits,
			Channels:   session.SoundChannels,
		}
		if err := s.sink.Init(format); err != nil {
			s.logger.Warn("Audio output disabled for session", "session", session.Name, "error", err)
		} else {
			s.audioReady = true
		}
	}

	s.session.Store(session)
	s.logger.Info("Session loaded",
		"name", session.Name,
		"fps", session.FPS,
		"sound_rate", session.SoundRate,
		"sound_channels", session.SoundChannels)

	s.rearm()
	return session, nil
}

// UnloadSession pauses and drops the current session. Without a session it
// does nothing.
func (s *Scheduler) UnloadSession() {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	s.unloadSession()
}

func (s *Scheduler) unloadSession() {
	session := s.session.Load()
	if session == nil {
		return
	}

	s.requestPause()
	if s.sink != nil {
		s.sink.Stop()
	}
	s.engine.UnloadSession()
	s.session.Store(nil)
	s.audioReady = false
	s.logger.Info("Session unloaded", "name", session.Name)
}

// AttachTarget makes t the presentation target, allocating a surface of its
// size, and resumes if the host had asked to run. A nil target detaches.
func (s *Scheduler) AttachTarget(t backend.Target) {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.requestPause()
	s.target = nil
	s.surface = nil

	if t == nil || s.closed {
		return
	}

	w, h := t.Size()
	if w <= 0 || h <= 0 {
		w, h = video.DefaultWidth, video.DefaultHeight
	}
	s.surface = video.NewFrameBuffer(w, h)
	s.target = t
	s.logger.Debug("Presentation target attached", "width", w, "height", h)

	s.rearm()
}

// DetachTarget pauses and releases the presentation target.
func (s *Scheduler) DetachTarget() {
	s.AttachTarget(nil)
}

// Reset performs a soft reset of the loaded program.
func (s *Scheduler) Reset() {
	s.withPaused(func() { s.engine.Reset() })
}

// Power performs a power cycle of the loaded program.
func (s *Scheduler) Power() {
	s.withPaused(func() { s.engine.Power() })
}

// SaveState writes the engine's state to path.
func (s *Scheduler) SaveState(path string) error {
	var err error
	if !s.withPaused(func() { err = s.engine.SaveState(path) }) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("failed to save state to %s: %w", path, err)
	}
	s.logger.Info("State saved", "path", path)
	return nil
}

// LoadState restores the engine's state from path.
func (s *Scheduler) LoadState(path string) error {
	var err error
	if !s.withPaused(func() { err = s.engine.LoadState(path) }) {
		return ErrNoSession
	}
	if err != nil {
		return fmt.Errorf("failed to load state from %s: %w", path, err)
	}
	s.logger.Info("State loaded", "path", path)
	return nil
}

// withPaused runs fn with the emulation goroutine parked, then rearms.
// It returns false without calling fn when no session is loaded.
func (s *Scheduler) withPaused(fn func()) bool {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.closed || s.session.Load() == nil {
		return false
	}
	s.requestPause()
	fn()
	s.rearm()
	return true
}

// SetKeyStates replaces the controller snapshot read by the engine once per
// frame. It never blocks.
func (s *Scheduler) SetKeyStates(bits uint32) {
	s.keys.Set(bits)
}

// Keys exposes the controller snapshot so input managers can update single
// buttons.
func (s *Scheduler) Keys() *input.KeyStates {
	return s.keys
}

// FireLightGun forwards a light gun shot at surface coordinates to engines
// that support one.
func (s *Scheduler) FireLightGun(x, y int) error {
	gun, ok := s.engine.(engine.LightGun)
	if !ok {
		return engine.ErrUnsupported
	}
	gun.FireLightGun(x, y)
	return nil
}
