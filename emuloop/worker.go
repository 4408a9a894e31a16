package emuloop

import "github.com/valerio/go-emuloop/emuloop/timing"

// run is the emulation goroutine. It parks while Paused, acknowledges run and
// pause requests, and runs the frame loop in between.
func (s *Scheduler) run() {
	defer close(s.done)

	for {
		s.mu.Lock()
		for s.state == Paused {
			s.cond.Wait()
			s.wakes.Add(1)
		}
		if s.state == Quit {
			s.mu.Unlock()
			return
		}
		if s.state == RequestRun {
			s.state = Running
			s.cond.Broadcast()
		}
		s.mu.Unlock()

		s.runFrames()

		s.mu.Lock()
		if s.state == RequestPause {
			s.state = Paused
			s.cond.Broadcast()
		}
		s.mu.Unlock()
	}
}

// PacingConfig returns the current frame skip settings.
func (s *Scheduler) PacingConfig() timing.PacingConfig {
	return timing.PacingConfig{
		AutoFrameSkip: s.autoFrameSkip.Load(),
		MaxFrameSkips: int(s.maxFrameSkips.Load()),
	}
}

// runFrames is the active frame loop, entered once per resume.
func (s *Scheduler) runFrames() {
	session := s.session.Load()
	if session == nil {
		return
	}

	soundOn := s.soundEnabled.Load() && s.sink != nil && s.audioReady
	if soundOn {
		s.sink.Start()
	}

	ctx := timing.NewFrameContext(session.FPS, s.timer.Ticks())
	s.meter.Reset()
	s.logger.Debug("Frame loop started", "session", session.Name, "fps", ctx.FPS)

	for s.State() == Running {
		decision := timing.Pace(s.timer.Ticks(), ctx, s.PacingConfig())
		ctx = decision.Context

		if decision.Sleep > 0 {
			s.clock.Sleep(decision.Sleep)
		}

		skip := decision.Skip()
		s.engine.RunFrame(skip)

		s.frames.Add(1)
		if skip {
			s.skipped.Add(1)
		}
		s.meter.Frame(!skip)
	}

	if soundOn {
		s.sink.Pause()
	}
	s.logger.Debug("Frame loop stopped", "frames", s.frames.Load())
}
