package emuloop

// requestPause parks the emulation goroutine. It returns once the goroutine
// has acknowledged, which guarantees no frame is in progress. After Quit it
// waits for the goroutine to exit instead. Outside Running it wakes nobody.
func (s *Scheduler) requestPause() {
	s.mu.Lock()
	if s.state == Running {
		s.state = RequestPause
		s.cond.Broadcast()
		for s.state == RequestPause {
			s.cond.Wait()
		}
	}
	quit := s.state == Quit
	s.mu.Unlock()

	if quit {
		<-s.done
	}
}

// requestResume restarts the frame loop if the scheduler is paused and both a
// session and a presentation target are present; otherwise it does nothing.
// It returns once the emulation goroutine is Running, or on Quit.
func (s *Scheduler) requestResume() {
	if s.session.Load() == nil || s.target == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Paused {
		return
	}
	s.state = RequestRun
	s.cond.Broadcast()
	for s.state == RequestRun {
		s.cond.Wait()
	}
}

// requestQuit moves to the terminal state and wakes the emulation goroutine.
// It never blocks; a goroutine mid-frame notices on its next state check.
func (s *Scheduler) requestQuit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Quit
	s.cond.Broadcast()
}

// rearm resumes after an internal pause-mutate sequence, but only if the
// host asked to run.
func (s *Scheduler) rearm() {
	if s.resumeRequested {
		s.requestResume()
	}
}

// Pause stops the frame loop and blocks until the current frame is done. The
// scheduler stays paused across session and target changes until Resume.
func (s *Scheduler) Pause() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	s.resumeRequested = false
	s.requestPause()
	s.logger.Debug("Scheduler paused")
}

// Resume starts the frame loop. Without a session or target it only records
// the intent; the loop starts as soon as both are present.
func (s *Scheduler) Resume() {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.closed {
		return
	}
	s.resumeRequested = true
	s.requestResume()
	s.logger.Debug("Scheduler resume requested", "state", s.State())
}

// Paused reports whether the host has paused the scheduler.
func (s *Scheduler) Paused() bool {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	return !s.resumeRequested
}

// Quit asks the emulation goroutine to exit without waiting for it. It is
// safe to call from any goroutine, including engine callbacks. Use Close to
// release resources.
func (s *Scheduler) Quit() {
	s.requestQuit()
}

// Close stops the emulation goroutine and waits for it to exit, then unloads
// the session and releases the audio sink and the engine.
func (s *Scheduler) Close() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.resumeRequested = false

	s.requestQuit()
	<-s.done
	s.unloadSession()

	s.target = nil
	s.surface = nil

	var sinkErr error
	if s.sink != nil {
		sinkErr = s.sink.Close()
	}
	if err := s.engine.Close(); err != nil {
		return err
	}
	s.logger.Info("Scheduler closed")
	return sinkErr
}
