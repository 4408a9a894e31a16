package emuloop

import (
	"fmt"
	"strconv"

	"github.com/valerio/go-emuloop/emuloop/timing"
)

// SetPacingConfig changes the frame skip policy. It takes effect on the next
// frame without pausing; maxFrameSkips is clamped to [2, 99].
func (s *Scheduler) SetPacingConfig(autoFrameSkip bool, maxFrameSkips int) {
	s.autoFrameSkip.Store(autoFrameSkip)
	s.maxFrameSkips.Store(int32(timing.ClampFrameSkips(maxFrameSkips)))
}

// SoundEnabled reports whether session audio is forwarded to the sink.
func (s *Scheduler) SoundEnabled() bool {
	return s.soundEnabled.Load()
}

// SetOption sets a named option. The pacing options are handled here;
// soundEnabled is recorded and also passed on; anything else goes to the
// engine with the emulation goroutine parked.
func (s *Scheduler) SetOption(name, value string) error {
	switch name {
	case OptionAutoFrameSkip:
		s.autoFrameSkip.Store(value != "false")
		return nil

	case OptionMaxFrameSkips:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", name, value, err)
		}
		s.maxFrameSkips.Store(int32(timing.ClampFrameSkips(n)))
		return nil
	}

	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.closed {
		return ErrClosed
	}
	if name == OptionSoundEnabled {
		s.soundEnabled.Store(value != "false")
	}

	s.requestPause()
	s.engine.SetOption(name, value)
	s.rearm()
	return nil
}
