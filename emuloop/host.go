package emuloop

import (
	"github.com/valerio/go-emuloop/emuloop/engine"
	"github.com/valerio/go-emuloop/emuloop/video"
)

// host implements engine.Host. Its methods run on the emulation goroutine,
// inside Engine.RunFrame.
type host struct {
	s *Scheduler
}

var _ engine.Host = (*host)(nil)

func (h *host) LockSurface() (*video.FrameBuffer, bool) {
	if h.s.surface == nil {
		return nil, false
	}
	return h.s.surface, true
}

func (h *host) UnlockSurface(fb *video.FrameBuffer) {
	s := h.s
	if s.target == nil || fb == nil {
		return
	}
	if err := s.target.Present(fb); err != nil {
		s.logger.Debug("Present failed", "error", err)
		return
	}
	s.presented.Add(1)
}

func (h *host) PlayAudio(samples []int16) {
	s := h.s
	if s.sink == nil || !s.audioReady || !s.soundEnabled.Load() {
		return
	}
	s.sink.Play(samples)
}

func (h *host) KeyStates() uint32 {
	return h.s.keys.Load()
}
