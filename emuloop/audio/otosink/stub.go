//go:build !oto

package otosink

import (
	"fmt"

	"github.com/valerio/go-emuloop/emuloop/audio"
)

// Available reports whether this build can play audio.
func Available() bool {
	return false
}

// Sink stub for when oto is not compiled in
type Sink struct{}

func New(volume float64) *Sink {
	return &Sink{}
}

// Init returns an error indicating audio output is not available
func (s *Sink) Init(format audio.Format) error {
	return fmt.Errorf("audio output not available - build with -tags oto to enable")
}

func (s *Sink) Start()               {}
func (s *Sink) Pause()               {}
func (s *Sink) Stop()                {}
func (s *Sink) Play(samples []int16) {}
func (s *Sink) Close() error         { return nil }
