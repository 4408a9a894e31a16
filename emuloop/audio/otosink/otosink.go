//go:build oto

// Package otosink plays session audio on the default output device.
// Building it requires the oto build tag.
package otosink

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/valerio/go-emuloop/emuloop/audio"
)

// oto allows a single context per process, so the first session's format
// fixes the device format for the lifetime of the program.
var (
	otoCtx      *oto.Context
	otoFormat   audio.Format
	otoInitOnce sync.Once
	otoInitErr  error
)

func ensureContext(format audio.Format) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		<-ready
		otoFormat = format
	})
	if otoInitErr != nil {
		return nil, fmt.Errorf("oto audio not available: %w", otoInitErr)
	}
	if otoFormat != format {
		return nil, fmt.Errorf("audio device already opened at %d Hz/%d ch", otoFormat.SampleRate, otoFormat.Channels)
	}
	return otoCtx, nil
}

// Available reports whether this build can play audio.
func Available() bool {
	return true
}

// Sink implements audio.Sink on top of an oto player fed by a ring buffer.
type Sink struct {
	volume float64

	mu     sync.Mutex
	player *oto.Player
	ring   *audio.RingBuffer
	bytes  []byte
}

func New(volume float64) *Sink {
	return &Sink{volume: volume, bytes: make([]byte, 0, 4096)}
}

func (s *Sink) Init(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("otosink: %w", err)
	}
	ctx, err := ensureContext(format)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()

	// ~167ms of audio
	s.ring = audio.NewRingBuffer(format.BytesPerSecond() / 6)
	s.player = ctx.NewPlayer(s.ring)
	s.player.SetVolume(s.volume)

	slog.Info("Audio output ready", "rate", format.SampleRate, "channels", format.Channels)
	return nil
}

func (s *Sink) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Play()
	}
}

func (s *Sink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Pause()
	}
}

func (s *Sink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player != nil {
		s.player.Pause()
		s.ring.Clear()
	}
}

func (s *Sink) Play(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ring == nil || len(samples) == 0 {
		return
	}
	s.bytes = audio.Int16ToBytes(s.bytes[:0], samples)
	_, _ = s.ring.Write(s.bytes)
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release()
}

func (s *Sink) release() error {
	var err error
	if s.ring != nil {
		s.ring.Close()
		s.ring = nil
	}
	if s.player != nil {
		err = s.player.Close()
		s.player = nil
	}
	return err
}

var _ audio.Sink = (*Sink)(nil)
