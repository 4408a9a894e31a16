// Package wavsink records a session's audio to a WAV file.
package wavsink

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/valerio/go-emuloop/emuloop/audio"
)

// pcmFormat is the WAVE format tag for integer PCM.
const pcmFormat = 1

// Sink implements audio.Sink by encoding samples into a WAV file. The file
// is rewritten for every session and finalized when the session stops.
type Sink struct {
	path string

	mu      sync.Mutex
	file    *os.File
	enc     *wav.Encoder
	buf     *goaudio.IntBuffer
	playing bool
	samples int
}

func New(path string) *Sink {
	return &Sink{path: path}
}

// Init opens the output file for a new session.
func (s *Sink) Init(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("wavsink: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.finalize(); err != nil {
		slog.Warn("Failed to finalize previous WAV file", "path", s.path, "error", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("wavsink: %w", err)
	}

	s.file = f
	s.enc = wav.NewEncoder(f, format.SampleRate, format.Bits, format.Channels, pcmFormat)
	s.buf = &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		SourceBitDepth: format.Bits,
	}
	s.samples = 0

	slog.Info("Recording audio", "path", s.path, "rate", format.SampleRate, "channels", format.Channels)
	return nil
}

func (s *Sink) Start() {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
}

func (s *Sink) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// Stop finalizes the file.
func (s *Sink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playing = false
	if err := s.finalize(); err != nil {
		slog.Error("Failed to finalize WAV file", "path", s.path, "error", err)
	}
}

// Play encodes samples while the sink is started; otherwise they are dropped.
func (s *Sink) Play(samples []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.playing || s.enc == nil || len(samples) == 0 {
		return
	}

	data := s.buf.Data[:0]
	for _, v := range samples {
		data = append(data, int(v))
	}
	s.buf.Data = data

	if err := s.enc.Write(s.buf); err != nil {
		slog.Error("Failed to write WAV samples", "error", err)
		return
	}
	s.samples += len(samples)
}

// Samples returns how many samples were written to the current file.
func (s *Sink) Samples() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	return s.finalize()
}

func (s *Sink) finalize() error {
	if s.enc == nil {
		return nil
	}

	encErr := s.enc.Close()
	fileErr := s.file.Close()
	s.enc = nil
	s.file = nil

	if encErr != nil {
		return fmt.Errorf("wavsink: %w", encErr)
	}
	if fileErr != nil {
		return fmt.Errorf("wavsink: %w", fileErr)
	}
	slog.Debug("WAV file finalized", "path", s.path, "samples", s.samples)
	return nil
}

var _ audio.Sink = (*Sink)(nil)
