// Package emuloop runs an emulation engine on a background goroutine at the
// engine's native frame rate, and lets a control side pause, resume and
// reconfigure it safely.
package emuloop

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/valerio/go-emuloop/emuloop/audio"
	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/engine"
	"github.com/valerio/go-emuloop/emuloop/input"
	"github.com/valerio/go-emuloop/emuloop/timing"
	"github.com/valerio/go-emuloop/emuloop/video"
)

// Scheduler owns the emulation goroutine and the state it shares with the
// control side.
//
// Control methods (Pause, Resume, LoadSession, ...) are serialized
// internally and may be called from any goroutine except the emulation
// goroutine itself, i.e. never from engine or target callbacks. Quit and
// SetKeyStates are the exceptions and never block.
type Scheduler struct {
	// handshake: only state is guarded by mu
	mu    sync.Mutex
	cond  *sync.Cond
	state State

	// serializes control calls
	ctl             sync.Mutex
	resumeRequested bool
	closed          bool

	// written by control calls only while the worker is parked
	engine     engine.Engine
	session    atomic.Pointer[engine.Session]
	target     backend.Target
	surface    *video.FrameBuffer
	sink       audio.Sink
	audioReady bool

	// read by the worker without the state lock
	autoFrameSkip atomic.Bool
	maxFrameSkips atomic.Int32
	soundEnabled  atomic.Bool
	keys          *input.KeyStates

	clock  timing.Clock
	timer  *timing.Timer
	meter  *timing.Meter
	logger *slog.Logger

	frames    atomic.Uint64
	skipped   atomic.Uint64
	presented atomic.Uint64
	// worker wake-ups while parked
	wakes atomic.Uint64

	done chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConfig sets the initial pacing and sound settings.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) {
		s.autoFrameSkip.Store(cfg.AutoFrameSkip)
		s.maxFrameSkips.Store(int32(timing.ClampFrameSkips(cfg.MaxFrameSkips)))
		s.soundEnabled.Store(cfg.SoundEnabled)
	}
}

// WithAudioSink sets where session audio is sent. Without a sink audio is
// discarded.
func WithAudioSink(sink audio.Sink) Option {
	return func(s *Scheduler) { s.sink = sink }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock timing.Clock) Option {
	return func(s *Scheduler) { s.clock = clock }
}

// WithKeyStates shares a controller snapshot with an input manager.
func WithKeyStates(keys *input.KeyStates) Option {
	return func(s *Scheduler) {
		if keys != nil {
			s.keys = keys
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New initializes eng and starts the emulation goroutine in the Paused
// state. The returned Scheduler must be closed with Close.
func New(eng engine.Engine, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		state:  Paused,
		engine: eng,
		keys:   &input.KeyStates{},
		clock:  timing.SystemClock{},
		logger: slog.Default(),
		done:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	WithConfig(DefaultConfig())(s)

	for _, opt := range opts {
		opt(s)
	}

	s.timer = timing.NewTimer(s.clock)
	s.meter = timing.NewMeter(s.clock, s.logger)

	if err := eng.Initialize(&host{s: s}); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	go s.run()
	return s, nil
}

// State returns the current handshake state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Session returns the loaded session, or nil.
func (s *Scheduler) Session() *engine.Session {
	return s.session.Load()
}

// Done is closed once the emulation goroutine has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}
