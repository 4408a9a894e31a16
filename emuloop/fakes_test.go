package emuloop

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valerio/go-emuloop/emuloop/audio"
	"github.com/valerio/go-emuloop/emuloop/engine"
	"github.com/valerio/go-emuloop/emuloop/video"
)

// fakeEngine records calls and flags any control-side call that lands while
// a frame is running.
type fakeEngine struct {
	mu      sync.Mutex
	host    engine.Host
	calls   []string
	options map[string]string

	fps        int
	frameDelay time.Duration
	loadErr    error
	initErr    error
	saveErr    error

	frames     atomic.Int64
	inFrame    atomic.Bool
	overlapped atomic.Int64
	lastKeys   atomic.Uint32
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{fps: 60, options: make(map[string]string)}
}

func (e *fakeEngine) record(call string) {
	if e.inFrame.Load() {
		e.overlapped.Add(1)
	}
	e.mu.Lock()
	e.calls = append(e.calls, call)
	e.mu.Unlock()
}

func (e *fakeEngine) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) Option(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.options[name]
}

func (e *fakeEngine) Initialize(h engine.Host) error {
	e.host = h
	e.record("initialize")
	return e.initErr
}

func (e *fakeEngine) LoadSession(path string) (*engine.Session, error) {
	e.record("load")
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	return &engine.Session{
		Name:          path,
		FPS:           e.fps,
		SoundRate:     48000,
		SoundBits:     16,
		SoundChannels: 2,
	}, nil
}

func (e *fakeEngine) UnloadSession() { e.record("unload") }

func (e *fakeEngine) RunFrame(skip bool) {
	e.inFrame.Store(true)
	defer e.inFrame.Store(false)

	if e.frameDelay > 0 {
		time.Sleep(e.frameDelay)
	}
	e.lastKeys.Store(e.host.KeyStates())
	e.host.PlayAudio([]int16{1, -1})
	if !skip {
		if fb, ok := e.host.LockSurface(); ok {
			fb.Fill(video.White565)
			e.host.UnlockSurface(fb)
		}
	}
	e.frames.Add(1)
}

func (e *fakeEngine) Reset() { e.record("reset") }
func (e *fakeEngine) Power() { e.record("power") }

func (e *fakeEngine) SaveState(string) error {
	e.record("save")
	return e.saveErr
}

func (e *fakeEngine) LoadState(string) error {
	e.record("restore")
	return nil
}

func (e *fakeEngine) SetOption(name, value string) {
	e.record("option:" + name)
	e.mu.Lock()
	e.options[name] = value
	e.mu.Unlock()
}

func (e *fakeEngine) Close() error {
	e.record("close")
	return nil
}

type gunEngine struct {
	*fakeEngine
	shots atomic.Int64
}

func (g *gunEngine) FireLightGun(x, y int) { g.shots.Add(1) }

type fakeTarget struct {
	w, h      int
	presented atomic.Int64
}

func (t *fakeTarget) Size() (int, int) { return t.w, t.h }

func (t *fakeTarget) Present(fb *video.FrameBuffer) error {
	t.presented.Add(1)
	return nil
}

type fakeSink struct {
	mu      sync.Mutex
	calls   []string
	format  audio.Format
	initErr error
	played  atomic.Int64
}

func (s *fakeSink) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *fakeSink) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSink) Init(f audio.Format) error {
	s.record("init")
	s.mu.Lock()
	s.format = f
	s.mu.Unlock()
	return s.initErr
}

func (s *fakeSink) Start() { s.record("start") }
func (s *fakeSink) Pause() { s.record("pause") }
func (s *fakeSink) Stop()  { s.record("stop") }

func (s *fakeSink) Play(samples []int16) { s.played.Add(int64(len(samples))) }

func (s *fakeSink) Close() error {
	s.record("close")
	return nil
}

var errBoom = errors.New("boom")
