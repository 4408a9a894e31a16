package emuloop

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-emuloop/emuloop/engine"
	"github.com/valerio/go-emuloop/emuloop/timing"
)

const waitFor = 2 * time.Second

func newTestScheduler(t *testing.T, eng engine.Engine, opts ...Option) *Scheduler {
	t.Helper()
	opts = append([]Option{
		WithClock(timing.NewManualClock(time.Unix(0, 0))),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	s, err := New(eng, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func waitFrames(t *testing.T, e *fakeEngine, n int64) {
	t.Helper()
	start := e.frames.Load()
	require.Eventually(t, func() bool {
		return e.frames.Load() >= start+n
	}, waitFor, time.Millisecond)
}

func waitDone(t *testing.T, s *Scheduler) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatal("emulation goroutine did not exit")
	}
}

func TestNew(t *testing.T) {
	t.Run("starts paused", func(t *testing.T) {
		eng := newFakeEngine()
		s := newTestScheduler(t, eng)

		assert.Equal(t, Paused, s.State())
		assert.True(t, s.Paused())
		assert.Nil(t, s.Session())
		assert.Equal(t, []string{"initialize"}, eng.Calls())
	})

	t.Run("engine init failure", func(t *testing.T) {
		eng := newFakeEngine()
		eng.initErr = errBoom
		_, err := New(eng)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("default config", func(t *testing.T) {
		s := newTestScheduler(t, newFakeEngine())
		assert.Equal(t, timing.PacingConfig{AutoFrameSkip: true, MaxFrameSkips: 2}, s.PacingConfig())
		assert.False(t, s.SoundEnabled())
	})
}

func TestResumeNeedsSessionAndTarget(t *testing.T) {
	eng := newFakeEngine()
	s := newTestScheduler(t, eng)

	s.Resume()
	assert.Equal(t, Paused, s.State(), "no session, no target")
	assert.False(t, s.Paused())

	_, err := s.LoadSession("game.nes")
	require.NoError(t, err)
	assert.Equal(t, Paused, s.State(), "session without target")

	s.AttachTarget(&fakeTarget{w: 32, h: 32})
	assert.Equal(t, Running, s.State())
	waitFrames(t, eng, 3)
}

func TestPauseResume(t *testing.T) {
	eng := newFakeEngine()
	s := newTestScheduler(t, eng)
	s.AttachTarget(&fakeTarget{w: 16, h: 16})
	_, err := s.LoadSession("game.nes")
	require.NoError(t, err)

	t.Run("paused until resumed", func(t *testing.T) {
		assert.Equal(t, Paused, s.State())
		assert.Zero(t, eng.frames.Load())
	})

	s.Resume()
	require.Equal(t, Running, s.State())
	waitFrames(t, eng, 5)

	t.Run("no frame runs after pause returns", func(t *testing.T) {
		s.Pause()
		assert.Equal(t, Paused, s.State())
		assert.False(t, eng.inFrame.Load())

		frozen := eng.frames.Load()
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, frozen, eng.frames.Load())
	})

	t.Run("double pause is a no-op", func(t *testing.T) {
		wakes := s.wakes.Load()
		frames := eng.frames.Load()

		s.Pause()
		s.Pause()
		time.Sleep(20 * time.Millisecond)

		assert.Equal(t, Paused, s.State())
		assert.Equal(t, wakes, s.wakes.Load(), "worker woken while paused")
		assert.Equal(t, frames, eng.frames.Load())
	})

	t.Run("resume again", func(t *testing.T) {
		wakes := s.wakes.Load()
		s.Resume()
		assert.Equal(t, Running, s.State())
		assert.Greater(t, s.wakes.Load(), wakes)
		waitFrames(t, eng, 3)
		s.Resume()
		assert.Equal(t, Running, s.State())
	})

	t.Run("control calls never overlap a frame", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			s.Reset()
			s.Power()
			require.NoError(t, s.SetOption("palette", "warm"))
		}
		assert.Zero(t, eng.overlapped.Load())
		assert.Equal(t, Running, s.State())
		assert.Equal(t, "warm", eng.Option("palette"))
	})
}

func TestDetachTargetPauses(t *testing.T) {
	eng := newFakeEngine()
	s := newTestScheduler(t, eng)
	s.Resume()
	_, err := s.LoadSession("game.nes")
	require.NoError(t, err)
	s.AttachTarget(&fakeTarget{w: 16, h: 16})
	require.Equal(t, Running, s.State())

	s.DetachTarget()
	assert.Equal(t, Paused, s.State())

	s.AttachTarget(&fakeTarget{})
	assert.Equal(t, Running, s.State(), "resume intent is kept across target changes")
}

func TestLoadSession(t *testing.T) {
	t.Run("engine error", func(t *testing.T) {
		eng := newFakeEngine()
		eng.loadErr = errBoom
		s := newTestScheduler(t, eng)
		s.AttachTarget(&fakeTarget{})
		s.Resume()

		_, err := s.LoadSession("broken.nes")
		require.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), "broken.nes")
		assert.Nil(t, s.Session())
		assert.Equal(t, Paused, s.State())
	})

	t.Run("invalid frame rate", func(t *testing.T) {
		eng := newFakeEngine()
		eng.fps = 0
		s := newTestScheduler(t, eng)

		_, err := s.LoadSession("zero.nes")
		require.Error(t, err)
		assert.Nil(t, s.Session())
		assert.Contains(t, eng.Calls(), "unload")
	})

	t.Run("replaces the current session", func(t *testing.T) {
		eng := newFakeEngine()
		s := newTestScheduler(t, eng)
		s.AttachTarget(&fakeTarget{})
		s.Resume()

		_, err := s.LoadSession("a.nes")
		require.NoError(t, err)
		waitFrames(t, eng, 2)

		session, err := s.LoadSession("b.nes")
		require.NoError(t, err)
		assert.Equal(t, "b.nes", session.Name)
		assert.Equal(t, session, s.Session())
		assert.Equal(t, Running, s.State())
		assert.Zero(t, eng.overlapped.Load())

		calls := eng.Calls()
		assert.Equal(t, []string{"initialize", "load", "unload", "load"}, calls)
	})

	t.Run("unload pauses", func(t *testing.T) {
		eng := newFakeEngine()
		s := newTestScheduler(t, eng)
		s.AttachTarget(&fakeTarget{})
		s.Resume()
		_, err := s.LoadSession("a.nes")
		require.NoError(t, err)

		s.UnloadSession()
		assert.Equal(t, Paused, s.State())
		assert.Nil(t, s.Session())

		s.UnloadSession()
		assert.Equal(t, []string{"initialize", "load", "unload"}, eng.Calls())
	})
}

func TestSaveLoadState(t *testing.T) {
	eng := newFakeEngine()
	s := newTestScheduler(t, eng)

	assert.ErrorIs(t, s.SaveState("x.sav"), ErrNoSession)
	assert.ErrorIs(t, s.LoadState("x.sav"), ErrNoSession)

	_, err := s.LoadSession("game.nes")
	require.NoError(t, err)
	require.NoError(t, s.SaveState("x.sav"))
	require.NoError(t, s.LoadState("x.sav"))

	eng.saveErr = errBoom
	err = s.SaveState("y.sav")
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "y.sav")

	assert.Contains(t, eng.Calls(), "save")
	assert.Contains(t, eng.Calls(), "restore")
}

func TestResetPowerWithoutSession(t *testing.T) {
	eng := newFakeEngine()
	s := newTestScheduler(t, eng)

	s.Reset()
	s.Power()
	assert.Equal(t, []string{"initialize"}, eng.Calls())
}

func TestSetOption(t *testing.T) {
	eng := newFakeEngine()
	s := newTestScheduler(t, eng)

	tests := []struct {
		name, value string
		want        timing.PacingConfig
	}{
		{OptionAutoFrameSkip, "false", timing.PacingConfig{AutoFrameSkip: false, MaxFrameSkips: 2}},
		{OptionMaxFrameSkips, "150", timing.PacingConfig{AutoFrameSkip: false, MaxFrameSkips: 99}},
		{OptionMaxFrameSkips, "1", timing.PacingConfig{AutoFrameSkip: false, MaxFrameSkips: 2}},
		{OptionMaxFrameSkips, "7", timing.PacingConfig{AutoFrameSkip: false, MaxFrameSkips: 7}},
		{OptionAutoFrameSkip, "true", timing.PacingConfig{AutoFrameSkip: true, MaxFrameSkips: 7}},
		{OptionAutoFrameSkip, "yes", timing.PacingConfig{AutoFrameSkip: true, MaxFrameSkips: 7}},
	}
	for _, tt := range tests {
		require.NoError(t, s.SetOption(tt.name, tt.value))
		assert.Equal(t, tt.want, s.PacingConfig(), "%s=%s", tt.name, tt.value)
	}

	t.Run("invalid maxFrameSkips", func(t *testing.T) {
		assert.Error(t, s.SetOption(OptionMaxFrameSkips, "many"))
		assert.Equal(t, 7, s.PacingConfig().MaxFrameSkips)
	})

	t.Run("pacing options stay in the scheduler", func(t *testing.T) {
		assert.NotContains(t, eng.Calls(), "option:"+OptionAutoFrameSkip)
		assert.NotContains(t, eng.Calls(), "option:"+OptionMaxFrameSkips)
	})

	t.Run("sound is recorded and forwarded", func(t *testing.T) {
		require.NoError(t, s.SetOption(OptionSoundEnabled, "true"))
		assert.True(t, s.SoundEnabled())
		assert.Equal(t, "true", eng.Option(OptionSoundEnabled))

		require.NoError(t, s.SetOption(OptionSoundEnabled, "false"))
		assert.False(t, s.SoundEnabled())
	})

	t.Run("SetPacingConfig clamps", func(t *testing.T) {
		s.SetPacingConfig(true, 0)
		assert.Equal(t, timing.PacingConfig{AutoFrameSkip: true, MaxFrameSkips: 2}, s.PacingConfig())
	})
}

func TestFixedCadencePresents(t *testing.T) {
	eng := newFakeEngine()
	target := &fakeTarget{w: 8, h: 8}
	s := newTestScheduler(t, eng, WithConfig(Config{AutoFrameSkip: false, MaxFrameSkips: 2}))
	s.AttachTarget(target)
	_, err := s.LoadSession("game.nes")
	require.NoError(t, err)

	s.Resume()
	waitFrames(t, eng, 30)
	s.Pause()

	st := s.Stats()
	assert.Equal(t, uint64(eng.frames.Load()), st.Frames)
	assert.Equal(t, st.Frames, st.Skipped+st.Presented)
	assert.Equal(t, uint64(target.presented.Load()), st.Presented)
	// one rendered frame in every three
	assert.InDelta(t, float64(st.Frames)/3, float64(st.Presented), 1)
}

func TestKeyStates(t *testing.T) {
	eng := newFakeEngine()
	s := newTestScheduler(t, eng)
	s.AttachTarget(&fakeTarget{})
	_, err := s.LoadSession("game.nes")
	require.NoError(t, err)
	s.Resume()

	s.SetKeyStates(0x81)
	require.Eventually(t, func() bool { return eng.lastKeys.Load() == 0x81 }, waitFor, time.Millisecond)

	s.Keys().Release(0x80)
	require.Eventually(t, func() bool { return eng.lastKeys.Load() == 0x01 }, waitFor, time.Millisecond)
}

func TestFireLightGun(t *testing.T) {
	s := newTestScheduler(t, newFakeEngine())
	assert.ErrorIs(t, s.FireLightGun(1, 2), engine.ErrUnsupported)

	gun := &gunEngine{fakeEngine: newFakeEngine()}
	s = newTestScheduler(t, gun)
	require.NoError(t, s.FireLightGun(1, 2))
	assert.Equal(t, int64(1), gun.shots.Load())
}

func TestAudio(t *testing.T) {
	t.Run("sink follows the session", func(t *testing.T) {
		eng := newFakeEngine()
		sink := &fakeSink{}
		s := newTestScheduler(t, eng,
			WithAudioSink(sink),
			WithConfig(Config{AutoFrameSkip: true, MaxFrameSkips: 2, SoundEnabled: true}))
		s.AttachTarget(&fakeTarget{})
		s.Resume()

		_, err := s.LoadSession("game.nes")
		require.NoError(t, err)
		waitFrames(t, eng, 5)
		s.Pause()
		s.UnloadSession()

		assert.Equal(t, []string{"init", "start", "pause", "stop"}, sink.Calls())
		assert.Equal(t, 48000, sink.format.SampleRate)
		assert.Equal(t, 2, sink.format.Channels)
		assert.Equal(t, 2*eng.frames.Load(), sink.played.Load())
	})

	t.Run("sound disabled", func(t *testing.T) {
		eng := newFakeEngine()
		sink := &fakeSink{}
		s := newTestScheduler(t, eng, WithAudioSink(sink))
		s.AttachTarget(&fakeTarget{})
		s.Resume()

		_, err := s.LoadSession("game.nes")
		require.NoError(t, err)
		waitFrames(t, eng, 5)
		s.Pause()

		assert.Equal(t, []string{"init"}, sink.Calls())
		assert.Zero(t, sink.played.Load())
	})

	t.Run("init failure keeps the session", func(t *testing.T) {
		eng := newFakeEngine()
		sink := &fakeSink{initErr: errBoom}
		s := newTestScheduler(t, eng,
			WithAudioSink(sink),
			WithConfig(Config{AutoFrameSkip: true, MaxFrameSkips: 2, SoundEnabled: true}))
		s.AttachTarget(&fakeTarget{})
		s.Resume()

		_, err := s.LoadSession("game.nes")
		require.NoError(t, err)
		waitFrames(t, eng, 5)
		s.Pause()

		assert.NotNil(t, s.Session())
		assert.Zero(t, sink.played.Load())
	})
}

func TestQuit(t *testing.T) {
	t.Run("from paused", func(t *testing.T) {
		s := newTestScheduler(t, newFakeEngine())
		s.Quit()
		waitDone(t, s)
		assert.Equal(t, Quit, s.State())
	})

	t.Run("from running", func(t *testing.T) {
		eng := newFakeEngine()
		s := newTestScheduler(t, eng)
		s.AttachTarget(&fakeTarget{})
		_, err := s.LoadSession("game.nes")
		require.NoError(t, err)
		s.Resume()
		waitFrames(t, eng, 2)

		s.Quit()
		waitDone(t, s)
		assert.Equal(t, Quit, s.State())
	})

	t.Run("quit is absorbing", func(t *testing.T) {
		s := newTestScheduler(t, newFakeEngine())
		s.AttachTarget(&fakeTarget{})
		s.Quit()
		waitDone(t, s)

		_, err := s.LoadSession("game.nes")
		require.NoError(t, err)
		s.Resume()
		s.Pause()
		assert.Equal(t, Quit, s.State())
	})
}

func TestStateSequences(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewSource(seed))
			eng := newFakeEngine()
			s := newTestScheduler(t, eng)
			s.AttachTarget(&fakeTarget{})
			_, err := s.LoadSession("game.nes")
			require.NoError(t, err)

			want := Paused
			for i := 0; i < 200; i++ {
				switch n := rng.Intn(20); {
				case n == 0:
					s.Quit()
					want = Quit
				case n%2 == 0:
					s.Pause()
					if want != Quit {
						want = Paused
					}
				default:
					s.Resume()
					if want != Quit {
						want = Running
					}
				}

				got := s.State()
				require.Contains(t, []State{Paused, Running, Quit}, got, "step %d", i)
				require.Equal(t, want, got, "step %d", i)
			}
			assert.Zero(t, eng.overlapped.Load())
		})
	}
}

func TestControlAfterQuitWaitsForFrame(t *testing.T) {
	start := func(t *testing.T) (*Scheduler, *fakeEngine) {
		eng := newFakeEngine()
		eng.frameDelay = 20 * time.Millisecond
		s := newTestScheduler(t, eng)
		s.AttachTarget(&fakeTarget{})
		_, err := s.LoadSession("game.nes")
		require.NoError(t, err)
		s.Resume()
		require.Eventually(t, eng.inFrame.Load, waitFor, time.Millisecond)
		return s, eng
	}

	t.Run("close", func(t *testing.T) {
		s, eng := start(t)
		s.Quit()
		require.NoError(t, s.Close())

		assert.Zero(t, eng.overlapped.Load())
		assert.Equal(t, []string{"initialize", "load", "unload", "close"}, eng.Calls())
	})

	t.Run("reset", func(t *testing.T) {
		s, eng := start(t)
		s.Quit()
		s.Reset()

		assert.Zero(t, eng.overlapped.Load())
		assert.Contains(t, eng.Calls(), "reset")
	})

	t.Run("load session", func(t *testing.T) {
		s, eng := start(t)
		s.Quit()
		_, err := s.LoadSession("other.nes")
		require.NoError(t, err)

		assert.Zero(t, eng.overlapped.Load())
		assert.Equal(t, Quit, s.State())
	})

	t.Run("close without quit", func(t *testing.T) {
		s, eng := start(t)
		require.NoError(t, s.Close())
		assert.Zero(t, eng.overlapped.Load())
	})
}

func TestClose(t *testing.T) {
	eng := newFakeEngine()
	sink := &fakeSink{}
	s, err := New(eng,
		WithClock(timing.NewManualClock(time.Unix(0, 0))),
		WithAudioSink(sink),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	s.AttachTarget(&fakeTarget{})
	_, err = s.LoadSession("game.nes")
	require.NoError(t, err)
	s.Resume()
	waitFrames(t, eng, 2)

	require.NoError(t, s.Close())
	waitDone(t, s)
	assert.Equal(t, Quit, s.State())
	assert.Nil(t, s.Session())
	assert.Equal(t, []string{"initialize", "load", "unload", "close"}, eng.Calls())
	assert.Contains(t, sink.Calls(), "close")

	require.NoError(t, s.Close())
	_, err = s.LoadSession("game.nes")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.SetOption("palette", "warm"), ErrClosed)
}

func TestStats(t *testing.T) {
	eng := newFakeEngine()
	s := newTestScheduler(t, eng)
	s.AttachTarget(&fakeTarget{})
	_, err := s.LoadSession("game.nes")
	require.NoError(t, err)

	st := s.Stats()
	assert.Equal(t, Paused, st.State)
	assert.Equal(t, "game.nes", st.Session)
	assert.Equal(t, 60, st.FPS)
	assert.Zero(t, st.Frames)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "request-pause", RequestPause.String())
	assert.Equal(t, "quit", Quit.String())
	assert.Equal(t, "unknown", State(42).String())

	text, err := Paused.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "paused", string(text))
}
