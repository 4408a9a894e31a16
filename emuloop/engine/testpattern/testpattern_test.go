package testpattern

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/go-emuloop/emuloop/input"
	"github.com/valerio/go-emuloop/emuloop/video"
)

type fakeHost struct {
	fb        *video.FrameBuffer
	keys      uint32
	locks     int
	unlocks   int
	audio     [][]int16
	noSurface bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{fb: video.NewFrameBuffer(64, 48)}
}

func (h *fakeHost) LockSurface() (*video.FrameBuffer, bool) {
	h.locks++
	if h.noSurface {
		return nil, false
	}
	return h.fb, true
}

func (h *fakeHost) UnlockSurface(*video.FrameBuffer) { h.unlocks++ }

func (h *fakeHost) PlayAudio(samples []int16) {
	h.audio = append(h.audio, append([]int16(nil), samples...))
}

func (h *fakeHost) KeyStates() uint32 { return h.keys }

func loaded(t *testing.T, path string) (*Engine, *fakeHost) {
	t.Helper()
	e := New()
	h := newFakeHost()
	require.NoError(t, e.Initialize(h))
	_, err := e.LoadSession(path)
	require.NoError(t, err)
	return e, h
}

func TestLoadSession(t *testing.T) {
	t.Run("builtin regions", func(t *testing.T) {
		e := New()
		require.NoError(t, e.Initialize(newFakeHost()))

		s, err := e.LoadSession("builtin:ntsc")
		require.NoError(t, err)
		assert.Equal(t, NTSCFPS, s.FPS)
		assert.Equal(t, SoundRate, s.SoundRate)
		assert.Equal(t, 16, s.SoundBits)
		assert.Equal(t, 1, s.SoundChannels)

		s, err = e.LoadSession("builtin:pal")
		require.NoError(t, err)
		assert.Equal(t, PALFPS, s.FPS)
	})

	t.Run("unknown builtin", func(t *testing.T) {
		e := New()
		require.NoError(t, e.Initialize(newFakeHost()))
		_, err := e.LoadSession("builtin:secam")
		assert.Error(t, err)
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "demo.pal")
		require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))

		e := New()
		require.NoError(t, e.Initialize(newFakeHost()))
		s, err := e.LoadSession(path)
		require.NoError(t, err)
		assert.Equal(t, "demo", s.Name)
		assert.Equal(t, PALFPS, s.FPS)
	})

	t.Run("missing file", func(t *testing.T) {
		e := New()
		require.NoError(t, e.Initialize(newFakeHost()))
		_, err := e.LoadSession(filepath.Join(t.TempDir(), "nope.nes"))
		assert.Error(t, err)
	})

	t.Run("nil host", func(t *testing.T) {
		assert.Error(t, New().Initialize(nil))
	})
}

func TestRunFrame(t *testing.T) {
	t.Run("renders and plays audio", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		e.RunFrame(false)

		assert.Equal(t, 1, h.locks)
		assert.Equal(t, 1, h.unlocks)
		require.Len(t, h.audio, 1)
		assert.Len(t, h.audio[0], SoundRate/NTSCFPS)
		assert.Equal(t, 1, e.Frame())
	})

	t.Run("skip does not touch the surface", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		e.RunFrame(true)

		assert.Zero(t, h.locks)
		assert.Len(t, h.audio, 1)
		assert.Equal(t, 1, e.Frame())
	})

	t.Run("no surface", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		h.noSurface = true
		e.RunFrame(false)

		assert.Equal(t, 1, h.locks)
		assert.Zero(t, h.unlocks)
	})

	t.Run("no session", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		e.UnloadSession()
		e.RunFrame(false)

		assert.Zero(t, h.locks)
		assert.Empty(t, h.audio)
	})

	t.Run("silent unless sound enabled", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		e.RunFrame(true)
		for _, v := range h.audio[0] {
			require.Zero(t, v)
		}

		e.SetOption("soundEnabled", "true")
		e.RunFrame(true)
		var nonZero int
		for _, v := range h.audio[1] {
			if v != 0 {
				nonZero++
			}
		}
		assert.Equal(t, len(h.audio[1]), nonZero)
	})
}

func TestCheckerboard(t *testing.T) {
	e, h := loaded(t, "builtin:ntsc")
	e.SetOption("pattern", "checkerboard")
	e.RunFrame(false)

	assert.Equal(t, video.White565, h.fb.GetPixel(0, 0))
	assert.Equal(t, video.Black565, h.fb.GetPixel(tileSize, 0))
	assert.Equal(t, video.White565, h.fb.GetPixel(tileSize, tileSize))
}

func TestInput(t *testing.T) {
	t.Run("dpad moves the cursor", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		h.keys = input.DPadRight | input.DPadDown
		e.RunFrame(true)
		e.RunFrame(true)

		x, y := e.Cursor()
		assert.Equal(t, 2, x)
		assert.Equal(t, 2, y)
	})

	t.Run("select cycles pattern on press only", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		e.SetOption("pattern", "checkerboard")

		h.keys = input.ButtonSelect
		e.RunFrame(true)
		e.RunFrame(true)
		assert.Equal(t, "gradient", e.Pattern())

		h.keys = 0
		e.RunFrame(true)
		h.keys = input.ButtonSelect
		e.RunFrame(true)
		assert.Equal(t, "stripes", e.Pattern())
	})

	t.Run("unknown pattern is ignored", func(t *testing.T) {
		e, _ := loaded(t, "builtin:ntsc")
		e.SetOption("pattern", "diagonal")
		e.SetOption("pattern", "plaid")
		assert.Equal(t, "diagonal", e.Pattern())
	})
}

func TestLightGun(t *testing.T) {
	crosshair := video.RGB565(0xff, 0xff, 0x00)

	t.Run("disabled by default", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		e.FireLightGun(10, 30)
		e.RunFrame(false)
		assert.NotEqual(t, crosshair, h.fb.GetPixel(10, 30))
	})

	t.Run("drawn once on the next frame", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		e.SetOption("enableLightGun", "true")
		e.FireLightGun(10, 30)
		e.RunFrame(false)
		assert.Equal(t, crosshair, h.fb.GetPixel(10, 30))

		e.RunFrame(false)
		assert.NotEqual(t, crosshair, h.fb.GetPixel(10, 30))
	})

	t.Run("ntsc ignores the top lines", func(t *testing.T) {
		e, h := loaded(t, "builtin:ntsc")
		e.SetOption("enableLightGun", "true")
		e.FireLightGun(10, 4)
		e.RunFrame(false)
		assert.NotEqual(t, crosshair, h.fb.GetPixel(10, 4))
	})

	t.Run("pal accepts the top lines", func(t *testing.T) {
		e, h := loaded(t, "builtin:pal")
		e.SetOption("enableLightGun", "true")
		e.FireLightGun(10, 4)
		e.RunFrame(false)
		assert.Equal(t, crosshair, h.fb.GetPixel(10, 4))
	})
}

func TestResetAndPower(t *testing.T) {
	e, h := loaded(t, "builtin:ntsc")
	e.SetOption("pattern", "stripes")
	h.keys = input.DPadLeft
	e.RunFrame(true)

	e.Reset()
	x, y := e.Cursor()
	assert.Zero(t, x)
	assert.Zero(t, y)
	assert.Zero(t, e.Frame())
	assert.Equal(t, "stripes", e.Pattern())

	e.Power()
	assert.Equal(t, "checkerboard", e.Pattern())
}

func TestSaveLoadState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")

	e, h := loaded(t, "builtin:ntsc")
	e.SetOption("pattern", "diagonal")
	h.keys = input.DPadRight
	for i := 0; i < 5; i++ {
		e.RunFrame(true)
	}
	require.NoError(t, e.SaveState(path))

	h.keys = 0
	e.Power()
	require.NoError(t, e.LoadState(path))

	x, _ := e.Cursor()
	assert.Equal(t, 5, x)
	assert.Equal(t, 5, e.Frame())
	assert.Equal(t, "diagonal", e.Pattern())

	t.Run("rejects foreign data", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.bin")
		require.NoError(t, os.WriteFile(bad, make([]byte, 64), 0o644))
		assert.ErrorIs(t, e.LoadState(bad), errBadState)
	})

	t.Run("needs a session", func(t *testing.T) {
		e.UnloadSession()
		assert.Error(t, e.SaveState(path))
		assert.Error(t, e.LoadState(path))
	})
}
