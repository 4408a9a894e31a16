// Package testpattern is a small engine that draws animated test patterns
// and plays a tone. It exercises every part of the engine contract without
// emulating a real machine.
package testpattern

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/valerio/go-emuloop/emuloop/engine"
	"github.com/valerio/go-emuloop/emuloop/input"
	"github.com/valerio/go-emuloop/emuloop/video"
)

// BuiltinPrefix selects a built-in program instead of a file, e.g.
// "builtin:ntsc" or "builtin:pal".
const BuiltinPrefix = "builtin:"

const (
	SoundRate = 22050
	NTSCFPS   = 60
	PALFPS    = 50
)

const (
	patternCount     = 4
	tileSize         = 8
	stripeWidth      = 4
	animationFrames  = 30
	stripeSpeed      = 2
	diagonalSpeed    = 4
	cursorSize       = 6
	lightGunTopLines = 16
)

var patternNames = []string{"checkerboard", "gradient", "stripes", "diagonal"}

var errNoSession = errors.New("no session loaded")

// Engine draws test patterns. A loaded file only seeds the initial pattern
// and the tone pitch.
type Engine struct {
	host    engine.Host
	session *engine.Session
	pal     bool

	frame       int
	patternType int
	cursorX     int
	cursorY     int
	turbo       bool
	prevKeys    uint32
	tonePhase   int
	tonePeriod  int
	soundOn     bool
	lightGunOn  atomic.Bool
	lightGunHit atomic.Uint32

	samples []int16
}

func New() *Engine {
	return &Engine{}
}

var (
	_ engine.Engine   = (*Engine)(nil)
	_ engine.LightGun = (*Engine)(nil)
)

func (e *Engine) Initialize(host engine.Host) error {
	if host == nil {
		return errors.New("testpattern: nil host")
	}
	e.host = host
	return nil
}

func (e *Engine) LoadSession(path string) (*engine.Session, error) {
	var seed int
	var name string

	if strings.HasPrefix(path, BuiltinPrefix) {
		region := strings.TrimPrefix(path, BuiltinPrefix)
		switch region {
		case "ntsc", "":
			e.pal = false
		case "pal":
			e.pal = true
		default:
			return nil, fmt.Errorf("testpattern: unknown builtin program %q", region)
		}
		name = "test pattern (" + strings.ToUpper(region) + ")"
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("testpattern: %w", err)
		}
		for _, b := range data {
			seed += int(b)
		}
		ext := filepath.Ext(path)
		e.pal = strings.EqualFold(ext, ".pal")
		name = strings.TrimSuffix(filepath.Base(path), ext)
		slog.Debug("Loaded program data", "bytes", len(data), "path", path)
	}

	fps := NTSCFPS
	if e.pal {
		fps = PALFPS
	}
	e.session = &engine.Session{
		Name:          name,
		FPS:           fps,
		SoundRate:     SoundRate,
		SoundBits:     16,
		SoundChannels: 1,
	}
	e.power(seed % patternCount)
	e.tonePeriod = SoundRate / (220 + (seed%8)*55)
	return e.session, nil
}

func (e *Engine) UnloadSession() {
	e.session = nil
}

// RunFrame advances the animation, emits one frame of audio and, unless
// skip is set, draws into the host surface.
func (e *Engine) RunFrame(skip bool) {
	if e.session == nil {
		return
	}

	e.turbo = !e.turbo
	keys := input.ApplyTurbo(e.host.KeyStates(), e.turbo)
	e.handleInput(keys)
	e.frame++

	e.host.PlayAudio(e.generateAudio())

	if skip {
		return
	}
	fb, ok := e.host.LockSurface()
	if !ok {
		return
	}
	e.draw(fb)
	e.host.UnlockSurface(fb)
}

func (e *Engine) Reset() {
	e.frame = 0
	e.cursorX, e.cursorY = 0, 0
	e.prevKeys = 0
	e.tonePhase = 0
}

func (e *Engine) Power() {
	e.power(0)
}

func (e *Engine) power(pattern int) {
	e.Reset()
	e.patternType = pattern
	e.turbo = false
	e.lightGunHit.Store(0)
}

// SetOption understands soundEnabled, enableLightGun and pattern.
func (e *Engine) SetOption(name, value string) {
	switch name {
	case "soundEnabled":
		e.soundOn = value != "false"
	case "enableLightGun":
		e.lightGunOn.Store(value == "true")
	case "pattern":
		for i, n := range patternNames {
			if n == value {
				e.patternType = i
				return
			}
		}
		slog.Warn("Unknown test pattern", "pattern", value)
	}
}

// FireLightGun records a shot to be drawn on the next frame. It may be
// called while a frame is running.
func (e *Engine) FireLightGun(x, y int) {
	if !e.lightGunOn.Load() {
		return
	}
	if !e.pal && y < lightGunTopLines {
		return
	}
	if x < 0 || y < 0 || x > 0xffff || y > 0x7fff {
		return
	}
	e.lightGunHit.Store(uint32(x) | uint32(y)<<16 | 1<<31)
}

func (e *Engine) Close() error {
	e.session = nil
	e.host = nil
	return nil
}

// Frame returns the number of frames run since the last reset.
func (e *Engine) Frame() int {
	return e.frame
}

// Pattern returns the name of the current pattern.
func (e *Engine) Pattern() string {
	return patternNames[e.patternType]
}

// Cursor returns the cursor offset moved by the d-pad.
func (e *Engine) Cursor() (x, y int) {
	return e.cursorX, e.cursorY
}

func (e *Engine) handleInput(keys uint32) {
	pressed := keys &^ e.prevKeys
	e.prevKeys = keys

	if keys&input.DPadLeft != 0 {
		e.cursorX--
	}
	if keys&input.DPadRight != 0 {
		e.cursorX++
	}
	if keys&input.DPadUp != 0 {
		e.cursorY--
	}
	if keys&input.DPadDown != 0 {
		e.cursorY++
	}
	if pressed&input.ButtonSelect != 0 {
		e.patternType = (e.patternType + 1) % patternCount
		slog.Info("Switched to test pattern", "pattern", patternNames[e.patternType])
	}
	if pressed&input.ButtonStart != 0 {
		e.cursorX, e.cursorY = 0, 0
	}
}

func (e *Engine) generateAudio() []int16 {
	n := e.session.SoundRate / e.session.FPS * e.session.SoundChannels
	if cap(e.samples) < n {
		e.samples = make([]int16, n)
	}
	e.samples = e.samples[:n]

	for i := range e.samples {
		var v int16
		if e.soundOn && e.tonePeriod > 0 {
			// a held A button raises the tone by an octave
			period := e.tonePeriod
			if e.prevKeys&input.ButtonA != 0 {
				period /= 2
			}
			if e.tonePhase%period < period/2 {
				v = 4000
			} else {
				v = -4000
			}
		}
		e.samples[i] = v
		e.tonePhase++
	}
	return e.samples
}

func (e *Engine) draw(fb *video.FrameBuffer) {
	offset := e.frame / animationFrames
	w, h := fb.Width(), fb.Height()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fb.SetPixel(x, y, e.patternColor(x, y, w, offset))
		}
	}

	e.drawBox(fb, w/2+e.cursorX, h/2+e.cursorY, cursorSize, video.RGB565(0xff, 0x20, 0x20))

	if hit := e.lightGunHit.Swap(0); hit != 0 {
		x := int(hit & 0xffff)
		y := int(hit>>16) & 0x7fff
		e.drawBox(fb, x, y, cursorSize/2, video.RGB565(0xff, 0xff, 0x00))
	}
}

func (e *Engine) patternColor(x, y, w, offset int) video.Color565 {
	switch e.patternType {
	case 0: // Checkerboard
		if ((x/tileSize)+(y/tileSize))%2 == 0 {
			return video.White565
		}
		return video.Black565
	case 1: // Gradient
		v := uint8(x * 255 / max(w-1, 1))
		return video.RGB565(v, v, 0xff-v)
	case 2: // Vertical stripes
		if ((x+offset*stripeSpeed)/stripeWidth)%2 == 0 {
			return video.White565
		}
		return video.RGB565(0x4c, 0x4c, 0x4c)
	default: // Diagonal lines
		if ((x+y+offset*diagonalSpeed)/tileSize)%2 == 0 {
			return video.RGB565(0x98, 0x98, 0x98)
		}
		return video.RGB565(0x20, 0x40, 0x80)
	}
}

func (e *Engine) drawBox(fb *video.FrameBuffer, cx, cy, size int, c video.Color565) {
	for y := cy - size; y <= cy+size; y++ {
		for x := cx - size; x <= cx+size; x++ {
			if x < 0 || y < 0 || x >= fb.Width() || y >= fb.Height() {
				continue
			}
			fb.SetPixel(x, y, c)
		}
	}
}

// SaveState writes the engine state.
func (e *Engine) SaveState(path string) error {
	if e.session == nil {
		return errNoSession
	}
	data, err := e.marshalState()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadState restores state written by SaveState.
func (e *Engine) LoadState(path string) error {
	if e.session == nil {
		return errNoSession
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return e.unmarshalState(data)
}
