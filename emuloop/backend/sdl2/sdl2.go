//go:build sdl2

package sdl2

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/input/action"
	"github.com/valerio/go-emuloop/emuloop/input/event"
	"github.com/valerio/go-emuloop/emuloop/timing"
	"github.com/valerio/go-emuloop/emuloop/video"
)

const defaultScale = 3

func init() {
	// SDL must be driven from the main thread.
	runtime.LockOSThread()
}

// Available reports whether this build includes the SDL2 frontend.
func Available() bool { return true }

// Backend implements backend.Frontend using SDL2 bindings.
// Note: building this requires SDL2 development libraries installed.
// Default builds skip this and use a stubbed frontend, see build tags (sdl2)
type Backend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	running  bool
	config   backend.Config

	width, height int
	latest        *video.SharedFrame
	lastSeq       uint64
}

var _ backend.Frontend = (*Backend)(nil)

func New() *Backend {
	return &Backend{}
}

// Init opens the window. The surface size defaults to 256x240 and is
// scaled up by config.Scale.
func (s *Backend) Init(config backend.Config) error {
	s.config = config
	s.width, s.height = video.DefaultWidth, video.DefaultHeight
	if config.Width > 0 && config.Height > 0 {
		s.width, s.height = config.Width, config.Height
	}
	scale := config.Scale
	if scale <= 0 {
		scale = defaultScale
	}
	s.latest = video.NewSharedFrame(s.width, s.height)

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return fmt.Errorf("failed to initialize SDL2: %w", err)
	}

	window, err := sdl.CreateWindow(
		config.Title,
		sdl.WINDOWPOS_CENTERED,
		sdl.WINDOWPOS_CENTERED,
		int32(s.width*scale),
		int32(s.height*scale),
		sdl.WINDOW_SHOWN,
	)
	if err != nil {
		sdl.Quit()
		return fmt.Errorf("failed to create window: %w", err)
	}
	s.window = window

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	s.renderer = renderer

	// the surface is RGB565, which SDL can upload as is
	texture, err := renderer.CreateTexture(
		sdl.PIXELFORMAT_RGB565,
		sdl.TEXTUREACCESS_STREAMING,
		int32(s.width),
		int32(s.height),
	)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		sdl.Quit()
		return fmt.Errorf("failed to create texture: %w", err)
	}
	s.texture = texture
	s.running = true

	slog.Info("SDL2 frontend initialized", "width", s.width, "height", s.height, "scale", scale)
	return nil
}

func (s *Backend) Size() (int, int) {
	return s.width, s.height
}

// Present stores the frame for the window loop.
func (s *Backend) Present(frame *video.FrameBuffer) error {
	s.latest.Update(frame)
	return nil
}

func (s *Backend) LatestFrame() *video.FrameBuffer {
	return s.latest.Snapshot()
}

// Run processes window events and redraws until ctx is cancelled or the
// window is closed. It must be called from the main goroutine.
func (s *Backend) Run(ctx context.Context) error {
	limiter := timing.NewTickerLimiter(timing.DefaultFPS)
	defer limiter.Stop()

	for s.running {
		select {
		case <-ctx.Done():
			return nil
		case <-limiter.C():
		}

		for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
			s.handleEvent(ev)
		}
		if !s.running {
			break
		}

		frame, seq := s.latest.Read()
		if seq != s.lastSeq {
			s.lastSeq = seq
			if err := s.renderFrame(frame); err != nil {
				return err
			}
		}
	}

	s.config.Callbacks.Quit()
	return nil
}

func (s *Backend) Cleanup() error {
	slog.Info("Cleaning up SDL2 frontend")

	if s.texture != nil {
		s.texture.Destroy()
	}
	if s.renderer != nil {
		s.renderer.Destroy()
	}
	if s.window != nil {
		s.window.Destroy()
	}
	sdl.Quit()
	return nil
}

func (s *Backend) handleEvent(ev sdl.Event) {
	switch e := ev.(type) {
	case *sdl.QuitEvent:
		s.running = false

	case *sdl.KeyboardEvent:
		act, ok := keyMapping[e.Keysym.Sym]
		if !ok {
			return
		}
		if act == action.EmulatorQuit {
			s.running = false
			return
		}
		switch {
		case e.Type == sdl.KEYDOWN && e.Repeat == 0:
			s.trigger(act, event.Press)
		case e.Type == sdl.KEYUP && action.GetInfo(act).Category == action.CategoryGameInput:
			s.trigger(act, event.Release)
		}

	case *sdl.WindowEvent:
		if e.Event == sdl.WINDOWEVENT_FOCUS_LOST && s.config.InputManager != nil {
			s.config.InputManager.ReleaseAll()
		}
	}
}

func (s *Backend) trigger(act action.Action, evt event.Type) {
	if s.config.InputManager != nil {
		s.config.InputManager.Trigger(act, evt)
	}
}

// keyMapping maps SDL2 keys to actions
var keyMapping = map[sdl.Keycode]action.Action{
	// Emulator controls
	sdl.K_ESCAPE: action.EmulatorQuit,
	sdl.K_SPACE:  action.EmulatorPauseToggle,
	sdl.K_r:      action.EmulatorReset,
	sdl.K_F2:     action.EmulatorPower,
	sdl.K_F5:     action.EmulatorSaveState,
	sdl.K_F7:     action.EmulatorLoadState,
	sdl.K_F9:     action.EmulatorSnapshot,
	sdl.K_f:      action.EmulatorFrameSkipToggle,

	// Controller
	sdl.K_RETURN: action.PadStart,
	sdl.K_RSHIFT: action.PadSelect,
	sdl.K_TAB:    action.PadSelect,
	sdl.K_z:      action.PadA,
	sdl.K_x:      action.PadB,
	sdl.K_a:      action.PadTurboA,
	sdl.K_s:      action.PadTurboB,
	sdl.K_UP:     action.PadUp,
	sdl.K_DOWN:   action.PadDown,
	sdl.K_LEFT:   action.PadLeft,
	sdl.K_RIGHT:  action.PadRight,
}

func (s *Backend) renderFrame(frame *video.FrameBuffer) error {
	pixels := frame.ToSlice()
	if len(pixels) == 0 {
		return nil
	}
	if err := s.texture.Update(nil, unsafe.Pointer(&pixels[0]), frame.Stride()); err != nil {
		return fmt.Errorf("failed to update texture: %w", err)
	}

	s.renderer.SetDrawColor(0, 0, 0, 0xff)
	s.renderer.Clear()
	s.renderer.Copy(s.texture, nil, nil)
	s.renderer.Present()
	return nil
}
