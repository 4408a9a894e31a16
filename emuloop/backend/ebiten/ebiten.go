//go:build ebiten

package ebiten

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/input/action"
	"github.com/valerio/go-emuloop/emuloop/input/event"
	"github.com/valerio/go-emuloop/emuloop/video"
)

const defaultScale = 3

// Available reports whether this build includes the Ebiten frontend.
func Available() bool { return true }

// Backend implements backend.Frontend as an Ebiten game. Ebiten owns the
// window loop; the emulation goroutine only hands frames over through a
// SharedFrame.
type Backend struct {
	config        backend.Config
	width, height int
	scale         int
	latest        *video.SharedFrame
	lastSeq       uint64

	screen     *ebiten.Image
	lastStatus string
	ctx        context.Context
	quit       bool
}

var (
	_ backend.Frontend = (*Backend)(nil)
	_ ebiten.Game      = (*Backend)(nil)
)

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Init(config backend.Config) error {
	b.config = config
	b.width, b.height = video.DefaultWidth, video.DefaultHeight
	if config.Width > 0 && config.Height > 0 {
		b.width, b.height = config.Width, config.Height
	}
	b.scale = config.Scale
	if b.scale <= 0 {
		b.scale = defaultScale
	}
	b.latest = video.NewSharedFrame(b.width, b.height)
	b.screen = ebiten.NewImage(b.width, b.height)

	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(b.width*b.scale, b.height*b.scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	slog.Info("Ebiten frontend initialized", "width", b.width, "height", b.height, "scale", b.scale)
	return nil
}

func (b *Backend) Size() (int, int) {
	return b.width, b.height
}

func (b *Backend) Present(frame *video.FrameBuffer) error {
	b.latest.Update(frame)
	return nil
}

func (b *Backend) LatestFrame() *video.FrameBuffer {
	return b.latest.Snapshot()
}

// Run blocks in ebiten.RunGame until the window closes or ctx is cancelled.
// It must be called from the main goroutine.
func (b *Backend) Run(ctx context.Context) error {
	b.ctx = ctx
	err := ebiten.RunGame(b)
	b.config.Callbacks.Quit()
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("ebiten: %w", err)
	}
	return nil
}

func (b *Backend) Cleanup() error {
	return nil
}

// Update is called by Ebiten at its tick rate.
func (b *Backend) Update() error {
	if b.quit || (b.ctx != nil && b.ctx.Err() != nil) {
		return ebiten.Termination
	}

	for key, act := range keyMapping {
		switch {
		case inpututil.IsKeyJustPressed(key):
			if act == action.EmulatorQuit {
				b.quit = true
				return ebiten.Termination
			}
			b.trigger(act, event.Press)
		case inpututil.IsKeyJustReleased(key) && action.GetInfo(act).Category == action.CategoryGameInput:
			b.trigger(act, event.Release)
		}
	}
	if !ebiten.IsFocused() && b.config.InputManager != nil {
		b.config.InputManager.ReleaseAll()
	}
	return nil
}

func (b *Backend) Draw(screen *ebiten.Image) {
	frame, seq := b.latest.Read()
	if seq != b.lastSeq {
		b.lastSeq = seq
		b.screen.WritePixels(frame.Image().Pix)
	}
	screen.DrawImage(b.screen, nil)

	if status := b.config.Callbacks.Status(); status != b.lastStatus {
		b.lastStatus = status
		ebiten.SetWindowTitle(b.config.Title + " - " + status)
	}
}

func (b *Backend) Layout(outsideWidth, outsideHeight int) (int, int) {
	return b.width, b.height
}

func (b *Backend) trigger(act action.Action, evt event.Type) {
	if b.config.InputManager != nil {
		b.config.InputManager.Trigger(act, evt)
	}
}

var keyMapping = map[ebiten.Key]action.Action{
	ebiten.KeyEscape: action.EmulatorQuit,
	ebiten.KeySpace:  action.EmulatorPauseToggle,
	ebiten.KeyP:      action.EmulatorPauseToggle,
	ebiten.KeyR:      action.EmulatorReset,
	ebiten.KeyF2:     action.EmulatorPower,
	ebiten.KeyF5:     action.EmulatorSaveState,
	ebiten.KeyF7:     action.EmulatorLoadState,
	ebiten.KeyF9:     action.EmulatorSnapshot,
	ebiten.KeyF:      action.EmulatorFrameSkipToggle,

	ebiten.KeyEnter:      action.PadStart,
	ebiten.KeyShiftRight: action.PadSelect,
	ebiten.KeyTab:        action.PadSelect,
	ebiten.KeyZ:          action.PadA,
	ebiten.KeyX:          action.PadB,
	ebiten.KeyA:          action.PadTurboA,
	ebiten.KeyS:          action.PadTurboB,
	ebiten.KeyArrowUp:    action.PadUp,
	ebiten.KeyArrowDown:  action.PadDown,
	ebiten.KeyArrowLeft:  action.PadLeft,
	ebiten.KeyArrowRight: action.PadRight,
}
