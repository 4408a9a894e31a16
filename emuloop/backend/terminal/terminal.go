// Package terminal is a text mode frontend built on tcell. Frames are drawn
// with half block characters in true colour next to a log panel.
package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/input"
	"github.com/valerio/go-emuloop/emuloop/input/action"
	"github.com/valerio/go-emuloop/emuloop/input/event"
	"github.com/valerio/go-emuloop/emuloop/timing"
	"github.com/valerio/go-emuloop/emuloop/video"
)

const (
	defaultWidth  = 128
	defaultHeight = 96
	redrawFPS     = 30

	minLogWidth = 20

	// Terminals only report key presses, so a key counts as held until it
	// has not repeated for keyTimeout.
	keyTimeout = 100 * time.Millisecond
)

// Backend implements backend.Frontend on a terminal.
type Backend struct {
	screen    tcell.Screen
	logBuffer *LogBuffer
	logLevel  slog.Level
	config    backend.Config
	latest    *video.SharedFrame
	lastSeq   uint64

	width, height int

	keyStates  map[action.Action]time.Time // last time each key was seen
	activeKeys map[action.Action]bool      // keys held at the previous poll
	quit       bool
}

var _ backend.Frontend = (*Backend)(nil)

func New() *Backend {
	return &Backend{logLevel: slog.LevelInfo}
}

// NewWithScreen uses an existing screen, e.g. a tcell simulation screen.
func NewWithScreen(screen tcell.Screen) *Backend {
	b := New()
	b.screen = screen
	return b
}

// Init initializes the screen and routes the default logger into the log
// panel.
func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.width, t.height = defaultWidth, defaultHeight
	if config.Width > 0 && config.Height > 0 {
		t.width, t.height = config.Width, config.Height
	}
	t.latest = video.NewSharedFrame(t.width, t.height)
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	if t.screen == nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %w", err)
		}
		t.screen = screen
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	t.logBuffer = NewLogBuffer(200)
	slog.SetDefault(slog.New(NewLogHandler(t.logBuffer, slog.LevelDebug)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	slog.Info("Terminal frontend initialized", "width", t.width, "height", t.height)
	return nil
}

func (t *Backend) Size() (int, int) {
	return t.width, t.height
}

// Present stores the frame for the next redraw. It runs on the emulation
// goroutine and never touches the screen.
func (t *Backend) Present(frame *video.FrameBuffer) error {
	t.latest.Update(frame)
	return nil
}

// LatestFrame returns a copy of the last presented frame, or nil.
func (t *Backend) LatestFrame() *video.FrameBuffer {
	return t.latest.Snapshot()
}

// Run polls input and redraws until ctx is cancelled or the user quits.
func (t *Backend) Run(ctx context.Context) error {
	limiter := timing.NewTickerLimiter(redrawFPS)
	defer limiter.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-limiter.C():
		}

		t.Update(time.Now())
		if t.quit {
			t.config.Callbacks.Quit()
			return nil
		}
	}
}

// Update processes pending input and redraws once.
func (t *Backend) Update(now time.Time) {
	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
	t.updateHeldKeys(now)

	frame, seq := t.latest.Read()
	t.render(frame, seq)
	t.screen.Show()
}

func (t *Backend) Cleanup() error {
	if t.screen != nil {
		slog.Info("Cleaning up terminal frontend")
		t.screen.Fini()
		t.screen = nil
	}
	return nil
}

func (t *Backend) trigger(act action.Action, evt event.Type) {
	if t.config.InputManager != nil {
		t.config.InputManager.Trigger(act, evt)
	}
}

// updateHeldKeys turns key repeats into Press, Hold and Release events.
func (t *Backend) updateHeldKeys(now time.Time) {
	current := make(map[action.Action]bool)

	for act, last := range t.keyStates {
		if now.Sub(last) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}
		current[act] = true
		if t.activeKeys[act] {
			t.trigger(act, event.Hold)
		} else {
			slog.Debug("Key press", "action", act)
			t.trigger(act, event.Press)
		}
	}

	for act := range t.activeKeys {
		if !current[act] {
			slog.Debug("Key release", "action", act)
			t.trigger(act, event.Release)
		}
	}
	t.activeKeys = current
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	var act action.Action
	var ok bool

	switch ev.Key() {
	case tcell.KeyCtrlC:
		act, ok = action.EmulatorQuit, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case '+', '=':
			t.changeLogLevel(1)
			return
		case '-', '_':
			t.changeLogLevel(-1)
			return
		}
		act, ok = runeMapping[ev.Rune()]
	default:
		act, ok = keyMapping[ev.Key()]
	}
	if !ok {
		return
	}

	if action.GetInfo(act).Category != action.CategoryGameInput {
		if act == action.EmulatorQuit {
			t.quit = true
			return
		}
		t.trigger(act, event.Press)
		return
	}

	if isDirection(act) {
		// terminals cannot report two held arrows; keep directions exclusive
		for _, d := range []action.Action{action.PadUp, action.PadDown, action.PadLeft, action.PadRight} {
			delete(t.keyStates, d)
		}
	}
	t.keyStates[act] = now
}

func isDirection(act action.Action) bool {
	switch act {
	case action.PadUp, action.PadDown, action.PadLeft, action.PadRight:
		return true
	}
	return false
}

// tcellKeyNames converts tcell keys to key names used in default mappings
var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyTab:    "Tab",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
	tcell.KeyF2:     "F2",
	tcell.KeyF5:     "F5",
	tcell.KeyF7:     "F7",
	tcell.KeyF9:     "F9",
}

var (
	keyMapping  = buildKeyMapping()
	runeMapping = buildRuneMapping()
)

func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)
	for key, name := range tcellKeyNames {
		if act, ok := input.GetDefaultMapping(name); ok {
			mapping[key] = act
		}
	}
	return mapping
}

func buildRuneMapping() map[rune]action.Action {
	mapping := make(map[rune]action.Action)
	for name, act := range input.DefaultKeyMap {
		r := []rune(name)
		if len(r) == 1 {
			mapping[r[0]] = act
		}
	}
	if act, ok := input.GetDefaultMapping("Space"); ok {
		mapping[' '] = act
	}
	return mapping
}

func (t *Backend) changeLogLevel(direction int) {
	old := t.logLevel
	next := t.logLevel - slog.Level(4*direction)
	if next >= slog.LevelDebug && next <= slog.LevelError {
		t.logLevel = next
	}
	if old != t.logLevel {
		slog.Info("Log filter changed", "from", old, "to", t.logLevel)
	}
}

func (t *Backend) render(frame *video.FrameBuffer, seq uint64) {
	termWidth, termHeight := t.screen.Size()
	frameRows := (t.height + 1) / 2

	if termWidth < t.width+2 || termHeight < frameRows+2 {
		t.screen.Clear()
		style := tcell.StyleDefault.Foreground(tcell.ColorRed)
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", t.width+2, frameRows+2)
		drawText(t.screen, 0, termHeight/2, termWidth, msg, style)
		return
	}

	t.screen.Clear()
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	title := " " + t.config.Title + " "
	if seq == 0 {
		title += "(waiting for frames) "
	}
	drawText(t.screen, 1, 0, t.width, title, titleStyle)

	t.drawFrame(frame, 1)

	dividerX := t.width + 1
	border := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	for y := 0; y < termHeight-1; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, border)
	}
	if logWidth := termWidth - dividerX - 2; logWidth >= minLogWidth {
		t.drawLogs(dividerX+2, 1, logWidth, termHeight-2)
	}

	status := t.config.Callbacks.Status()
	drawText(t.screen, 0, termHeight-1, termWidth, status, tcell.StyleDefault.Reverse(true))
}

// drawFrame packs two pixel rows into each cell: the upper half block takes
// the top pixel as foreground and the bottom pixel as background.
func (t *Backend) drawFrame(frame *video.FrameBuffer, top int) {
	w := min(frame.Width(), t.width)
	h := min(frame.Height(), t.height)

	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			fg := cellColor(frame.GetPixel(x, y))
			bg := tcell.ColorBlack
			if y+1 < h {
				bg = cellColor(frame.GetPixel(x, y+1))
			}
			style := tcell.StyleDefault.Foreground(fg).Background(bg)
			t.screen.SetContent(x, top+y/2, '▀', nil, style)
		}
	}
}

func cellColor(c video.Color565) tcell.Color {
	return tcell.NewHexColor(int32(c.RGB888()))
}

func (t *Backend) drawLogs(x, y, width, height int) {
	debugStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	infoStyle := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	warnStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	errStyle := tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)

	for i, entry := range t.logBuffer.Recent(height, t.logLevel) {
		style := infoStyle
		switch {
		case entry.Level >= slog.LevelError:
			style = errStyle
		case entry.Level >= slog.LevelWarn:
			style = warnStyle
		case entry.Level < slog.LevelInfo:
			style = debugStyle
		}
		text := FormatLogEntry(entry)
		if len(text) > width && width > 3 {
			text = text[:width-3] + "..."
		}
		drawText(t.screen, x, y+i, width, text, style)
	}
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		if i >= width {
			return
		}
		screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}
