package backend

import (
	"context"

	"github.com/valerio/go-emuloop/emuloop/input"
	"github.com/valerio/go-emuloop/emuloop/video"
)

// Target is where the scheduler presents frames. Present is called from the
// emulation goroutine, once per rendered frame, with the surface the engine
// just finished drawing. Implementations must copy what they need before
// returning and must not block on the control side of the scheduler.
type Target interface {
	// Size is the surface size the engine should draw at.
	Size() (width, height int)
	Present(frame *video.FrameBuffer) error
}

// FrameSource is implemented by targets that keep the last presented frame.
type FrameSource interface {
	LatestFrame() *video.FrameBuffer
}

// Frontend represents a complete platform (rendering + input).
// Frontends are responsible for:
// - Showing presented frames on their specific output (terminal, window)
// - Translating platform-specific input events to Actions via InputManager
// - Running the UI loop on the calling goroutine until quit
type Frontend interface {
	Target

	// Init configures the frontend with the provided configuration.
	// This is a required step before calling Run.
	Init(config Config) error

	// Run processes platform events and redraws until ctx is cancelled or
	// the user asks to quit.
	Run(ctx context.Context) error

	// Cleanup resources when shutting down
	Cleanup() error
}

// Config holds configuration for frontends
type Config struct {
	Title        string
	Width        int
	Height       int
	Scale        int
	Callbacks    Callbacks      // Callbacks for frontend communication
	InputManager *input.Manager // Shared input manager for unified input handling
}

// Callbacks allows frontends to communicate with the emulator. They may be
// invoked from the emulation goroutine and must not block.
type Callbacks struct {
	// OnQuit is called when the frontend requests shutdown (e.g., window close)
	OnQuit func()

	// StatusLine returns a short status string to display (optional)
	StatusLine func() string
}

// Quit invokes OnQuit if set.
func (c Callbacks) Quit() {
	if c.OnQuit != nil {
		c.OnQuit()
	}
}

// Status returns the status line, or an empty string.
func (c Callbacks) Status() string {
	if c.StatusLine != nil {
		return c.StatusLine()
	}
	return ""
}
