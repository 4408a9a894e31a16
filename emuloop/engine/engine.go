// Package engine defines the contract between the scheduler and the
// emulation core that simulates a machine.
package engine

import (
	"errors"

	"github.com/valerio/go-emuloop/emuloop/video"
)

// ErrUnsupported is returned by engines for operations they do not offer.
var ErrUnsupported = errors.New("operation not supported by engine")

// Session describes a loaded program. The scheduler holds at most one.
type Session struct {
	Name string `json:"name"`
	// FPS is the machine's native frame rate, e.g. 60 for NTSC and 50 for PAL.
	FPS           int `json:"fps"`
	SoundRate     int `json:"sound_rate"`
	SoundBits     int `json:"sound_bits"`
	SoundChannels int `json:"sound_channels"`
}

// Host is implemented by the scheduler and handed to the engine at
// initialization. All methods are called from within RunFrame.
type Host interface {
	// LockSurface returns the surface to draw into, or false when no
	// presentation target is attached.
	LockSurface() (*video.FrameBuffer, bool)
	// UnlockSurface presents the surface returned by LockSurface.
	UnlockSurface(fb *video.FrameBuffer)
	// PlayAudio queues signed 16 bit samples, interleaved by channel.
	PlayAudio(samples []int16)
	// KeyStates returns the current controller bits, see the input package.
	KeyStates() uint32
}

// Engine simulates a machine one frame at a time.
type Engine interface {
	Initialize(host Host) error
	LoadSession(path string) (*Session, error)
	UnloadSession()
	// RunFrame advances one logical frame. When skip is true the frame is
	// simulated but not presented.
	RunFrame(skip bool)
	Reset()
	Power()
	SaveState(path string) error
	LoadState(path string) error
	SetOption(name, value string)
	Close() error
}

// LightGun is implemented by engines that emulate a light gun.
type LightGun interface {
	FireLightGun(x, y int)
}
