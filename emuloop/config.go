package emuloop

import "github.com/valerio/go-emuloop/emuloop/timing"

// Option names understood by SetOption. Any other name is passed through to
// the engine.
const (
	OptionAutoFrameSkip = "autoFrameSkip"
	OptionMaxFrameSkips = "maxFrameSkips"
	OptionSoundEnabled  = "soundEnabled"
)

// Config holds the scheduler's initial settings.
type Config struct {
	AutoFrameSkip bool
	MaxFrameSkips int
	SoundEnabled  bool
}

// DefaultConfig returns adaptive frame skipping with at most two skipped
// frames in a row, and sound off.
func DefaultConfig() Config {
	return Config{
		AutoFrameSkip: true,
		MaxFrameSkips: timing.DefaultMaxFrameSkips,
		SoundEnabled:  false,
	}
}
