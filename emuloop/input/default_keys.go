package input

import "github.com/valerio/go-emuloop/emuloop/input/action"

// DefaultKeyMap provides default key mappings that work across frontends.
// Frontends can use these mappings as a base and override/extend as needed.
var DefaultKeyMap = map[string]action.Action{
	// Controller
	"z":     action.PadA,
	"x":     action.PadB,
	"a":     action.PadTurboA,
	"s":     action.PadTurboB,
	"Enter": action.PadStart,
	"Shift": action.PadSelect,
	"Tab":   action.PadSelect,
	"Up":    action.PadUp,
	"Down":  action.PadDown,
	"Left":  action.PadLeft,
	"Right": action.PadRight,

	// Alternative d-pad keys
	"i": action.PadUp,
	"k": action.PadDown,
	"j": action.PadLeft,
	"l": action.PadRight,

	// Emulator controls
	"Space":  action.EmulatorPauseToggle,
	"p":      action.EmulatorPauseToggle,
	"r":      action.EmulatorReset,
	"F2":     action.EmulatorPower,
	"F5":     action.EmulatorSaveState,
	"F7":     action.EmulatorLoadState,
	"F9":     action.EmulatorSnapshot,
	"f":      action.EmulatorFrameSkipToggle,
	"Escape": action.EmulatorQuit,
	"q":      action.EmulatorQuit,
}

// GetDefaultMapping returns the default action for a key, if one exists
func GetDefaultMapping(key string) (action.Action, bool) {
	act, ok := DefaultKeyMap[key]
	return act, ok
}
