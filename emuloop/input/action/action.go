package action

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Controller
	PadA Action = iota
	PadB
	PadTurboA
	PadTurboB
	PadStart
	PadSelect
	PadUp
	PadDown
	PadLeft
	PadRight

	// Emulator features
	EmulatorPauseToggle
	EmulatorReset
	EmulatorPower
	EmulatorSaveState
	EmulatorLoadState
	EmulatorSnapshot
	EmulatorFrameSkipToggle
	EmulatorQuit
)

// Category groups actions by how frontends deliver them.
type Category int

const (
	// CategoryGameInput actions are held; they map to controller bits.
	CategoryGameInput Category = iota
	// CategoryEmulator actions are one-shot commands, debounced.
	CategoryEmulator
)

// Info describes an action.
type Info struct {
	Category    Category
	Description string
}

var infos = map[Action]Info{
	PadA:      {CategoryGameInput, "A"},
	PadB:      {CategoryGameInput, "B"},
	PadTurboA: {CategoryGameInput, "Turbo A"},
	PadTurboB: {CategoryGameInput, "Turbo B"},
	PadStart:  {CategoryGameInput, "Start"},
	PadSelect: {CategoryGameInput, "Select"},
	PadUp:     {CategoryGameInput, "Up"},
	PadDown:   {CategoryGameInput, "Down"},
	PadLeft:   {CategoryGameInput, "Left"},
	PadRight:  {CategoryGameInput, "Right"},

	EmulatorPauseToggle:     {CategoryEmulator, "Pause/Resume"},
	EmulatorReset:           {CategoryEmulator, "Reset"},
	EmulatorPower:           {CategoryEmulator, "Power cycle"},
	EmulatorSaveState:       {CategoryEmulator, "Save state"},
	EmulatorLoadState:       {CategoryEmulator, "Load state"},
	EmulatorSnapshot:        {CategoryEmulator, "Snapshot"},
	EmulatorFrameSkipToggle: {CategoryEmulator, "Toggle auto frame skip"},
	EmulatorQuit:            {CategoryEmulator, "Quit"},
}

// GetInfo returns the description of act.
func GetInfo(act Action) Info {
	if info, ok := infos[act]; ok {
		return info
	}
	return Info{Category: CategoryEmulator, Description: "Unknown"}
}

func (a Action) String() string {
	return GetInfo(a).Description
}
