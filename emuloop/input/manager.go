package input

import (
	"sync"

	"github.com/valerio/go-emuloop/emuloop/input/action"
	"github.com/valerio/go-emuloop/emuloop/input/event"
)

// Manager routes actions: controller actions update the shared KeyStates,
// everything else runs the callbacks registered with On.
type Manager struct {
	mu       sync.Mutex
	handlers map[action.Action]map[event.Type][]func()
	debounce *Handler
	keys     *KeyStates
}

func NewManager(keys *KeyStates) *Manager {
	return &Manager{
		handlers: make(map[action.Action]map[event.Type][]func()),
		debounce: NewHandler(),
		keys:     keys,
	}
}

// Keys returns the controller snapshot the manager writes to.
func (m *Manager) Keys() *KeyStates {
	return m.keys
}

// On registers a callback for a specific action and event type
func (m *Manager) On(act action.Action, evt event.Type, callback func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handlers[act] == nil {
		m.handlers[act] = make(map[event.Type][]func())
	}
	m.handlers[act][evt] = append(m.handlers[act][evt], callback)
}

// Trigger handles the given action and event type.
func (m *Manager) Trigger(act action.Action, evt event.Type) {
	m.mu.Lock()
	if !m.debounce.ProcessEvent(Event{Action: act, Type: evt}) {
		m.mu.Unlock()
		return
	}
	callbacks := append([]func(){}, m.handlers[act][evt]...)
	m.mu.Unlock()

	if mask := PadBits(act); mask != 0 && m.keys != nil {
		switch evt {
		case event.Press, event.Hold:
			m.keys.Press(mask)
		case event.Release:
			m.keys.Release(mask)
		}
	}

	// callbacks run outside the lock so they may call back into the manager
	for _, callback := range callbacks {
		callback()
	}
}

// ReleaseAll clears every controller bit, e.g. when a frontend loses focus.
func (m *Manager) ReleaseAll() {
	if m.keys != nil {
		m.keys.Set(0)
	}
}

// PadBits maps controller actions to their KeyStates bits.
func PadBits(act action.Action) uint32 {
	switch act {
	case action.PadA:
		return ButtonA
	case action.PadB:
		return ButtonB
	case action.PadTurboA:
		return TurboA
	case action.PadTurboB:
		return TurboB
	case action.PadStart:
		return ButtonStart
	case action.PadSelect:
		return ButtonSelect
	case action.PadUp:
		return DPadUp
	case action.PadDown:
		return DPadDown
	case action.PadLeft:
		return DPadLeft
	case action.PadRight:
		return DPadRight
	default:
		return 0
	}
}
