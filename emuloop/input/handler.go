package input

import (
	"time"

	"github.com/valerio/go-emuloop/emuloop/input/action"
	"github.com/valerio/go-emuloop/emuloop/input/event"
)

// Event is a single input occurrence reported by a frontend.
type Event struct {
	Action action.Action
	Type   event.Type
}

// Handler debounces emulator commands. Controller input is never debounced
// since games rely on rapid presses.
type Handler struct {
	lastActionTime map[action.Action]time.Time
	debounceDelay  time.Duration
	now            func() time.Time
}

func NewHandler() *Handler {
	return &Handler{
		lastActionTime: make(map[action.Action]time.Time),
		debounceDelay:  300 * time.Millisecond,
		now:            time.Now,
	}
}

// ProcessEvent returns true if the event should be handled, false if it was
// debounced.
func (h *Handler) ProcessEvent(evt Event) bool {
	if evt.Type != event.Press {
		return true
	}
	if action.GetInfo(evt.Action).Category != action.CategoryEmulator {
		return true
	}

	now := h.now()
	if lastTime, exists := h.lastActionTime[evt.Action]; exists {
		if now.Sub(lastTime) < h.debounceDelay {
			return false
		}
	}
	h.lastActionTime[evt.Action] = now
	return true
}
