package emuloop

// State is the scheduler's position in the handshake between the control
// side and the emulation goroutine. Only the emulation goroutine leaves
// RequestPause and RequestRun; only control calls enter them or Quit. Quit is
// never left.
type State int

const (
	Running State = iota
	Paused
	RequestPause
	RequestRun
	Quit
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case RequestPause:
		return "request-pause"
	case RequestRun:
		return "request-run"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// MarshalText lets State appear by name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
