package timing

import "time"

// DefaultFPS is the presentation rate used when no session dictates one.
const DefaultFPS = 60

// FrameDuration returns the duration of a single frame at fps.
// Non-positive rates fall back to DefaultFPS.
func FrameDuration(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
