package timing

import "time"

// Frame skip bounds. MaxFrameSkips values outside this range are clamped.
const (
	MinFrameSkips        = 2
	MaxFrameSkipsLimit   = 99
	DefaultMaxFrameSkips = 2
)

// Action is the presentation decision for a single tick. The frame is
// always simulated; Skip only suppresses presentation.
type Action int

const (
	Render Action = iota
	Skip
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

// PacingConfig selects the frame skip policy. AutoFrameSkip picks exactly
// one algorithm: adaptive catch-up when true, fixed cadence when false.
type PacingConfig struct {
	AutoFrameSkip bool `json:"auto_frame_skip"`
	MaxFrameSkips int  `json:"max_frame_skips"`
}

func DefaultPacingConfig() PacingConfig {
	return PacingConfig{AutoFrameSkip: true, MaxFrameSkips: DefaultMaxFrameSkips}
}

// ClampFrameSkips bounds n to [MinFrameSkips, MaxFrameSkipsLimit].
func ClampFrameSkips(n int) int {
	if n < MinFrameSkips {
		return MinFrameSkips
	}
	if n > MaxFrameSkipsLimit {
		return MaxFrameSkipsLimit
	}
	return n
}

// Clamp returns a copy of c with MaxFrameSkips bounded.
func (c PacingConfig) Clamp() PacingConfig {
	c.MaxFrameSkips = ClampFrameSkips(c.MaxFrameSkips)
	return c
}

// FrameContext is the pacing state carried between ticks of one run of the
// frame loop. Tick values are offsets from the Timer epoch; pacing
// arithmetic works in whole milliseconds.
type FrameContext struct {
	FPS               int
	InitialTicks      time.Duration
	LastTicks         time.Duration
	VirtualFrameCount int64
	FrameSkipCounter  int
}

// NewFrameContext starts a fresh pacing run at now.
func NewFrameContext(fps int, now time.Duration) FrameContext {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return FrameContext{
		FPS:          fps,
		InitialTicks: now,
		LastTicks:    now,
	}
}

// FrameTime is the nominal length of one frame, truncated to whole
// milliseconds.
func (c FrameContext) FrameTime() time.Duration {
	return time.Duration(1000/c.FPS) * time.Millisecond
}

// RealFrameCount is the number of frames that should have elapsed by now.
func (c FrameContext) RealFrameCount(now time.Duration) int64 {
	return (now.Milliseconds() - c.InitialTicks.Milliseconds()) * int64(c.FPS) / 1000
}

// Decision is the result of pacing one tick.
type Decision struct {
	Action Action
	// Sleep is how long to wait before simulating; zero unless the loop is
	// ahead of the wall clock.
	Sleep   time.Duration
	Context FrameContext
}

// Skip reports whether presentation should be skipped for this tick.
func (d Decision) Skip() bool {
	return d.Action == Skip
}

// Pace decides what the tick at now should do. It has no side effects: the
// caller applies the sleep, runs the frame and feeds Decision.Context back
// in on the next tick.
func Pace(now time.Duration, ctx FrameContext, cfg PacingConfig) Decision {
	if ctx.FPS <= 0 {
		ctx.FPS = DefaultFPS
	}
	maxSkips := ClampFrameSkips(cfg.MaxFrameSkips)

	var sleep time.Duration
	realFrames := ctx.RealFrameCount(now)
	ctx.VirtualFrameCount++

	if realFrames >= ctx.VirtualFrameCount {
		behind := realFrames > ctx.VirtualFrameCount
		if behind && cfg.AutoFrameSkip && ctx.FrameSkipCounter < maxSkips {
			ctx.FrameSkipCounter++
		} else {
			ctx.VirtualFrameCount = realFrames
			if cfg.AutoFrameSkip {
				ctx.FrameSkipCounter = 0
			}
		}
	} else {
		delta := time.Duration(now.Milliseconds()-ctx.LastTicks.Milliseconds()) * time.Millisecond
		if frameTime := ctx.FrameTime(); delta < frameTime {
			sleep = frameTime - delta
		}
	}

	if !cfg.AutoFrameSkip {
		ctx.FrameSkipCounter++
		if ctx.FrameSkipCounter > maxSkips {
			ctx.FrameSkipCounter = 0
		}
	}

	ctx.LastTicks = now

	action := Render
	if ctx.FrameSkipCounter > 0 {
		action = Skip
	}
	return Decision{Action: action, Sleep: sleep, Context: ctx}
}
