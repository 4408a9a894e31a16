package timing

import "time"

// TickerLimiter paces frontend redraws with a time.Ticker. It is less
// accurate than the pacer's sleeps but good enough for UI loops.
type TickerLimiter struct {
	ticker *time.Ticker
	ch     <-chan time.Time
}

func NewTickerLimiter(fps int) *TickerLimiter {
	ticker := time.NewTicker(FrameDuration(fps))
	return &TickerLimiter{ticker: ticker, ch: ticker.C}
}

// C exposes the tick channel so callers can select on it alongside a context.
func (t *TickerLimiter) C() <-chan time.Time {
	return t.ch
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
