//go:build !statsview

package statsview

import "log/slog"

const DefaultAddress = "localhost:12600"

// Launch logs that the stats server is not compiled in.
func Launch(addr string) func() {
	slog.Warn("Stats server not available - build with -tags statsview to enable")
	return func() {}
}

func Available() bool {
	return false
}
