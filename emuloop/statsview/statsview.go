//go:build statsview

// Package statsview serves live runtime charts (heap, goroutines, GC) while
// the emulator runs. It is only compiled in with the statsview build tag.
package statsview

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const DefaultAddress = "localhost:12600"

const url = "/debug/statsview"

// Launch starts the chart server on addr and returns a function that stops
// it.
func Launch(addr string) func() {
	if addr == "" {
		addr = DefaultAddress
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()

	go func() {
		if err := mgr.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Warn("Stats server stopped", "error", err)
		}
	}()

	slog.Info("Stats server available", "url", "http://"+addr+url)
	return mgr.Stop
}

func Available() bool {
	return true
}
