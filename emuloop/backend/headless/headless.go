package headless

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/video"
)

// Backend is a frontend without a display, for automated testing and batch
// processing. It counts presented frames, saves PNG snapshots and asks to
// quit after a fixed number of frames.
type Backend struct {
	config         backend.Config
	width, height  int
	frameCount     atomic.Int64
	maxFrames      int64
	snapshotConfig SnapshotConfig
	latest         *video.SharedFrame

	quitOnce sync.Once
	finished chan struct{}
}

var (
	_ backend.Frontend    = (*Backend)(nil)
	_ backend.FrameSource = (*Backend)(nil)
)

// SnapshotConfig holds configuration for frame snapshots
type SnapshotConfig struct {
	Enabled   bool
	Interval  int    // Save snapshot every N frames
	Directory string // Directory to save snapshots
	BaseName  string // Program name for snapshot filenames
}

// New creates a headless frontend that finishes after maxFrames presented
// frames. A maxFrames of zero runs until the context is cancelled.
func New(maxFrames int, snapshotConfig SnapshotConfig) *Backend {
	return &Backend{
		width:          video.DefaultWidth,
		height:         video.DefaultHeight,
		maxFrames:      int64(maxFrames),
		snapshotConfig: snapshotConfig,
		finished:       make(chan struct{}),
	}
}

func (h *Backend) Init(config backend.Config) error {
	h.config = config
	if config.Width > 0 && config.Height > 0 {
		h.width, h.height = config.Width, config.Height
	}
	h.latest = video.NewSharedFrame(h.width, h.height)

	slog.Info("Running headless mode",
		"frames", h.maxFrames,
		"snapshot_interval", h.snapshotConfig.Interval,
		"snapshot_dir", h.snapshotConfig.Directory)
	return nil
}

func (h *Backend) Size() (int, int) {
	return h.width, h.height
}

// Present records a frame. It runs on the emulation goroutine.
func (h *Backend) Present(frame *video.FrameBuffer) error {
	if h.latest == nil {
		return fmt.Errorf("headless backend not initialized")
	}
	n := h.frameCount.Add(1)
	if h.maxFrames > 0 && n > h.maxFrames {
		return nil
	}
	h.latest.Update(frame)

	// Save snapshot if needed
	if h.snapshotConfig.Enabled && n%int64(h.snapshotConfig.Interval) == 0 {
		h.saveSnapshot(frame, n)
	}

	// Log progress periodically
	if n%60 == 0 {
		slog.Debug("Frame progress", "completed", n, "total", h.maxFrames)
	}

	if h.maxFrames > 0 && n == h.maxFrames {
		// Save final snapshot if enabled and we haven't just saved one
		if h.snapshotConfig.Enabled && n%int64(h.snapshotConfig.Interval) != 0 {
			h.saveSnapshot(frame, n)
		}

		if h.snapshotConfig.Enabled {
			slog.Info("Headless execution completed", "frames", h.maxFrames, "png_snapshots_saved_to", h.snapshotConfig.Directory)
		} else {
			slog.Info("Headless execution completed", "frames", h.maxFrames)
		}
		h.finish()
	}
	return nil
}

// LatestFrame returns a copy of the last presented frame, or nil.
func (h *Backend) LatestFrame() *video.FrameBuffer {
	if h.latest == nil {
		return nil
	}
	return h.latest.Snapshot()
}

// Frames returns the number of frames presented so far.
func (h *Backend) Frames() int {
	return int(h.frameCount.Load())
}

// Run blocks until the frame budget is reached or ctx is cancelled.
func (h *Backend) Run(ctx context.Context) error {
	select {
	case <-h.finished:
	case <-ctx.Done():
	}
	return nil
}

func (h *Backend) Cleanup() error {
	return nil
}

func (h *Backend) finish() {
	h.quitOnce.Do(func() {
		close(h.finished)
		h.config.Callbacks.Quit()
	})
}

// CreateSnapshotConfig creates a snapshot configuration from CLI parameters
func CreateSnapshotConfig(interval int, directory, programPath string) (SnapshotConfig, error) {
	config := SnapshotConfig{
		Enabled:  interval > 0,
		Interval: interval,
	}

	if !config.Enabled {
		return config, nil
	}

	// Set up snapshot directory
	if directory == "" {
		tempDir, err := os.MkdirTemp("", "emuloop-snapshots-*")
		if err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = tempDir
	} else {
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return config, fmt.Errorf("failed to create snapshot directory: %w", err)
		}
		config.Directory = directory
	}

	name := filepath.Base(programPath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	config.BaseName = strings.NewReplacer(":", "_", string(filepath.Separator), "_").Replace(name)

	return config, nil
}

func (h *Backend) saveSnapshot(frame *video.FrameBuffer, n int64) {
	pngBaseName := fmt.Sprintf("%s_frame_%d", h.snapshotConfig.BaseName, n)

	if _, err := video.SavePNG(frame, pngBaseName, h.snapshotConfig.Directory); err != nil {
		slog.Error("Failed to save PNG snapshot", "frame", n, "error", err)
	}
}
