package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/valerio/go-emuloop/emuloop"
	"github.com/valerio/go-emuloop/emuloop/audio"
	"github.com/valerio/go-emuloop/emuloop/audio/otosink"
	"github.com/valerio/go-emuloop/emuloop/audio/wavsink"
	"github.com/valerio/go-emuloop/emuloop/backend"
	"github.com/valerio/go-emuloop/emuloop/backend/ebiten"
	"github.com/valerio/go-emuloop/emuloop/backend/headless"
	"github.com/valerio/go-emuloop/emuloop/backend/sdl2"
	"github.com/valerio/go-emuloop/emuloop/backend/terminal"
	"github.com/valerio/go-emuloop/emuloop/engine/testpattern"
	"github.com/valerio/go-emuloop/emuloop/input"
	"github.com/valerio/go-emuloop/emuloop/input/action"
	"github.com/valerio/go-emuloop/emuloop/input/event"
	"github.com/valerio/go-emuloop/emuloop/remote"
	"github.com/valerio/go-emuloop/emuloop/statsview"
	"github.com/valerio/go-emuloop/emuloop/video"
)

func runEmulator(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	programPath := c.String("rom")
	if programPath == "" {
		programPath = testpattern.BuiltinPrefix + "ntsc"
		if c.NArg() > 0 {
			programPath = c.Args().Get(0)
		}
	}

	options, err := parseOptions(c.StringSlice("option"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.Bool("statsview") {
		stopStats := statsview.Launch(statsview.DefaultAddress)
		defer stopStats()
	}

	frontend, err := newFrontend(c, programPath)
	if err != nil {
		return err
	}

	// the frontend and the scheduler share one controller snapshot
	keys := &input.KeyStates{}
	manager := input.NewManager(keys)

	var sched *emuloop.Scheduler
	err = frontend.Init(backend.Config{
		Title:        "emuloop",
		Width:        c.Int("width"),
		Height:       c.Int("height"),
		Scale:        c.Int("scale"),
		InputManager: manager,
		Callbacks: backend.Callbacks{
			OnQuit: cancel,
			StatusLine: func() string {
				if sched == nil {
					return ""
				}
				return statusLine(sched.Stats())
			},
		},
	})
	if err != nil {
		return err
	}
	cleanupFrontend := sync.OnceValue(frontend.Cleanup)
	defer cleanupFrontend()

	// frontends may redirect the default logger, so take it only now
	opts := []emuloop.Option{
		emuloop.WithConfig(configFromFlags(c)),
		emuloop.WithKeyStates(keys),
		emuloop.WithLogger(slog.Default()),
	}
	if sink := newAudioSink(c); sink != nil {
		opts = append(opts, emuloop.WithAudioSink(sink))
	}

	sched, err = emuloop.New(testpattern.New(), opts...)
	if err != nil {
		return err
	}
	defer sched.Close()

	if err := sched.SetOption(emuloop.OptionSoundEnabled, strconv.FormatBool(c.Bool("sound"))); err != nil {
		return err
	}
	for _, opt := range options {
		if err := sched.SetOption(opt.name, opt.value); err != nil {
			return err
		}
	}

	statePath := c.String("state-file")
	if statePath == "" {
		statePath = stateFileFor(programPath)
	}
	registerActions(manager, sched, frontend, statePath, cancel)

	sched.AttachTarget(frontend)
	if _, err := sched.LoadSession(programPath); err != nil {
		return err
	}
	sched.Resume()

	if addr := c.String("listen"); addr != "" {
		var frames backend.FrameSource
		if fs, ok := frontend.(backend.FrameSource); ok {
			frames = fs
		}
		srv := remote.New(addr, sched, frames)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Control server failed", "error", err)
			}
		}()
		slog.Info("Control server listening", "addr", addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	start := time.Now()
	runErr := frontend.Run(ctx)

	sched.Pause()
	stats := sched.Stats()
	if err := sched.Close(); err != nil {
		slog.Warn("Failed to close scheduler", "error", err)
	}
	if err := cleanupFrontend(); err != nil {
		slog.Warn("Failed to clean up frontend", "error", err)
	}
	fmt.Fprintln(os.Stderr, renderSummary(stats, time.Since(start)))

	return runErr
}

func newFrontend(c *cli.Context, programPath string) (backend.Frontend, error) {
	switch name := c.String("frontend"); name {
	case "terminal":
		return terminal.New(), nil
	case "headless":
		cfg, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), programPath)
		if err != nil {
			return nil, err
		}
		return headless.New(c.Int("frames"), cfg), nil
	case "sdl2":
		if !sdl2.Available() {
			return nil, errors.New("sdl2 frontend not compiled in, build with -tags sdl2")
		}
		return sdl2.New(), nil
	case "ebiten":
		if !ebiten.Available() {
			return nil, errors.New("ebiten frontend not compiled in, build with -tags ebiten")
		}
		return ebiten.New(), nil
	default:
		return nil, fmt.Errorf("unknown frontend %q", name)
	}
}

func newAudioSink(c *cli.Context) audio.Sink {
	if path := c.String("wav"); path != "" {
		return wavsink.New(path)
	}
	if c.Bool("speaker") {
		if !otosink.Available() {
			slog.Warn("Speaker output not compiled in, build with -tags oto")
			return nil
		}
		return otosink.New(1.0)
	}
	return nil
}

type option struct {
	name, value string
}

// parseOptions splits name=value pairs.
func parseOptions(raw []string) ([]option, error) {
	opts := make([]option, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid option %q, expected name=value", r)
		}
		opts = append(opts, option{name: name, value: strings.TrimSpace(value)})
	}
	return opts, nil
}

func stateFileFor(programPath string) string {
	if strings.HasPrefix(programPath, testpattern.BuiltinPrefix) {
		return strings.TrimPrefix(programPath, testpattern.BuiltinPrefix) + ".state"
	}
	return strings.TrimSuffix(programPath, filepath.Ext(programPath)) + ".state"
}

// registerActions binds emulator actions to scheduler controls. Callbacks
// run on the frontend's goroutine, never on the emulation goroutine.
func registerActions(m *input.Manager, sched *emuloop.Scheduler, frames backend.Target, statePath string, quit func()) {
	m.On(action.EmulatorPauseToggle, event.Press, func() {
		if sched.Paused() {
			sched.Resume()
			slog.Info("Resumed")
		} else {
			sched.Pause()
			slog.Info("Paused")
		}
	})
	m.On(action.EmulatorReset, event.Press, func() {
		sched.Reset()
		slog.Info("Reset")
	})
	m.On(action.EmulatorPower, event.Press, func() {
		sched.Power()
		slog.Info("Power cycled")
	})
	m.On(action.EmulatorSaveState, event.Press, func() {
		if err := sched.SaveState(statePath); err != nil {
			slog.Error("Save state failed", "error", err)
		}
	})
	m.On(action.EmulatorLoadState, event.Press, func() {
		if err := sched.LoadState(statePath); err != nil {
			slog.Error("Load state failed", "error", err)
		}
	})
	m.On(action.EmulatorFrameSkipToggle, event.Press, func() {
		cfg := sched.PacingConfig()
		sched.SetPacingConfig(!cfg.AutoFrameSkip, cfg.MaxFrameSkips)
		slog.Info("Frame skip changed", "auto", !cfg.AutoFrameSkip, "max", cfg.MaxFrameSkips)
	})
	m.On(action.EmulatorSnapshot, event.Press, func() {
		fs, ok := frames.(backend.FrameSource)
		if !ok {
			slog.Warn("Snapshots not supported by this frontend")
			return
		}
		if _, err := video.SavePNG(fs.LatestFrame(), "emuloop_snapshot", ""); err != nil {
			slog.Error("Snapshot failed", "error", err)
		}
	})
	m.On(action.EmulatorQuit, event.Press, quit)
}
