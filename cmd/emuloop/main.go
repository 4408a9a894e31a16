package main

import (
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-emuloop/emuloop"
	"github.com/valerio/go-emuloop/emuloop/timing"
)

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "emuloop"
	app.Description = "Runs an emulation engine at its native frame rate"
	app.Usage = "emuloop [options] [program file]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the program to load, or builtin:ntsc / builtin:pal",
		},
		cli.StringFlag{
			Name:  "frontend",
			Usage: "Frontend to use: terminal, headless, sdl2 or ebiten",
			Value: "terminal",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to present in headless mode (0 = until interrupted)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save frame snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory)",
		},
		cli.StringFlag{
			Name:  "state-file",
			Usage: "Save state file used by the save/load state keys (default: <program>.state)",
		},
		cli.BoolTFlag{
			Name:  "auto-frameskip",
			Usage: "Skip rendering to catch up when emulation falls behind",
		},
		cli.IntFlag{
			Name:  "max-frameskips",
			Usage: "Frame skip limit, between 2 and 99",
			Value: timing.DefaultMaxFrameSkips,
		},
		cli.BoolFlag{
			Name:  "sound",
			Usage: "Enable sound",
		},
		cli.BoolFlag{
			Name:  "speaker",
			Usage: "Play sound on the default output device (requires -tags oto)",
		},
		cli.StringFlag{
			Name:  "wav",
			Usage: "Record sound to a WAV file",
		},
		cli.StringSliceFlag{
			Name:  "option",
			Usage: "Engine option as name=value, may be repeated",
		},
		cli.StringFlag{
			Name:  "listen",
			Usage: "Serve the HTTP control API on this address, e.g. localhost:8080",
		},
		cli.IntFlag{
			Name:  "width",
			Usage: "Surface width (default depends on the frontend)",
		},
		cli.IntFlag{
			Name:  "height",
			Usage: "Surface height (default depends on the frontend)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor for windowed frontends",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
		cli.BoolFlag{
			Name:  "statsview",
			Usage: "Serve runtime charts (requires -tags statsview)",
		},
	}
	app.Action = runEmulator
	return app
}

func configFromFlags(c *cli.Context) emuloop.Config {
	return emuloop.Config{
		AutoFrameSkip: c.BoolT("auto-frameskip"),
		MaxFrameSkips: c.Int("max-frameskips"),
		SoundEnabled:  c.Bool("sound"),
	}
}
