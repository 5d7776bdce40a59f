package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/cantrip-labs/psxcore/internal/debugtui"
	"github.com/cantrip-labs/psxcore/internal/scheduler"
)

func main() {
	app := cli.NewApp()
	app.Name = "psxcore"
	app.Description = "A PlayStation console core"
	app.Usage = "psxcore [options] <BIOS file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bios",
			Usage: "Path to the BIOS image",
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run without the terminal register inspector",
		},
		cli.IntFlag{
			Name:  "slices",
			Usage: "Number of time slices to run in headless mode (required for headless)",
			Value: 0,
		},
		cli.Float64Flag{
			Name:  "slice-us",
			Usage: "Length of each time slice in microseconds",
			Value: (1.0 / 60.0) * 1_000_000,
		},
		cli.BoolFlag{
			Name:  "parallel",
			Usage: "Broadcast each time slice across goroutines instead of sequentially",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("psxcore exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	biosPath := c.String("bios")
	if biosPath == "" {
		if c.NArg() > 0 {
			biosPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no BIOS path provided")
		}
	}

	bios, err := os.ReadFile(biosPath)
	if err != nil {
		return err
	}

	state := scheduler.New(bios)
	if c.Bool("parallel") {
		state.Mode = scheduler.Parallel
	}

	sliceSeconds := c.Float64("slice-us") / 1_000_000

	headless := c.Bool("headless") || !term.IsTerminal(int(os.Stdout.Fd()))
	if headless {
		slices := c.Int("slices")
		if slices <= 0 {
			return errors.New("headless mode requires --slices option with a positive value")
		}

		slog.Info("running headless", "slices", slices, "slice_us", c.Float64("slice-us"), "parallel", c.Bool("parallel"))

		for i := 0; i < slices; i++ {
			if err := state.Time(sliceSeconds); err != nil {
				return err
			}
			if (i+1)%60 == 0 {
				slog.Info("slice progress", "completed", i+1, "total", slices)
			}
		}

		slog.Info("headless run completed", "slices", slices)
		return nil
	}

	renderer, err := debugtui.New(state)
	if err != nil {
		return err
	}
	return renderer.Run(sliceSeconds)
}
