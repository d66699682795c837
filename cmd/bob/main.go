package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/valerio/go-bob/console"
	"github.com/valerio/go-bob/debugger"
	"github.com/valerio/go-bob/disk"
	"github.com/valerio/go-bob/machine"
	"github.com/valerio/go-bob/render"
	"github.com/valerio/go-bob/video"
)

func main() {
	app := cli.NewApp()
	app.Name = "bob"
	app.Description = "A toy 80386 real-mode PC emulator core"
	app.Usage = "bob [options]"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "disk",
			Usage: "Path to the disk image (created if absent)",
			Value: "disk.img",
		},
		cli.IntFlag{
			Name:  "cylinders",
			Usage: "Disk geometry: cylinders",
			Value: 16,
		},
		cli.IntFlag{
			Name:  "heads",
			Usage: "Disk geometry: heads",
			Value: 16,
		},
		cli.IntFlag{
			Name:  "sectors",
			Usage: "Disk geometry: sectors per track",
			Value: 63,
		},
		cli.IntFlag{
			Name:  "mem-size",
			Usage: "Physical memory size in bytes",
			Value: 0x0100_0000,
		},
		cli.IntFlag{
			Name:  "timer-hz",
			Usage: "Timer IRQ0 frequency in Hz",
			Value: 1000,
		},
		cli.BoolFlag{
			Name:  "headless",
			Usage: "Run a fixed number of instruction boundaries without a terminal",
		},
		cli.IntFlag{
			Name:  "steps",
			Usage: "Instruction boundaries to execute in --headless mode",
			Value: 1_000_000,
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("bob exited with error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := machine.Config{
		DiskPath: c.String("disk"),
		Geometry: disk.Geometry{
			Cylinders: c.Int("cylinders"),
			Heads:     c.Int("heads"),
			Sectors:   c.Int("sectors"),
		},
		MemSize: c.Int("mem-size"),
		TimerHz: c.Int("timer-hz"),
	}

	if c.Bool("headless") {
		level := slog.LevelDebug
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		steps := c.Int("steps")
		if steps <= 0 {
			return errors.New("headless mode requires --steps with a positive value")
		}
		return runHeadless(cfg, steps)
	}

	return runInteractive(cfg)
}

func runHeadless(cfg machine.Config, steps int) error {
	m, err := machine.New(cfg)
	if err != nil {
		return fmt.Errorf("bob: building machine: %w", err)
	}

	m.Start()
	defer m.Stop()

	for i := 0; i < steps; i++ {
		if err := m.Step(); err != nil {
			slog.Error("bob halted on fatal error", "error", err, "step", i)
			return err
		}
	}
	slog.Info("headless run completed", "steps", steps)
	return nil
}

func runInteractive(cfg machine.Config) error {
	m, err := machine.New(cfg)
	if err != nil {
		return fmt.Errorf("bob: building machine: %w", err)
	}

	fb := video.New(m.Memory)
	cmds := make(chan console.Command, 16)
	term, err := render.New(fb, cmds)
	if err != nil {
		return fmt.Errorf("bob: starting terminal: %w", err)
	}
	defer term.Close()

	stdin := console.New(os.Stdin)
	stdin.Start()
	defer stdin.Stop()

	dbg := debugger.New(m)
	m.Start()
	defer m.Stop()

	go term.HandleInput()

	var fault error
	for {
		select {
		case cmd := <-cmds:
			switch cmd {
			case console.Go:
				dbg.Go()
			case console.Next:
				dbg.Next()
			case console.Stop:
				dbg.Stop()
			case console.Quit:
				return nil
			}
		case cmd, ok := <-stdin.Commands():
			if !ok {
				continue
			}
			switch cmd {
			case console.Go:
				dbg.Go()
			case console.Next:
				dbg.Next()
			case console.Stop:
				dbg.Stop()
			case console.Quit:
				return nil
			}
		default:
			if fault == nil {
				if err := dbg.Tick(); err != nil {
					fault = err
					slog.Error("bob halted on fatal error", "error", err)
				}
			}
			term.Render(dbg.Snapshot(), fault)
		}
	}
}
