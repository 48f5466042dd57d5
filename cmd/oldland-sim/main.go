package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/ycyang0508/oldland-cpu/oldland"
	"github.com/ycyang0508/oldland-cpu/oldland/cpu"
	"github.com/ycyang0508/oldland-cpu/oldland/debug"
	"github.com/ycyang0508/oldland-cpu/oldland/memory"
	"github.com/ycyang0508/oldland-cpu/oldland/oracle"
	"github.com/ycyang0508/oldland-cpu/oldland/rom"
)

func main() {
	app := cli.NewApp()
	app.Name = "oldland-sim"
	app.Description = "Instruction-set simulator for the Oldland CPU"
	app.Usage = "oldland-sim [options] <ROM image>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the flat binary ROM image",
		},
		cli.StringFlag{
			Name:  "test",
			Usage: "Lua test script deciding pass/fail",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log every register and PC write",
		},
		cli.StringFlag{
			Name:  "listen",
			Usage: "Debug server address; the machine starts stopped and is driven by the debugger",
		},
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug-level logging",
		},
	}
	app.Action = runSimulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running simulator", "error", err)
		os.Exit(1)
	}
}

func runSimulator(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("verbose") || c.Bool("trace") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM image provided")
		}
	}

	image, err := rom.Load(romPath, logger)
	if err != nil {
		return err
	}

	var hooks oldland.Hooks
	var orc *oracle.Oracle
	if testPath := c.String("test"); testPath != "" {
		orc, err = oracle.Load(testPath, logger)
		if err != nil {
			return err
		}
		defer orc.Close()
		hooks = oldland.Hooks{
			OnStore: func(addr uint32, width memory.Width, value uint32) {
				orc.OnStore(addr, uint32(width), value)
			},
			OnSuccess: orc.OnSuccess,
		}
	}

	opts := []oldland.Option{
		oldland.WithLogger(logger),
		oldland.WithHooks(hooks),
	}
	if c.Bool("trace") {
		opts = append(opts, oldland.WithTracing())
	}

	machine, err := oldland.New(image, opts...)
	if err != nil {
		return err
	}

	var outcome cpu.Outcome
	if listen := c.String("listen"); listen != "" {
		server, err := debug.NewServer(listen, logger)
		if err != nil {
			return err
		}
		defer server.Close()
		go func() {
			if err := server.Serve(); err != nil {
				logger.Error("debug server stopped", "error", err)
			}
		}()

		logger.Info("debug server listening", "addr", server.Addr().String())
		outcome, err = machine.Serve(server.Requests(), server.Responses())
		if err != nil {
			return err
		}
	} else {
		outcome, err = machine.Run()
		if err != nil {
			return err
		}
	}

	if orc != nil && orc.Err() != nil {
		fmt.Println("[FAIL]")
		return orc.Err()
	}

	switch outcome {
	case cpu.Success:
		fmt.Println("[SUCCESS]")
		return nil
	case cpu.Failure:
		fmt.Println("[FAIL]")
		return errors.New("simulated program reported failure")
	default:
		// Terminated by the debugger before completion.
		return nil
	}
}
