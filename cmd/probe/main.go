package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/probe/internal/debug"
	"github.com/standardbeagle/probe/internal/version"
)

func newApp() *cli.App {
	return &cli.App{
		Name:                   "probe",
		Usage:                  "Code-aware search that returns whole functions, classes and blocks",
		Version:                version.FullInfo(),
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug-log",
				Usage: "Write debug logs to a temporary file (requires DEBUG=1)",
			},
		},
		Before: func(c *cli.Context) error {
			if !debug.IsDebugEnabled() {
				return nil
			}
			if c.Bool("debug-log") {
				path, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				fmt.Fprintf(c.App.ErrWriter, "debug log: %s\n", path)
				return nil
			}
			debug.SetDebugOutput(c.App.ErrWriter)
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			searchCommand(),
			languagesCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp()
	app.ErrWriter = os.Stderr
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
