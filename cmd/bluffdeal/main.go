package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Run      RunCmd           `cmd:"" help:"Run an interactive experiment session"`
	Simulate SimulateCmd      `cmd:"" help:"Auto-play sessions against the schedule"`
	Schedule ScheduleCmd      `cmd:"" help:"Validate and inspect a schedule CSV"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bluffdeal"),
		kong.Description("Two-player bluffing card experiment engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func newLogger(debug bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
