package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Run     RunCmd           `cmd:"" help:"Run an agent against the bridge"`
	Watch   WatchCmd         `cmd:"" help:"Watch a live session in a terminal UI"`
	Probe   ProbeCmd         `cmd:"" help:"Check bridge health and print the current state"`
	Record  RecordCmd        `cmd:"" help:"Record game states from the bridge to a fixture file"`
	Replay  ReplayCmd        `cmd:"" help:"Serve recorded game states as a stand-in bridge"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("spirebots"),
		kong.Description("Slay the Spire bridge session client and agent runner"),
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
