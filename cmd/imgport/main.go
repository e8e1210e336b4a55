package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/mmcdole/imgport/internal/cli"
)

// Set at build time via -ldflags
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

func main() {
	app := &cli.AppContext{
		Build: cli.BuildInfo{Version: Version, Commit: Commit, Date: Date},
		IO:    cli.IOStreams{In: os.Stdin, Out: os.Stdout, ErrOut: os.Stderr},
	}
	root := cli.NewRootCommand(app)

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
