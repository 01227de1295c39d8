// Command folio values a stock portfolio declared in a TOML file.
//
// Shell completion is installed with:
//
//	COMP_INSTALL=1 folio
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"

	"github.com/etnz/stockfolio/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.Completion().Complete("folio")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
