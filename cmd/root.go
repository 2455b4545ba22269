package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func RootApp() *cli.App {
	return &cli.App{
		Name:  "blaggregator",
		Usage: "A blog aggregator for your community",
		Description: `Blaggregator aggregates the blogs of your community members.

	Members register their blog's feed URL, blaggregator crawls the feeds
	on a schedule and stores new posts in an SQLite database. Posts are
	served on an aggregated web page and as a private Atom feed gated by a
	per-member access token.

	Flags can generally be set via environment variables, e.g.:

	--database => BLAGGREGATOR_DATABASE=blaggregator.db
	--port => BLAGGREGATOR_PORT=8080
	`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			crawlCmd(),
			useraddCmd(),
			tidyCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// Execute runs the CLI application
func Execute() {
	if err := RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
