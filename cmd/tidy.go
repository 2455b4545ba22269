package cmd

import (
	"fmt"

	"blaggregator/db"

	"github.com/urfave/cli/v2"
)

func tidyCmd() *cli.Command {
	return &cli.Command{
		Name:  "tidy",
		Usage: "Tidy up the database",
		Description: `Tidy up the database by removing posts that are old.

		Remove posts that are older than the retention window from the
		database. This is to keep the database size down and to keep the
		feed fresh.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.IntFlag{
				Name:    "retention-days",
				Value:   365,
				Usage:   "Posts older than this many days are deleted",
				EnvVars: []string{"BLAGGREGATOR_RETENTION_DAYS"},
			},
		},
		Action: func(ctx *cli.Context) error {
			database := ctx.String("database")
			fmt.Println("Database configured: ", database)
			return db.Tidy(database, ctx.Int("retention-days"))
		},
	}
}
