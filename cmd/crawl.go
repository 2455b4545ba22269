package cmd

import (
	"fmt"

	"blaggregator/config"
	"blaggregator/crawler"
	"blaggregator/db"
	"blaggregator/fetcher"

	"github.com/urfave/cli/v2"
)

func crawlCmd() *cli.Command {
	return &cli.Command{
		Name:  "crawl",
		Usage: "Crawl all registered blogs once",
		Description: `Fetches every registered blog feed once and stores new posts.

Can be run as a cron job instead of the built-in crawl loop of the serve
command.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML configuration file",
				EnvVars: []string{"BLAGGREGATOR_CONFIG"},
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg := config.Default()
			if path := ctx.String("config"); path != "" {
				loaded, err := config.LoadConfig(path)
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				cfg = loaded
			}
			if ctx.IsSet("database") {
				cfg.Database = ctx.String("database")
			}

			database, err := db.New(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			tagger := fetcher.NewLanguageTagger(cfg.Languages)
			cr := crawler.New(ctx.Context, database, fetcher.New().Fetch, tagger, 10)
			defer cr.Shutdown()

			cr.CrawlAll(ctx.Context)

			fmt.Println("Crawl complete")
			return nil
		},
	}
}
