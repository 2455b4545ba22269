package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"blaggregator/config"
	"blaggregator/crawler"
	"blaggregator/db"
	"blaggregator/directory"
	"blaggregator/fetcher"
	"blaggregator/models"
	"blaggregator/server"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the blaggregator web app and feed",
		Description: `Starts the blaggregator HTTP server and the background crawler.

Launches the HTTP server on the specified or default port and starts the
crawler that periodically fetches all registered blog feeds. New posts are
written to the SQLite database and served on the aggregated page and the
token-gated Atom feed.`,
		Flags: []cli.Flag{
			databaseFlag(),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML configuration file",
				EnvVars: []string{"BLAGGREGATOR_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "hostname",
				Aliases: []string{"n"},
				Usage:   "The hostname feed links point at",
				EnvVars: []string{"BLAGGREGATOR_HOSTNAME"},
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "The port to listen on",
				EnvVars: []string{"BLAGGREGATOR_PORT"},
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
			if ctx.IsSet("hostname") {
				cfg.Hostname = ctx.String("hostname")
			}
			if ctx.IsSet("port") {
				cfg.Port = ctx.Int("port")
			}

			fmt.Println("Starting blaggregator...")

			if err := db.Migrate(cfg.Database); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			database, err := db.New(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			fetch := fetcher.New().Fetch
			tagger := fetcher.NewLanguageTagger(cfg.Languages)
			cr := crawler.New(ctx.Context, database, fetch, tagger, 10)

			app := server.Server(&server.Config{
				Hostname:       cfg.Hostname,
				DB:             database,
				MaxFeedEntries: cfg.MaxFeedEntries,
				Fetch:          fetch,
				UpdateProfile:  profileUpdater(database, cfg),
			})

			// Graceful shutdown
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt)
			var wg sync.WaitGroup

			go func() {
				<-c
				fmt.Println("Gracefully shutting down...")
				app.ShutdownWithTimeout(60 * time.Second)
				defer wg.Add(-2) // Decrement the waitgroup counter by 2 after shutdown of server and crawler
				cr.Shutdown()
			}()

			go func() {
				fmt.Println("Starting crawler...")
				cr.Run(time.Duration(cfg.CrawlIntervalMinutes) * time.Minute)
			}()

			go func() {
				fmt.Println("Starting server...")
				if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
					log.Panic(err)
				}
			}()

			// Wait for both the server and crawler to shut down
			wg.Add(2)
			wg.Wait()

			fmt.Println("Done!")

			return nil
		},
	}
}

// profileUpdater wires the member directory client to the database. When
// no directory is configured profile refreshes are no-ops.
func profileUpdater(database *db.DB, cfg *config.TomlConfig) server.ProfileUpdater {
	if cfg.Directory.BaseUrl == "" {
		return nil
	}

	client := directory.NewClient(cfg.Directory.BaseUrl, cfg.Directory.Token)
	return func(ctx context.Context, hacker models.Hacker) error {
		member, err := client.Member(ctx, hacker.Id)
		if err != nil {
			return err
		}
		return database.UpdateHackerAvatar(ctx, hacker.Id, member.AvatarUrl)
	}
}
