package cmd

import (
	"fmt"

	"blaggregator/db"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"
)

func useraddCmd() *cli.Command {
	return &cli.Command{
		Name:  "useradd",
		Usage: "Create a user account",
		Description: `Creates a user account and its member profile.

Prompts for a username and password, stores a bcrypt hash of the password
and prints the generated feed access token.`,
		Flags: []cli.Flag{
			databaseFlag(),
		},
		Action: func(ctx *cli.Context) error {
			username, err := prompt.New().Ask("Username:").Input("")
			if err != nil {
				return err
			}

			password, err := prompt.New().Ask("Password:").Input("", input.WithEchoMode(input.EchoNone))
			if err != nil {
				return err
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			database, err := db.New(ctx.String("database"))
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer database.Close()

			user, err := database.CreateUser(ctx.Context, username, string(hash))
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			hacker, err := database.CreateHacker(ctx.Context, user.Id)
			if err != nil {
				return fmt.Errorf("failed to create profile: %w", err)
			}

			fmt.Printf("Created user %s (id %d)\n", user.Username, user.Id)
			fmt.Printf("Feed token: %s\n", hacker.Token)
			return nil
		},
	}
}
