package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pandorica/cmd/app/commands"
	"github.com/allisson/pandorica/internal/app"
)

func getPasswordCommands() []*cli.Command {
	passwordFlag := &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Password (read from stdin when omitted)",
	}

	return []*cli.Command{
		{
			Name:  "hash-password",
			Usage: "Hash a password with the configured hashing provider",
			Flags: []cli.Flag{passwordFlag, formatFlag()},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, container *app.Container) error {
				hasher, err := container.PasswordHasher()
				if err != nil {
					return err
				}
				return commands.RunHashPassword(
					hasher,
					commands.DefaultIO(),
					cmd.String("password"),
					cmd.String("format"),
				)
			}),
		},
		{
			Name:  "verify-password",
			Usage: "Check a password against a hash; exits non-zero on mismatch",
			Flags: []cli.Flag{
				passwordFlag,
				&cli.StringFlag{Name: "hash", Required: true, Usage: "Encoded password hash"},
				formatFlag(),
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, container *app.Container) error {
				hasher, err := container.PasswordHasher()
				if err != nil {
					return err
				}
				return commands.RunVerifyPassword(
					hasher,
					commands.DefaultIO(),
					cmd.String("password"),
					cmd.String("hash"),
					cmd.String("format"),
				)
			}),
		},
	}
}
