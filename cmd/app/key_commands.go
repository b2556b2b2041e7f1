package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pandorica/cmd/app/commands"
	"github.com/allisson/pandorica/internal/app"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rotate-master-key",
			Usage: "Replace the master key when it is missing or expired",
			Flags: []cli.Flag{formatFlag()},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, container *app.Container) error {
				keyManagement, err := container.KeyManagementUseCase()
				if err != nil {
					return err
				}
				return commands.RunRotateMasterKey(
					ctx,
					keyManagement,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			}),
		},
		{
			Name:  "master-key-status",
			Usage: "Show the active master key metadata",
			Flags: []cli.Flag{formatFlag()},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, container *app.Container) error {
				keyManagement, err := container.KeyManagementUseCase()
				if err != nil {
					return err
				}
				return commands.RunMasterKeyStatus(ctx, keyManagement, commands.DefaultIO().Writer, cmd.String("format"))
			}),
		},
		{
			Name:  "derive-key",
			Usage: "Derive a key from input material and a salt",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "input",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Input key material",
				},
				&cli.StringFlag{
					Name:     "salt",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Base64-encoded salt",
				},
				&cli.IntFlag{
					Name:    "length",
					Aliases: []string{"l"},
					Value:   32,
					Usage:   "Derived key length in bytes (1-1024)",
				},
				formatFlag(),
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, container *app.Container) error {
				deriver, err := container.KeyDeriver()
				if err != nil {
					return err
				}
				return commands.RunDeriveKey(
					deriver,
					commands.DefaultIO().Writer,
					cmd.String("input"),
					cmd.String("salt"),
					int(cmd.Int("length")),
					cmd.String("format"),
				)
			}),
		},
	}
}
