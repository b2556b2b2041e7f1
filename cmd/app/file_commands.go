package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pandorica/cmd/app/commands"
	"github.com/allisson/pandorica/internal/app"
)

func getFileCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "encrypt-file",
			Usage: "Encrypt a local file under a new DEK",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "Plaintext file"},
				&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Encrypted file to write"},
				&cli.StringFlag{Name: "dek-output", Required: true, Usage: "File receiving the base64 wrapped DEK"},
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, container *app.Container) error {
				keyManagement, err := container.KeyManagementUseCase()
				if err != nil {
					return err
				}
				if err := keyManagement.Init(ctx); err != nil {
					return err
				}
				envelope, err := container.EnvelopeUseCase()
				if err != nil {
					return err
				}
				return commands.RunEncryptFile(
					ctx,
					envelope,
					container.Logger(),
					cmd.String("input"),
					cmd.String("output"),
					cmd.String("dek-output"),
				)
			}),
		},
		{
			Name:  "decrypt-file",
			Usage: "Decrypt a file written by encrypt-file",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "Encrypted file"},
				&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "Plaintext file to write"},
				&cli.StringFlag{Name: "dek-input", Required: true, Usage: "File holding the base64 wrapped DEK"},
			},
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, container *app.Container) error {
				envelope, err := container.EnvelopeUseCase()
				if err != nil {
					return err
				}
				return commands.RunDecryptFile(
					ctx,
					envelope,
					container.Logger(),
					cmd.String("input"),
					cmd.String("output"),
					cmd.String("dek-input"),
				)
			}),
		},
	}
}
