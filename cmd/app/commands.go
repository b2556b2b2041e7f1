package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pandorica/cmd/app/commands"
	"github.com/allisson/pandorica/internal/app"
	"github.com/allisson/pandorica/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getKeyCommands()...)
	cmds = append(cmds, getFileCommands()...)
	cmds = append(cmds, getPasswordCommands()...)
	return cmds
}

// withContainer runs action with a container built from the environment and shuts the
// container down afterwards.
func withContainer(action func(ctx context.Context, cmd *cli.Command, container *app.Container) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		container := app.NewContainer(config.Load())
		defer func() { _ = container.Shutdown(context.Background()) }()

		return action(ctx, cmd, container)
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   commands.FormatText,
		Usage:   "Output format: 'text' or 'json'",
	}
}
