package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/pandorica/cmd/app/commands"
	"github.com/allisson/pandorica/internal/app"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Load the master key and start the HTTP API",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Create or upgrade the master key table",
			Action: withContainer(func(ctx context.Context, cmd *cli.Command, container *app.Container) error {
				cfg := container.Config()
				source, err := commands.MigrationsSource(cfg.DBDriver)
				if err != nil {
					return err
				}
				return commands.RunMigrations(container.Logger(), source, cfg.DBConnectionString)
			}),
		},
	}
}
