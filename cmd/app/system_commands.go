package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/email-management-platform/backend/gateway/cmd/app/commands"
	"github.com/email-management-platform/backend/gateway/internal/app"
	"github.com/email-management-platform/backend/gateway/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the gateway HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "list-routes",
			Usage: "Print the effective route table",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				table, err := container.RouteTable()
				if err != nil {
					return err
				}

				return commands.RunListRoutes(table, commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
	}
}
