package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/email-management-platform/backend/gateway/cmd/app/commands"
	"github.com/email-management-platform/backend/gateway/internal/app"
	"github.com/email-management-platform/backend/gateway/internal/config"
)

func getRevocationCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "revoke-token",
			Usage: "Blacklist a bearer token and record the audit entry",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "token",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Raw bearer token to revoke",
				},
				&cli.StringFlag{
					Name:    "subject",
					Aliases: []string{"s"},
					Usage:   "Subject recorded in the audit trail",
				},
				&cli.StringFlag{
					Name:    "reason",
					Aliases: []string{"r"},
					Usage:   "Human-readable reason for the revocation",
				},
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

				revocationUseCase, err := container.RevocationUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokeToken(
					ctx,
					revocationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("token"),
					cmd.String("subject"),
					cmd.String("reason"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-revocations",
			Usage: "List revocation audit records, newest first",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "offset",
					Aliases: []string{"o"},
					Value:   0,
					Usage:   "Number of records to skip",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   50,
					Usage:   "Maximum number of records to return",
				},
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

				revocationUseCase, err := container.RevocationUseCase()
				if err != nil {
					return err
				}

				return commands.RunListRevocations(
					ctx,
					revocationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "clean-revocations",
			Usage: "Delete revocation audit records past their retention window",
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

				revocationUseCase, err := container.RevocationUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanRevocations(
					ctx,
					revocationUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
