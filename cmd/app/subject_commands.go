package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/email-management-platform/backend/gateway/cmd/app/commands"
	"github.com/email-management-platform/backend/gateway/internal/app"
	"github.com/email-management-platform/backend/gateway/internal/config"
)

func getSubjectCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-subject",
			Usage: "Register a subject in the local directory with its role assignment",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "external-id",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "External identifier the subject authenticates as",
				},
				&cli.StringFlag{
					Name:  "email",
					Usage: "Contact email recorded for the subject",
				},
				&cli.StringSliceFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Usage:   "Role to assign; repeat for multiple roles",
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

				subjectUseCase, err := container.SubjectUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateSubject(
					ctx,
					subjectUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("external-id"),
					cmd.String("email"),
					cmd.StringSlice("role"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "list-subjects",
			Usage: "List directory subjects with their role assignments, newest first",
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

				subjectUseCase, err := container.SubjectUseCase()
				if err != nil {
					return err
				}

				return commands.RunListSubjects(
					ctx,
					subjectUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
	}
}
