package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/rotavault/cmd/app/commands"
)

func getSecretCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "migrate-secrets",
			Usage: "Re-encrypt stored secrets under a key version",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:    "target-version",
					Aliases: []string{"t"},
					Usage:   "Key version to migrate to (defaults to the current version)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer closeContainer(ctx, container)

				manager, err := container.EncryptionManager(ctx)
				if err != nil {
					return err
				}
				secretManager, err := container.SecretManager(ctx)
				if err != nil {
					return err
				}

				var target *uint
				if cmd.IsSet("target-version") {
					v := uint(cmd.Uint("target-version"))
					target = &v
				}

				return commands.RunMigrateSecrets(
					ctx,
					secretManager,
					manager.CurrentVersion(),
					container.Logger(),
					commands.DefaultIO().Writer,
					target,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "version-report",
			Usage: "Count stored secrets per key version",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer closeContainer(ctx, container)

				secretManager, err := container.SecretManager(ctx)
				if err != nil {
					return err
				}

				return commands.RunVersionReport(
					ctx,
					secretManager,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
	}
}
