package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/rotavault/cmd/app/commands"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "rotate-key",
			Usage: "Make a new key version current",
			Flags: []cli.Flag{
				&cli.UintFlag{
					Name:     "version",
					Aliases:  []string{"v"},
					Required: true,
					Usage:    "New key version (0-255), greater than the current one",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer closeContainer(ctx, container)

				keyUseCase, err := container.KeyUseCase()
				if err != nil {
					return err
				}
				manager, err := container.EncryptionManager(ctx)
				if err != nil {
					return err
				}

				return commands.RunRotateKey(
					ctx,
					keyUseCase,
					manager,
					container.Logger(),
					commands.DefaultIO().Writer,
					uint(cmd.Uint("version")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "key-info",
			Usage: "Show the current key version and every known version",
			Flags: []cli.Flag{formatFlag()},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer closeContainer(ctx, container)

				keyUseCase, err := container.KeyUseCase()
				if err != nil {
					return err
				}
				manager, err := container.EncryptionManager(ctx)
				if err != nil {
					return err
				}

				return commands.RunKeyInfo(keyUseCase, manager, commands.DefaultIO().Writer, cmd.String("format"))
			},
		},
		{
			Name:  "encrypt-passphrase",
			Usage: "Wrap the master passphrase read from stdin with a KMS key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "kms-key-uri",
					Required: true,
					Usage:    "KMS key URI (e.g. base64key://..., gcpkms://projects/.../cryptoKeys/...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer closeContainer(ctx, container)

				return commands.RunEncryptPassphrase(
					ctx,
					container.KMSService(),
					container.Logger(),
					commands.DefaultIO(),
					cmd.String("kms-key-uri"),
				)
			},
		},
	}
}
