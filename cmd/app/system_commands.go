package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/allisson/rotavault/cmd/app/commands"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				container, err := newContainer()
				if err != nil {
					return err
				}
				defer closeContainer(context.Background(), container)
				cfg := container.Config()
				gin.SetMode(cfg.GetGinMode())

				server, err := container.HTTPServer(ctx)
				if err != nil {
					return fmt.Errorf("failed to initialize HTTP server: %w", err)
				}

				metricsServer, err := container.MetricsServer()
				if err != nil {
					return fmt.Errorf("failed to initialize metrics server: %w", err)
				}
				var metricsRunnable commands.Runnable
				if metricsServer != nil {
					metricsRunnable = metricsServer
				}

				return commands.RunServer(
					ctx,
					container.Logger(),
					version,
					server,
					metricsRunnable,
					cfg.ShutdownTimeout,
				)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "migrations-path",
					Value: "migrations",
					Usage: "Directory holding the postgresql and mysql migration folders",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer closeContainer(ctx, container)
				cfg := container.Config()

				return commands.RunMigrations(
					container.Logger(),
					cmd.String("migrations-path"),
					cfg.DBDriver,
					cfg.DBConnectionString,
				)
			},
		},
	}
}
