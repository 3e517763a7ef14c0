package main

import (
	"context"
	"os"

	"github.com/savaki/datalake-loader/cmd/datalake-loader/commands"
	"github.com/savaki/datalake-loader/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "datalake-loader",
		Usage: "Deployment utilities for the data lake platform",
		Description: `Loads configuration, code and credentials for a platform environment.

This tool provides commands for:
  - Upserting config templates into the platform config table
  - Publishing zipped job code and its entry point to S3
  - Creating or updating the platform API credentials secret`,
		Commands: []*cli.Command{
			commands.ConfigCommand(&logger),
			commands.ArtifactsCommand(&logger),
			commands.SecretsCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
