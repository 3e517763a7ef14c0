package commands

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/savaki/datalake-loader/internal/artifact"
	"github.com/savaki/datalake-loader/internal/di"
	derrors "github.com/savaki/datalake-loader/internal/errors"
	"github.com/urfave/cli/v2"
)

// ArtifactsCommand returns the command that zips and publishes job code to S3
func ArtifactsCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "artifacts",
		Usage:     "Zip the job source folder and upload it with its entry point to S3",
		UsageText: "datalake-loader artifacts <platform_name> <environment> <bucket_name> [aws_profile_name] [source_folder] [region]",
		Description: `Zips the source folder into <platform_name>_code.zip and uploads it to
s3://<bucket_name>/<platform_name>/<environment>/scripts/, followed by
main.py from the source folder. The local archive is removed afterwards.

Defaults: aws_profile_name=default, source_folder=../src, region=us-east-1

Example:
  datalake-loader artifacts wrike dev test-bucket cdo-edi-np ../src us-east-1`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "work-dir",
				Usage: "Folder the archive is built in",
				Value: ".",
			},
		},
		Action: func(c *cli.Context) error {
			return artifactsAction(c, logger)
		},
	}
}

func artifactsAction(c *cli.Context, logger *zerolog.Logger) error {
	if err := requireArgs(c, 3); err != nil {
		return err
	}

	input := artifact.PublishInput{
		Platform:     c.Args().Get(0),
		Env:          c.Args().Get(1),
		Bucket:       c.Args().Get(2),
		SourceFolder: positional(c, 4, artifact.DefaultSourceFolder),
	}
	profile := positional(c, 3, di.DefaultProfile)
	region := positional(c, 5, di.DefaultRegion)

	ctx, log := runContext(c.Context, logger, "artifacts")

	container, err := di.New(input.Env, di.WithProfile(profile), di.WithRegion(region))
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	var client *s3.Client
	if err := container.Invoke(func(s *s3.Client) { client = s }); err != nil {
		return fmt.Errorf("failed to create s3 client: %w", err)
	}

	result, err := artifact.NewPublisher(client, c.String("work-dir")).Publish(ctx, input)
	if errors.Is(err, derrors.ErrEntryPointNotFound) {
		log.Error().Err(err).Msg("main.py not found in source folder, skipping upload")
		return err
	}
	if err != nil {
		return err
	}

	log.Info().
		Bool("archive_uploaded", result.ArchiveUploaded).
		Bool("entry_point_uploaded", result.EntryPointUploaded).
		Msg("Done")
	return nil
}
