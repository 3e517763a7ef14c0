package commands

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
	"github.com/savaki/datalake-loader/internal/configloader"
	"github.com/savaki/datalake-loader/internal/dao/configdao"
	"github.com/savaki/datalake-loader/internal/di"
	"github.com/urfave/cli/v2"
)

// ConfigCommand returns the command that upserts config templates into the config table
func ConfigCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "Upsert config templates into the platform config table",
		UsageText: "datalake-loader config <platform_name> <environment> [aws_profile_name] [partition_key] [folders] ...",
		Description: `Reads every file in each folder below the config directory, substitutes
${NAME} variables for the environment and writes each record into
essmdatalake-cc-<platform_name>-config-table-<environment>.

Variables come from <config-dir>/vars/default.vars.json merged with the
optional <config-dir>/vars/<config name>.vars.json, each shaped as
{"vars": {"<environment>": {"NAME": "value"}}}.

Example:
  datalake-loader config wrike dev default configId rest

  config/
    rest/
      contacts.json
      bouncebacks.json
    vars/
      default.vars.json
      contacts.vars.json`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config-dir",
				Usage: "Root folder holding the config folders and vars",
				Value: "config",
			},
			&cli.StringFlag{
				Name:  "region",
				Usage: "AWS region of the config table",
				Value: di.DefaultRegion,
			},
		},
		Action: func(c *cli.Context) error {
			return configAction(c, logger)
		},
	}
}

func configAction(c *cli.Context, logger *zerolog.Logger) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}

	platform := c.Args().Get(0)
	env := c.Args().Get(1)
	profile := positional(c, 2, di.DefaultProfile)
	partitionKey := positional(c, 3, configdao.DefaultPartitionKey)
	folders := []string{configloader.DefaultFolder}
	if c.NArg() > 4 {
		folders = c.Args().Slice()[4:]
	}

	region := c.String("region")
	ctx, log := runContext(c.Context, logger, "config")

	container, err := di.New(env, di.WithProfile(profile), di.WithRegion(region))
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}

	var client *dynamodb.Client
	if err := container.Invoke(func(db *dynamodb.Client) { client = db }); err != nil {
		return fmt.Errorf("failed to create dynamodb client: %w", err)
	}

	dao := configdao.New(client, configdao.TableName(platform, env), partitionKey)
	log.Info().
		Str("table", dao.TableName()).
		Str("region", region).
		Str("profile", profile).
		Str("partition_key", partitionKey).
		Strs("folders", folders).
		Msg("Loading config")

	configloader.New(dao, c.String("config-dir"), env).LoadFolders(ctx, folders...)
	return nil
}
