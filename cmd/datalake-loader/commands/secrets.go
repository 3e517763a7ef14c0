package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/savaki/datalake-loader/internal/di"
	derrors "github.com/savaki/datalake-loader/internal/errors"
	"github.com/savaki/datalake-loader/internal/services"
	"github.com/savaki/datalake-loader/internal/utils"
	"github.com/urfave/cli/v2"
	"github.com/yudai/gojsondiff"
)

// SecretsCommand returns the command that creates or updates the API credentials secret
func SecretsCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:      "secrets",
		Usage:     "Create or update the platform API credentials secret",
		UsageText: "datalake-loader secrets <platform name> <environment> [profile] [region]",
		Description: `Stores the JSON object in secret.json as
essmdatalake-cc-<platform name>-apicredentials-sm-<environment>, updating the
secret when it exists and creating it otherwise.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "JSON file holding the secret value",
				Value: "secret.json",
			},
			&cli.BoolFlag{
				Name:  "verify",
				Usage: "Read the secret back after writing and compare it with the file",
			},
		},
		Action: func(c *cli.Context) error {
			return secretsAction(c, logger)
		},
	}
}

func secretsAction(c *cli.Context, logger *zerolog.Logger) error {
	if err := requireArgs(c, 2); err != nil {
		return err
	}

	platform := c.Args().Get(0)
	env := c.Args().Get(1)
	profile := positional(c, 2, di.DefaultProfile)
	region := positional(c, 3, di.DefaultRegion)

	ctx, log := runContext(c.Context, logger, "secrets")

	data, value, err := readSecretFile(c.String("file"))
	if err != nil {
		return err
	}

	container, err := di.New(env, di.WithProfile(profile), di.WithRegion(region))
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	service := di.MustGet[*services.SecretsManagerService](container)

	name := services.SecretName(platform, env)
	outcome, err := service.UpsertSecret(ctx, name, value)
	if err != nil {
		log.Error().Err(err).Str("secret", name).Str("outcome", string(outcome)).Msg("Failed to store secret")
		return nil
	}

	if c.Bool("verify") {
		verifySecret(ctx, service, name, data)
	}
	return nil
}

func readSecretFile(path string) ([]byte, any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", derrors.ErrSecretFileNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var value any
	if err := utils.DecodeJSON(data, &value); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return data, value, nil
}

// verifySecret reads the secret back and compares it with the file contents.
// Only the number of differences is logged, never the values.
func verifySecret(ctx context.Context, service *services.SecretsManagerService, name string, want []byte) {
	logger := zerolog.Ctx(ctx)

	stored, err := service.GetSecret(ctx, name)
	if err != nil {
		logger.Error().Err(err).Str("secret", name).Msg("Failed to read secret back")
		return
	}

	delta, err := gojsondiff.New().Compare([]byte(stored), want)
	if err != nil {
		logger.Error().Err(err).Str("secret", name).Msg("Failed to compare stored secret")
		return
	}

	if delta.Modified() {
		logger.Warn().
			Str("secret", name).
			Int("differences", len(delta.Deltas())).
			Msg("Stored secret differs from file")
		return
	}
	logger.Info().Str("secret", name).Msg("Stored secret matches file")
}
