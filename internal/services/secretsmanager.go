package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used by the service
type SecretsManagerAPI interface {
	UpdateSecret(ctx context.Context, params *secretsmanager.UpdateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretOutput, error)
	CreateSecret(ctx context.Context, params *secretsmanager.CreateSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

var _ SecretsManagerAPI = (*secretsmanager.Client)(nil)

type SecretsManagerService struct {
	client SecretsManagerAPI
}

// SecretOutcome reports which write, if any, an upsert performed
type SecretOutcome string

const (
	SecretUpdated SecretOutcome = "UPDATED"
	SecretCreated SecretOutcome = "CREATED"
	SecretFailed  SecretOutcome = "FAILED"
)

// SecretName returns the API credentials secret name for a platform environment.
// Example: essmdatalake-cc-wrike-apicredentials-sm-dev
func SecretName(platform, env string) string {
	return fmt.Sprintf("essmdatalake-cc-%s-apicredentials-sm-%s", platform, env)
}

func NewSecretsManagerService(client SecretsManagerAPI) *SecretsManagerService {
	return &SecretsManagerService{
		client: client,
	}
}

// UpsertSecret stores value, serialized as JSON, under name. The secret is
// updated in place; when it does not exist yet it is created instead. The
// returned error carries every failure encountered, the outcome says which
// write succeeded.
func (s *SecretsManagerService) UpsertSecret(ctx context.Context, name string, value any) (SecretOutcome, error) {
	logger := zerolog.Ctx(ctx)

	secretString, err := json.Marshal(value)
	if err != nil {
		return SecretFailed, fmt.Errorf("failed to marshal secret %s: %w", name, err)
	}

	_, updateErr := s.client.UpdateSecret(ctx, &secretsmanager.UpdateSecretInput{
		SecretId:     aws.String(name),
		SecretString: aws.String(string(secretString)),
	})
	if updateErr == nil {
		logger.Info().Str("secret", name).Msg("Secret updated")
		return SecretUpdated, nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(updateErr, &notFound) && ErrorCode(updateErr) != "ResourceNotFoundException" {
		return SecretFailed, fmt.Errorf("failed to update secret %s: %w", name, updateErr)
	}

	logger.Info().Str("secret", name).Msg("Secret not found, creating")

	_, createErr := s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(name),
		SecretString: aws.String(string(secretString)),
	})
	if createErr != nil {
		return SecretFailed, errors.Join(
			fmt.Errorf("failed to update secret %s: %w", name, updateErr),
			fmt.Errorf("failed to create secret %s: %w", name, createErr),
		)
	}

	logger.Info().Str("secret", name).Msg("Secret created")
	return SecretCreated, nil
}

// GetSecret retrieves a secret value by name from AWS Secrets Manager
func (s *SecretsManagerService) GetSecret(ctx context.Context, name string) (string, error) {
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}

	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", name)
	}

	return *result.SecretString, nil
}
