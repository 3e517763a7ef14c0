package di

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/savaki/datalake-loader/internal/orchestrator"
	"github.com/savaki/datalake-loader/internal/services"
)

// ProvideContext supplies a background context for constructors that need one
func ProvideContext() context.Context {
	return context.Background()
}

// ProvideAWSConfig loads the shared AWS configuration for the selected profile and region
func ProvideAWSConfig(ctx context.Context, profile Profile, region Region) (aws.Config, error) {
	var optFns []func(*config.LoadOptions) error
	if profile != "" {
		optFns = append(optFns, config.WithSharedConfigProfile(string(profile)))
	}
	if region != "" {
		optFns = append(optFns, config.WithRegion(string(region)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

func ProvideDynamoDB(config aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(config)
}

func ProvideS3Client(config aws.Config) *s3.Client {
	return s3.NewFromConfig(config)
}

func ProvideGlueClient(config aws.Config) *glue.Client {
	return glue.NewFromConfig(config)
}

func ProvideSecretsManagerClient(config aws.Config) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(config)
}

func ProvideOrchestrator(client *glue.Client) *orchestrator.Orchestrator {
	return orchestrator.New(client)
}

func ProvideSecretsManagerService(client *secretsmanager.Client) *services.SecretsManagerService {
	return services.NewSecretsManagerService(client)
}
