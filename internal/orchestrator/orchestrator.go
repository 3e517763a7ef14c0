package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/savaki/datalake-loader/internal/models"
	"github.com/savaki/datalake-loader/internal/utils"
)

// ArgumentPrefix is prepended to every job argument name, as Glue expects
const ArgumentPrefix = "--"

// GlueAPI is the subset of the Glue client used to start job runs
type GlueAPI interface {
	StartJobRun(ctx context.Context, params *glue.StartJobRunInput, optFns ...func(*glue.Options)) (*glue.StartJobRunOutput, error)
}

var _ GlueAPI = (*glue.Client)(nil)

// Orchestrator manages Glue job run requests
type Orchestrator struct {
	glueClient GlueAPI
}

// New creates a new Orchestrator instance
func New(glueClient GlueAPI) *Orchestrator {
	return &Orchestrator{
		glueClient: glueClient,
	}
}

// StartJobRun requests a single run of the named job and returns the run id
func (o *Orchestrator) StartJobRun(ctx context.Context, input models.JobInvocation) (string, error) {
	if input.JobName == "" {
		return "", fmt.Errorf("job name is required")
	}

	result, err := o.glueClient.StartJobRun(ctx, &glue.StartJobRunInput{
		JobName:   aws.String(input.JobName),
		Arguments: utils.PrefixKeys(ArgumentPrefix, input.Arguments),
	})
	if err != nil {
		return "", fmt.Errorf("failed to start glue job run: %w", err)
	}

	return aws.ToString(result.JobRunId), nil
}
