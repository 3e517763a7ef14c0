package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	"github.com/savaki/datalake-loader/internal/di"
	derrors "github.com/savaki/datalake-loader/internal/errors"
	"github.com/savaki/datalake-loader/internal/models"
	"github.com/savaki/datalake-loader/internal/orchestrator"
	"github.com/savaki/datalake-loader/internal/services"
	"github.com/savaki/datalake-loader/internal/utils"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"
)

const (
	// JobNameEnv names the Glue job to start
	JobNameEnv = "GLUE_JOB_NAME"

	// ArgEnvPrefix marks environment variables forwarded as job arguments
	ArgEnvPrefix = "ARG_"
)

// JobRunner starts Glue job runs
type JobRunner interface {
	StartJobRun(ctx context.Context, input models.JobInvocation) (string, error)
}

var _ JobRunner = (*orchestrator.Orchestrator)(nil)

type Handler struct {
	runner  JobRunner
	environ func() []string
}

func NewHandler(runner JobRunner, environ func() []string) *Handler {
	if environ == nil {
		environ = os.Environ
	}
	return &Handler{
		runner:  runner,
		environ: environ,
	}
}

type successBody struct {
	Message  string `json:"message"`
	JobRunID string `json:"JobRunId"`
}

// Handle starts one run of the configured job. Every outcome is reported
// through the returned envelope; the error is always nil.
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) (events.APIGatewayProxyResponse, error) {
	logger := zerolog.Ctx(ctx)

	input, err := h.buildInvocation(payload)
	if err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		return respond(http.StatusInternalServerError, "Environment variable GLUE_JOB_NAME is required."), nil
	}

	logger.Info().
		Str("job_name", input.JobName).
		Strs("arguments", utils.SortedKeys(input.Arguments)).
		Msg("Starting Glue job run")

	runID, err := h.runner.StartJobRun(ctx, input)
	if err != nil {
		logger.Error().Err(err).Str("job_name", input.JobName).Msg("Failed to start Glue job")
		return respond(http.StatusInternalServerError, "Failed to start Glue job: "+failureReason(err)), nil
	}

	logger.Info().Str("job_name", input.JobName).Str("job_run_id", runID).Msg("Glue job triggered")
	return respond(http.StatusOK, successBody{
		Message:  "Glue job triggered successfully",
		JobRunID: runID,
	}), nil
}

// buildInvocation resolves the job name and merges ARG_ environment
// variables with the payload job_args, payload taking precedence
func (h *Handler) buildInvocation(payload json.RawMessage) (models.JobInvocation, error) {
	environ := h.environ()

	var jobName string
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == JobNameEnv {
			jobName = v
		}
	}
	if jobName == "" {
		return models.JobInvocation{}, derrors.ErrJobNameRequired
	}

	return models.JobInvocation{
		JobName: jobName,
		Arguments: utils.MergeArguments(
			utils.EnvWithPrefix(environ, ArgEnvPrefix),
			payloadArgs(payload),
		),
	}, nil
}

// payloadArgs extracts job_args from the event. Anything other than a JSON
// object carrying a job_args object contributes no arguments.
func payloadArgs(payload json.RawMessage) map[string]string {
	if len(payload) == 0 || !gjson.ValidBytes(payload) {
		return nil
	}

	args := gjson.GetBytes(payload, "job_args")
	if !args.IsObject() {
		return nil
	}

	results := map[string]string{}
	args.ForEach(func(key, value gjson.Result) bool {
		results[key.String()] = argValue(value)
		return true
	})
	return results
}

// argValue renders a job_args value the way the job scripts expect to read
// it: booleans as True/False, null as None, numbers as written and objects
// or arrays as compact JSON
func argValue(value gjson.Result) string {
	switch value.Type {
	case gjson.String:
		return value.String()
	case gjson.True:
		return "True"
	case gjson.False:
		return "False"
	case gjson.Null:
		return "None"
	case gjson.Number:
		return value.Raw
	default:
		return value.Get("@ugly").Raw
	}
}

// failureReason describes a failed StartJobRun, carrying the service error
// code when there is one
func failureReason(err error) string {
	if code := services.ErrorCode(err); code != "" {
		return fmt.Sprintf("An error occurred (%s) when calling the StartJobRun operation: %s", code, services.ErrorMessage(err))
	}
	return services.ErrorMessage(err)
}

func respond(statusCode int, body any) events.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		data = []byte(fmt.Sprintf("%q", err.Error()))
	}
	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(data),
	}
}

func main() {
	logger := di.ProvideLogger().With().Str("lambda", "glue-trigger").Logger()

	newHandler := func(region string) (*Handler, error) {
		container, err := di.New(os.Getenv("ENV"), di.WithRegion(region))
		if err != nil {
			return nil, fmt.Errorf("failed to create container: %w", err)
		}
		var runner *orchestrator.Orchestrator
		if err := container.Invoke(func(o *orchestrator.Orchestrator) { runner = o }); err != nil {
			return nil, fmt.Errorf("failed to create orchestrator: %w", err)
		}
		return NewHandler(runner, os.Environ), nil
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		// Lambda mode
		handler, err := newHandler("")
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create handler")
			os.Exit(1)
		}

		wrappedHandler := func(ctx context.Context, payload json.RawMessage) (events.APIGatewayProxyResponse, error) {
			ctx = logger.WithContext(ctx)
			return handler.Handle(ctx, payload)
		}
		lambda.Start(wrappedHandler)
		return
	}

	// CLI mode
	app := &cli.App{
		Name:  "glue-trigger",
		Usage: "Start a Glue job run named by GLUE_JOB_NAME",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "job-arg",
				Aliases: []string{"a"},
				Usage:   "Job argument as key=value, overrides ARG_ environment variables (repeatable)",
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region",
				EnvVars: []string{"AWS_REGION"},
			},
		},
		Action: func(c *cli.Context) error {
			args, err := utils.ParseKeyValues(c.StringSlice("job-arg"))
			if err != nil {
				return err
			}
			payload, err := json.Marshal(models.Event{JobArgs: toAny(args)})
			if err != nil {
				return fmt.Errorf("failed to build payload: %w", err)
			}

			handler, err := newHandler(c.String("region"))
			if err != nil {
				return fmt.Errorf("failed to create handler: %w", err)
			}

			resp, _ := handler.Handle(logger.WithContext(c.Context), payload)
			logger.Info().Int("status_code", resp.StatusCode).RawJSON("body", []byte(resp.Body)).Msg("Invocation complete")
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("glue job not started: status %d", resp.StatusCode)
			}
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}

func toAny(m map[string]string) map[string]any {
	results := make(map[string]any, len(m))
	for k, v := range m {
		results[k] = v
	}
	return results
}
