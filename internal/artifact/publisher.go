package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	derrors "github.com/savaki/datalake-loader/internal/errors"
	"github.com/savaki/datalake-loader/internal/services"
)

const (
	// EntryPoint is the script Glue runs, uploaded next to the code archive
	EntryPoint = "main.py"

	// DefaultSourceFolder is zipped when no source folder is given
	DefaultSourceFolder = "../src"
)

// ArchiveName returns the local and remote file name of the code archive
func ArchiveName(platform string) string {
	return platform + "_code.zip"
}

// ScriptsPrefix returns the key prefix all artifacts are uploaded under.
// Example: wrike/dev/scripts
func ScriptsPrefix(platform, env string) string {
	return fmt.Sprintf("%s/%s/scripts", platform, env)
}

// CodeKey returns the key of the code archive.
// Example: wrike/dev/scripts/wrike_code.zip
func CodeKey(platform, env string) string {
	return ScriptsPrefix(platform, env) + "/" + ArchiveName(platform)
}

// EntryPointKey returns the key of the entry point script.
// Example: wrike/dev/scripts/main.py
func EntryPointKey(platform, env string) string {
	return ScriptsPrefix(platform, env) + "/" + EntryPoint
}

// S3API is the subset of the S3 client used to publish artifacts
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// PublishInput identifies what to publish and where
type PublishInput struct {
	Platform     string
	Env          string
	Bucket       string
	SourceFolder string
}

// Result reports which uploads succeeded
type Result struct {
	ArchivePath        string
	ArchiveKey         string
	ArchiveUploaded    bool
	EntryPointKey      string
	EntryPointUploaded bool
}

// Publisher zips a source folder and uploads it with its entry point
type Publisher struct {
	client  S3API
	workDir string
}

// NewPublisher creates a Publisher that builds its archive in workDir
func NewPublisher(client S3API, workDir string) *Publisher {
	if workDir == "" {
		workDir = "."
	}
	return &Publisher{
		client:  client,
		workDir: workDir,
	}
}

// Publish uploads the zipped source folder and its entry point. A missing
// entry point aborts before anything is zipped or uploaded. Upload failures
// are logged and reported in Result; the local archive is removed either way.
func (p *Publisher) Publish(ctx context.Context, input PublishInput) (Result, error) {
	logger := zerolog.Ctx(ctx)

	source := input.SourceFolder
	if source == "" {
		source = DefaultSourceFolder
	}

	result := Result{
		ArchivePath:   filepath.Join(p.workDir, ArchiveName(input.Platform)),
		ArchiveKey:    CodeKey(input.Platform, input.Env),
		EntryPointKey: EntryPointKey(input.Platform, input.Env),
	}

	entryPoint := filepath.Join(source, EntryPoint)
	if info, err := os.Stat(entryPoint); err != nil || info.IsDir() {
		return result, fmt.Errorf("%w: %s", derrors.ErrEntryPointNotFound, entryPoint)
	}

	if err := ZipFolder(source, result.ArchivePath); err != nil {
		_ = os.Remove(result.ArchivePath)
		return result, err
	}
	if info, err := os.Stat(result.ArchivePath); err == nil {
		logger.Info().
			Str("archive", result.ArchivePath).
			Str("source", source).
			Str("size", humanize.Bytes(uint64(info.Size()))).
			Msg("Folder zipped")
	}

	defer func() {
		logger.Info().Str("archive", result.ArchivePath).Msg("Cleaning up archive")
		if err := os.Remove(result.ArchivePath); err != nil && !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("archive", result.ArchivePath).Msg("Failed to remove archive")
		}
	}()

	result.ArchiveUploaded = p.upload(ctx, result.ArchivePath, input.Bucket, result.ArchiveKey)
	result.EntryPointUploaded = p.upload(ctx, entryPoint, input.Bucket, result.EntryPointKey)

	if result.ArchiveUploaded && result.EntryPointUploaded {
		logger.Info().Str("bucket", input.Bucket).Msg("All files uploaded successfully")
	}
	return result, nil
}

func (p *Publisher) upload(ctx context.Context, path, bucket, key string) bool {
	logger := zerolog.Ctx(ctx).With().
		Str("file", path).
		Str("uri", fmt.Sprintf("s3://%s/%s", bucket, key)).
		Logger()

	f, err := os.Open(path)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open file for upload")
		return false
	}
	defer f.Close()

	logger.Info().Msg("Uploading")
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		logger.Error().
			Str("error_code", services.ErrorCode(err)).
			Msgf("Failed to upload %s: %s", path, services.ErrorMessage(err))
		return false
	}

	logger.Info().Msg("Uploaded")
	return true
}
