// Package configloader upserts JSON config templates into the platform config table.
//
// Templates live in named folders under a config root. Before parsing, each
// template has its ${NAME} tokens replaced with the variables for the target
// environment, taken from vars/default.vars.json and the optional
// vars/<name>.vars.json override.
package configloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/savaki/datalake-loader/internal/dao/configdao"
	"github.com/savaki/datalake-loader/internal/services"
	"github.com/savaki/datalake-loader/internal/utils"
	"github.com/savaki/gox/slicex"
)

// DefaultFolder is loaded when no folders are named
const DefaultFolder = "rest"

// Store is the table the loader writes to
type Store interface {
	PartitionKey() string
	Exists(ctx context.Context, keyValue any) (bool, error)
	Put(ctx context.Context, item configdao.Item) error
}

var _ Store = (*configdao.DAO)(nil)

// Summary counts what a load did
type Summary struct {
	Files       int // Files read and parsed
	FailedFiles int // Files or folders that could not be read or parsed
	Inserted    int // Records written that did not exist before
	Updated     int // Records written over an existing record
	Skipped     int // Records without a partition key value
	Failed      int // Records whose existence check or write failed
}

// Add accumulates other into s
func (s *Summary) Add(other Summary) {
	s.Files += other.Files
	s.FailedFiles += other.FailedFiles
	s.Inserted += other.Inserted
	s.Updated += other.Updated
	s.Skipped += other.Skipped
	s.Failed += other.Failed
}

// Loader upserts config templates for one environment
type Loader struct {
	store       Store
	root        string
	environment string
}

// New creates a Loader reading templates below root
func New(store Store, root, environment string) *Loader {
	return &Loader{
		store:       store,
		root:        root,
		environment: environment,
	}
}

// skipFile reports whether name is excluded from loading. The condition can
// never hold, so every file is loaded, vars files and non-JSON files included.
func skipFile(name string) bool {
	return !strings.HasSuffix(name, ".json") && strings.HasSuffix(name, VarsSuffix)
}

// LoadFolders loads every file of each folder below the config root. Empty
// folder names are ignored.
// Failures are logged and counted; they never stop later folders or files.
func (l *Loader) LoadFolders(ctx context.Context, folders ...string) Summary {
	logger := zerolog.Ctx(ctx)

	folders = slicex.FilterNonzero(folders)
	if len(folders) == 0 {
		folders = []string{DefaultFolder}
	}

	var summary Summary
	for _, folder := range folders {
		dir := filepath.Join(l.root, folder)
		entries, err := os.ReadDir(dir)
		if err != nil {
			logger.Error().Err(err).Str("folder", dir).Msg("Failed to list config folder")
			summary.FailedFiles++
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || skipFile(entry.Name()) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			fileSummary, err := l.LoadFile(ctx, path)
			if err != nil {
				logger.Error().Err(err).Str("file", path).Msg("Failed to load config file")
				summary.FailedFiles++
				continue
			}
			summary.Add(fileSummary)
		}
	}

	logger.Info().
		Int("files", summary.Files).
		Int("failed_files", summary.FailedFiles).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("Config load complete")

	return summary
}

// LoadFile resolves the vars for path, substitutes them and upserts the
// resulting record or records
func (l *Loader) LoadFile(ctx context.Context, path string) (Summary, error) {
	logger := zerolog.Ctx(ctx)

	vars, err := LoadVars(l.environment, VarsFiles(l.root, path)...)
	if err != nil {
		return Summary{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	records, err := ParseRecords([]byte(Substitute(string(data), vars)))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	logger.Info().
		Str("file", path).
		Int("records", len(records)).
		Int("vars", len(vars)).
		Msg("Loading config file")

	summary := l.UpsertRecords(ctx, records)
	summary.Files = 1
	return summary, nil
}

// ParseRecords parses a template into a list of records. A single object
// becomes a one-element list. Numbers are kept as json.Number.
func ParseRecords(data []byte) ([]any, error) {
	var v any
	if err := utils.DecodeJSON(data, &v); err != nil {
		return nil, err
	}
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

// UpsertRecords writes each record whole. Records without a partition key
// value are skipped and per-record API errors are logged, not returned.
func (l *Loader) UpsertRecords(ctx context.Context, records []any) Summary {
	logger := zerolog.Ctx(ctx)
	pk := l.store.PartitionKey()

	var summary Summary
	for _, record := range records {
		item, ok := record.(map[string]any)
		if !ok {
			logger.Warn().Interface("item", record).Msg("Skipping item that is not a JSON object")
			summary.Skipped++
			continue
		}

		keyValue := item[pk]
		if keyValue == nil {
			logger.Warn().
				Str("partition_key", pk).
				Interface("item", item).
				Msgf("Skipping item without partition key '%s'", pk)
			summary.Skipped++
			continue
		}

		exists, err := l.store.Exists(ctx, keyValue)
		if err != nil {
			logger.Error().
				Interface("key", keyValue).
				Str("error_code", services.ErrorCode(err)).
				Msgf("Error processing item %v: %s", keyValue, services.ErrorMessage(err))
			summary.Failed++
			continue
		}

		if exists {
			logger.Info().Interface("key", keyValue).Msgf("Updating existing item: %v", keyValue)
		} else {
			logger.Info().Interface("key", keyValue).Msgf("Inserting new item: %v", keyValue)
		}

		if err := l.store.Put(ctx, item); err != nil {
			logger.Error().
				Interface("key", keyValue).
				Str("error_code", services.ErrorCode(err)).
				Msgf("Error processing item %v: %s", keyValue, services.ErrorMessage(err))
			summary.Failed++
			continue
		}

		if exists {
			summary.Updated++
		} else {
			summary.Inserted++
		}
	}
	return summary
}
