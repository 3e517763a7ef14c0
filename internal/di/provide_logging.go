package di

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

// ProvideLogger creates a new zerolog.Logger configured for the runtime environment.
// In Lambda (when AWS_LAMBDA_RUNTIME_API is set), it uses JSON format.
// In terminal/CLI, it uses console format with pretty printing.
func ProvideLogger() zerolog.Logger {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		return newLogger(os.Stdout)
	}
	return newLogger(zerolog.ConsoleWriter{Out: os.Stdout})
}

func newLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}

// WithRunID tags every line of a single tool invocation with the tool name
// and a fresh KSUID
func WithRunID(logger zerolog.Logger, tool string) zerolog.Logger {
	return logger.With().
		Str("tool", tool).
		Str("run_id", ksuid.New().String()).
		Logger()
}
