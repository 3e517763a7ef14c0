package commands

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/savaki/datalake-loader/internal/di"
	"github.com/urfave/cli/v2"
)

// positional returns the i-th positional argument or def when absent
func positional(c *cli.Context, i int, def string) string {
	if c.NArg() > i {
		return c.Args().Get(i)
	}
	return def
}

// requireArgs fails with the command usage when fewer than n positional
// arguments were given
func requireArgs(c *cli.Context, n int) error {
	if c.NArg() >= n {
		return nil
	}
	usage := strings.TrimSpace(c.Command.UsageText)
	return cli.Exit("Usage: "+usage, 1)
}

// runContext tags the logger for a single command run and attaches it to ctx
func runContext(ctx context.Context, logger *zerolog.Logger, tool string) (context.Context, zerolog.Logger) {
	runLogger := di.WithRunID(*logger, tool)
	return runLogger.WithContext(ctx), runLogger
}
