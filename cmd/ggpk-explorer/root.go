package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/caltus/ggpk-explorer-sub001/cmd/ggpk-explorer/opts"
	"github.com/caltus/ggpk-explorer-sub001/pkg/config"
	"github.com/caltus/ggpk-explorer-sub001/pkg/log"
)

var (
	// Flags
	configFile  string
	archivePath string
	debug       bool
)

// newRootOpts creates a new rootOpts with initialized dependencies
func newRootOpts(ctx context.Context) (*opts.RootOpts, error) {
	// An explicit archive path works without a config file
	if archivePath != "" {
		cfg := &config.Config{Archive: config.ArchiveConfig{Path: archivePath}}
		return &opts.RootOpts{Config: cfg, Debug: debug}, nil
	}

	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	return &opts.RootOpts{Config: cfg, Debug: debug}, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", ".ggpk-explorer.hcl", "config file path")
	cmd.PersistentFlags().StringVarP(&archivePath, "archive", "a", "", "archive path (overrides config)")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// opLogLevel picks the lifecycle logger level: debug wins, then the config's
// log level, then warn so per-operation lines stay out of normal output.
func opLogLevel(o *opts.RootOpts) zerolog.Level {
	if o.Debug {
		return zerolog.DebugLevel
	}
	if o.Config.Log != nil {
		return log.ParseLevel(o.Config.Log.Level)
	}
	return zerolog.WarnLevel
}

// setupLogging configures zerolog based on flags
func setupLogging() zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)
}
