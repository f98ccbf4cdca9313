// Package config loads and validates explorer configuration
package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📦 Config is the top-level explorer configuration
type Config struct {
	// Archive configures the GGPK archive to open
	Archive ArchiveConfig `json:"archive" yaml:"archive" hcl:"archive,block"`

	// Regions are named byte ranges of interest within the archive
	Regions []RegionDefinition `json:"regions,omitempty" yaml:"regions,omitempty" hcl:"region,block"`

	// Log configures logging output
	Log *LogConfig `json:"log,omitempty" yaml:"log,omitempty" hcl:"log,block"`

	// location is the path this config was loaded from
	location string
}

// 🗄️ ArchiveConfig configures the archive and its dispatcher
type ArchiveConfig struct {
	// Path is the path to the GGPK archive file
	Path string `json:"path" yaml:"path" hcl:"path"`

	// QueueName names the dispatcher in logs (defaults to the archive path)
	QueueName string `json:"queue_name,omitempty" yaml:"queue_name,omitempty" hcl:"queue_name,optional"`

	// ShutdownDrainTimeout bounds how long a closing session waits for the
	// in-flight operation, as a Go duration string ("500ms", "2s"). Empty
	// means wait indefinitely.
	ShutdownDrainTimeout string `json:"shutdown_drain_timeout,omitempty" yaml:"shutdown_drain_timeout,omitempty" hcl:"shutdown_drain_timeout,optional"`
}

// DrainTimeout returns the parsed shutdown drain timeout, zero when unset.
// Validate has already rejected malformed values.
func (a ArchiveConfig) DrainTimeout() time.Duration {
	if a.ShutdownDrainTimeout == "" {
		return 0
	}
	d, err := time.ParseDuration(a.ShutdownDrainTimeout)
	if err != nil {
		return 0
	}
	return d
}

// 🗺️ RegionDefinition is a named byte range within the archive
type RegionDefinition struct {
	Name   string `json:"name" yaml:"name" hcl:"name,label"`
	Offset int64  `json:"offset" yaml:"offset" hcl:"offset"`
	Length int64  `json:"length" yaml:"length" hcl:"length"`
}

// 📋 LogConfig configures logging
type LogConfig struct {
	// Level is the minimum level to emit (trace, debug, info, warn, error)
	Level string `json:"level,omitempty" yaml:"level,omitempty" hcl:"level,optional"`
}

// Location returns the path this config was loaded from.
func (c *Config) Location() string {
	return c.location
}

// Hash returns a hash of the configuration
func (c *Config) Hash() string {
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ✅ Validate checks the config for problems a load can't catch
func Validate(ctx context.Context, cfg *Config) error {
	if cfg.Archive.Path == "" {
		return errors.Errorf("archive.path is required")
	}

	if cfg.Archive.ShutdownDrainTimeout != "" {
		d, err := time.ParseDuration(cfg.Archive.ShutdownDrainTimeout)
		if err != nil {
			return errors.Errorf("parsing archive.shutdown_drain_timeout: %w", err)
		}
		if d <= 0 {
			return errors.Errorf("archive.shutdown_drain_timeout must be positive, got %q", cfg.Archive.ShutdownDrainTimeout)
		}
	}

	seen := map[string]bool{}
	for _, r := range cfg.Regions {
		if r.Name == "" {
			return errors.Errorf("region name is required")
		}
		if seen[r.Name] {
			return errors.Errorf("duplicate region %q", r.Name)
		}
		seen[r.Name] = true
		if r.Offset < 0 {
			return errors.Errorf("region %q: offset must not be negative", r.Name)
		}
		if r.Length < 0 {
			return errors.Errorf("region %q: length must not be negative", r.Name)
		}
	}

	if cfg.Log != nil {
		switch cfg.Log.Level {
		case "", "trace", "debug", "info", "warn", "error":
		default:
			return errors.Errorf("unknown log level %q", cfg.Log.Level)
		}
	}

	return nil
}
