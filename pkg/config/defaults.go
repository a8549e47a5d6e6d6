package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ccollicutt/logmerge/pkg/discovery"
	"github.com/ccollicutt/logmerge/pkg/parser"
)

// Default values for configuration.
const (
	DefaultWorkers        = 1
	DefaultMode           = ModeBuffered
	DefaultLogLevel       = "info"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvOutputDir = "LOGMERGE_OUTPUT_DIR"
	EnvSuffix    = "LOGMERGE_SUFFIX"
	EnvWorkers   = "LOGMERGE_WORKERS"
	EnvLogLevel  = "LOGMERGE_LOG_LEVEL"
)

// DefaultConfig returns a configuration with the reference defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: discovery.DefaultOutputDir,
		Suffix:    discovery.DefaultSuffix,
		Parser: ParserConfig{
			MarkerPrefix: parser.DefaultMarkerPrefix,
			DefaultYear:  parser.DefaultYear,
		},
		Workers:  DefaultWorkers,
		Mode:     DefaultMode,
		LogLevel: DefaultLogLevel,
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvSuffix); v != "" {
		c.Suffix = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		// Invalid values are left for Validate to reject.
		if n, err := strconv.Atoi(v); err == nil {
			c.Workers = n
		} else {
			c.Workers = -1
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

// ScanOptions returns the directory layout options.
func (c *Config) ScanOptions() discovery.ScanOptions {
	return discovery.ScanOptions{
		OutputDir: c.OutputDir,
		Suffix:    c.Suffix,
	}
}

// ParserOptions returns the line parser options.
func (c *Config) ParserOptions() parser.Options {
	return parser.Options{
		MarkerPrefix:  c.Parser.MarkerPrefix,
		DefaultYear:   c.Parser.DefaultYear,
		LenientMonths: c.Parser.LenientMonths,
	}
}
