// Package config provides configuration loading and validation for logmerge.
package config

import (
	"time"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// OutputDir receives one merged file per log name. Relative paths are
	// resolved against the log root; the directory is excluded from the scan.
	OutputDir string `yaml:"output_dir"`

	// Suffix selects log files by name (case-insensitive).
	Suffix string `yaml:"suffix"`

	Parser ParserConfig `yaml:"parser"`

	// Workers is the number of merge groups processed concurrently.
	Workers int `yaml:"workers"`

	// Mode selects the merge strategy (buffered or streaming).
	Mode MergeMode `yaml:"mode"`

	// LogLevel is the zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// MetricsFile, if set, receives run metrics in the Prometheus text
	// format for the node_exporter textfile collector.
	MetricsFile string `yaml:"metrics_file,omitempty"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// ParserConfig controls how log lines are dated.
type ParserConfig struct {
	// MarkerPrefix starts a line announcing the year of the records that
	// follow it. The last token of such a line is the 4-digit year.
	MarkerPrefix string `yaml:"marker_prefix"`

	// DefaultYear applies to records seen before the first marker.
	DefaultYear int `yaml:"default_year"`

	// LenientMonths maps unknown month abbreviations to January instead of
	// dropping the line.
	LenientMonths bool `yaml:"lenient_months"`
}

// MergeMode selects how a group with several files is merged.
type MergeMode string

const (
	// ModeBuffered reads the whole group into memory and sorts it.
	ModeBuffered MergeMode = "buffered"
	// ModeStreaming keeps one pending line per file. Requires each file to
	// be in timestamp order.
	ModeStreaming MergeMode = "streaming"
)

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnFailure fires only when a group or file failed (default).
	WebhookTriggerOnFailure WebhookTrigger = "on_failure"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending the run report.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_failure" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
