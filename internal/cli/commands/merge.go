package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ccollicutt/logmerge/pkg/config"
	"github.com/ccollicutt/logmerge/pkg/merger"
	"github.com/ccollicutt/logmerge/pkg/metrics"
	"github.com/ccollicutt/logmerge/pkg/output"
	"github.com/ccollicutt/logmerge/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// MergeOptions holds command-line options for a merge run. Flags override the
// config file and environment only when set explicitly.
type MergeOptions struct {
	ConfigFile string

	OutputDir     string
	Suffix        string
	Workers       int
	Stream        bool
	DefaultYear   int
	LenientMonths bool
	LogLevel      string
	MetricsFile   string

	Format  string
	Verbose bool
	Quiet   bool

	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewMergeCommand creates the merge command. It serves as the root command:
// `logmerge <log-root>` merges with the built-in defaults.
func NewMergeCommand() *cobra.Command {
	opts := &MergeOptions{}

	cmd := &cobra.Command{
		Use:   "logmerge <log-root>",
		Short: "Merge per-worker log files into time-ordered logs",
		Long: `Merge same-named log files from the worker directories under <log-root>.

Every immediate subdirectory of <log-root> is a worker. Files ending in .log
that share a name (case-insensitive) across workers are merged into
<log-root>/merged-logs/<name>, ordered by their "Mon D H:M:S" timestamps. The
year comes from "**** BEGIN LOGGING <year>" lines. A name found in only one
worker is copied unchanged.

Exit codes:
  0 - All groups merged
  1 - One or more groups or files failed
  2 - Configuration or runtime error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	addConfigFlags(f, opts)
	f.IntVarP(&opts.Workers, "workers", "w", config.DefaultWorkers, "Groups merged concurrently")
	f.BoolVar(&opts.Stream, "stream", false, "Stream-merge with bounded memory; requires each file to be in order")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	f.StringVarP(&opts.Format, "format", "o", "text", "Report format (text|json)")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "List source files of every group")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Print only the totals line")

	f.StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	f.StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	f.StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnFailure), "When to fire webhook (on_failure|always|never)")

	return cmd
}

// addConfigFlags registers the flags shared by every command that reads
// log directories.
func addConfigFlags(f *pflag.FlagSet, opts *MergeOptions) {
	f.StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (YAML)")
	f.StringVar(&opts.OutputDir, "output-dir", "", "Output directory, relative to <log-root> unless absolute (default merged-logs)")
	f.StringVar(&opts.Suffix, "suffix", "", "Log file suffix (default .log)")
	f.IntVar(&opts.DefaultYear, "default-year", 0, "Year for records before the first marker (default 2011)")
	f.BoolVar(&opts.LenientMonths, "lenient-months", false, "Date unknown month names as January instead of dropping the line")
	f.StringVar(&opts.LogLevel, "log-level", config.DefaultLogLevel, "Log level (debug|info|warn|error)")
}

// apply copies explicitly set flags onto cfg.
func (o *MergeOptions) apply(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("output-dir") {
		cfg.OutputDir = o.OutputDir
	}
	if flags.Changed("suffix") {
		cfg.Suffix = o.Suffix
	}
	if flags.Changed("workers") {
		cfg.Workers = o.Workers
	}
	if flags.Changed("stream") {
		cfg.Mode = config.ModeBuffered
		if o.Stream {
			cfg.Mode = config.ModeStreaming
		}
	}
	if flags.Changed("default-year") {
		cfg.Parser.DefaultYear = o.DefaultYear
	}
	if flags.Changed("lenient-months") {
		cfg.Parser.LenientMonths = o.LenientMonths
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.LogLevel
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.MetricsFile
	}
	if o.WebhookURL != "" {
		cfg.Webhooks = append(cfg.Webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     o.WebhookURL,
			Token:   o.WebhookToken,
			Trigger: config.WebhookTrigger(o.WebhookTrigger),
			Timeout: config.DefaultWebhookTimeout,
		})
	}
}

func runMerge(cmd *cobra.Command, args []string, opts *MergeOptions) error {
	ExitCode = 0
	root := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, cmd.Flags(), opts)
	if err != nil {
		return err
	}
	if err := SetupLogging(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return err
	}

	formatter, err := output.NewFormatter(opts.Format, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if err != nil {
		return err
	}

	var rec *metrics.Recorder
	if cfg.MetricsFile != "" {
		rec = metrics.New()
	}

	m := merger.New(root, merger.Options{
		Scan:      cfg.ScanOptions(),
		Parser:    cfg.ParserOptions(),
		Workers:   cfg.Workers,
		Streaming: cfg.Mode == config.ModeStreaming,
		Metrics:   rec,
	})
	result, err := m.Run(ctx)
	if err != nil {
		return fmt.Errorf("merging %s: %w", root, err)
	}

	report := output.NewReport(result, opts.ConfigFile, string(cfg.Mode))
	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if rec != nil {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error().Err(err).Str("path", cfg.MetricsFile).Msg("Failed to write metrics")
		}
	}

	// Webhook failures are logged but don't fail the run.
	webhook.NewClient().Notify(ctx, cfg.Webhooks, report)

	log.Info().
		Int("groups", report.Summary.Groups).
		Int("failed", report.Summary.Failed).
		Int64("bytes", report.Summary.Bytes).
		Dur("duration", result.Duration()).
		Msg("Merge finished")

	if report.HasFailures() {
		ExitCode = 1
	}
	return nil
}

// loadConfig reads the config file or defaults, applies explicit flags and
// validates the result once.
func loadConfig(ctx context.Context, flags *pflag.FlagSet, opts *MergeOptions) (*config.Config, error) {
	cfg, err := config.Read(ctx, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	opts.apply(flags, cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}
