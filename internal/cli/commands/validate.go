package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a logmerge configuration file without merging anything.

Checks:
  - YAML syntax
  - Value ranges (workers, default_year, mode, log_level)
  - Webhook URLs and triggers

Environment overrides (LOGMERGE_*) are applied before validation.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	opts := &MergeOptions{ConfigFile: configPath}
	cfg, err := loadConfig(ctx, cmd.Flags(), opts)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Output dir:    %s\n", cfg.OutputDir)
	fmt.Fprintf(w, "  Suffix:        %s\n", cfg.Suffix)
	fmt.Fprintf(w, "  Marker prefix: %s\n", cfg.Parser.MarkerPrefix)
	fmt.Fprintf(w, "  Default year:  %d\n", cfg.Parser.DefaultYear)
	fmt.Fprintf(w, "  Months:        %s\n", monthPolicy(cfg.Parser.LenientMonths))
	fmt.Fprintf(w, "  Mode:          %s\n", cfg.Mode)
	fmt.Fprintf(w, "  Workers:       %d\n", cfg.Workers)
	if cfg.MetricsFile != "" {
		fmt.Fprintf(w, "  Metrics file:  %s\n", cfg.MetricsFile)
	}

	if len(cfg.Webhooks) > 0 {
		fmt.Fprintf(w, "\nWebhooks:\n")
		for i, wh := range cfg.Webhooks {
			name := wh.Name
			if name == "" {
				name = wh.URL
			}
			fmt.Fprintf(w, "  %d. %s [%s, timeout %s]\n", i+1, name, wh.Trigger, wh.Timeout)
		}
	}

	return nil
}

func monthPolicy(lenient bool) string {
	if lenient {
		return "lenient (unknown names date as January)"
	}
	return "strict (unknown names are malformed)"
}
