// Package cli provides the command-line interface for logmerge.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/logmerge/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute(ctx context.Context) int {
	rootCmd := NewRootCommand()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// SilenceErrors keeps cobra from printing this itself.
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command. Running it with a log root
// merges; the subcommands inspect and validate inputs.
func NewRootCommand() *cobra.Command {
	rootCmd := commands.NewMergeCommand()

	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
