package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luca-finance/luca/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var opts rootOptions

	rootCmd := &cobra.Command{
		Use:     "luca",
		Short:   "Personal finance ledger from bank exports",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "project directory")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (overrides luca.yaml)")

	rootCmd.AddCommand(
		newInitCommand(),
		newImportCommand(&opts),
		newCategorizeCommand(&opts),
		newSummaryCommand(&opts),
		newTransactionsCommand(&opts),
		newServeCommand(&opts),
		newSyncCommand(&opts),
	)

	return rootCmd
}

// rootOptions holds the persistent flags shared by project commands.
type rootOptions struct {
	dir      string
	logLevel string
}
