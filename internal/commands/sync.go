package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the local ledger to the database",
		Long: "Push every ledger row to the configured database. Rows already\n" +
			"stored are left untouched, so sync is safe to repeat.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ctx, err := openProject(commandContext(cmd), opts)
			if err != nil {
				return err
			}
			defer p.Close()

			if p.remote == nil {
				return fmt.Errorf("no database available (storage.driver is %q)", p.cfg.Storage.Driver)
			}

			res, err := p.svc.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d transactions synced\n", res.Saved, res.Attempted)
			if res.Err != nil {
				return fmt.Errorf("sync incomplete: %w", res.Err)
			}
			return nil
		},
	}
}
