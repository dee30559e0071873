package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luca-finance/luca/internal/config"
	"github.com/luca-finance/luca/internal/gitops"
	"github.com/luca-finance/luca/internal/importer"
	"github.com/luca-finance/luca/internal/ingest"
)

func newImportCommand(opts *rootOptions) *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import bank exports into the ledger",
		Long: "Import CaixaBank or Revolut CSV exports. Without arguments every file\n" +
			"in the import directory is imported and moved to import/processed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts, args, keep)
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "leave scanned files in the import directory")

	return cmd
}

func runImport(cmd *cobra.Command, opts *rootOptions, args []string, keep bool) error {
	p, ctx, err := openProject(commandContext(cmd), opts)
	if err != nil {
		return err
	}
	defer p.Close()

	importDir := config.Path(p.dir, p.cfg.Import.Dir)
	scanned := len(args) == 0

	var files []importer.File
	if scanned {
		if files, err = importer.Scan(importDir); err != nil {
			return err
		}
	} else {
		for _, a := range args {
			files = append(files, importer.File{Name: filepath.Base(a), Path: a})
		}
	}

	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintf(out, "No files to import in %s\n", importDir)
		return nil
	}

	outcomes := p.svc.ImportFiles(ctx, files)

	failed, added := 0, 0
	for _, o := range outcomes {
		printOutcome(out, o)
		if o.Err != nil {
			failed++
			continue
		}
		added += o.Save.Attempted
		if scanned && !keep {
			if err := importer.MarkProcessed(importDir, o.Name); err != nil {
				p.log.Warn().Err(err).Str("file", o.Name).Msg("moving to processed")
			}
		}
	}

	if err := autoCommit(p, fmt.Sprintf("import: %d new transactions from %d file(s)", added, len(outcomes)-failed)); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(outcomes))
	}
	return nil
}

func printOutcome(w io.Writer, o ingest.FileOutcome) {
	if o.Err != nil {
		fmt.Fprintf(w, "%s: error: %v\n", o.Name, o.Err)
		return
	}
	fmt.Fprintf(w, "%s: %s, %d parsed, %d new, %d saved", o.Name, o.Source(), o.Parsed, o.Save.Attempted, o.Save.Saved)
	if o.Save.Local {
		fmt.Fprint(w, " (local ledger only)")
	}
	fmt.Fprintln(w)
	if o.Save.Err != nil {
		fmt.Fprintf(w, "  warning: %v\n", o.Save.Err)
	}
}

// autoCommit commits ledger changes when the project asks for it.
func autoCommit(p *project, message string) error {
	if !p.cfg.Git.AutoCommit || !gitops.IsRepo(p.dir) {
		return nil
	}
	changed, err := gitops.HasChanges(p.dir)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	hash, err := gitops.CommitAll(p.dir, message, p.cfg.Git.AuthorName, p.cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("committing ledger: %w", err)
	}
	p.log.Info().Str("commit", hash).Msg(message)
	return nil
}

// commandContext returns the command context, or a background context
// when the command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
