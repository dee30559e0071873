package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luca-finance/luca/internal/categorize"
	"github.com/luca-finance/luca/internal/config"
	"github.com/luca-finance/luca/internal/gitops"
	"github.com/luca-finance/luca/internal/importer"
)

const rulesFile = "rules/categorization-rules.yaml"

func newInitCommand() *cobra.Command {
	var userID string
	var driver string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new luca project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, userID, driver)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "ledger owner id (required)")
	_ = cmd.MarkFlagRequired("user")
	cmd.Flags().StringVar(&driver, "storage", "sqlite", "storage driver: sqlite, postgres or none")

	return cmd
}

func runInit(cmd *cobra.Command, dir, userID, driver string) error {
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	cfg := config.Default(userID)
	cfg.Storage.Driver = driver
	cfg.Rules.File = rulesFile
	if driver == "postgres" {
		cfg.Storage.DSN = "postgres://localhost:5432/luca?sslmode=disable"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Create directory structure.
	dirs := []string{
		"rules",
		"ledger",
		"data",
		cfg.Import.Dir,
		filepath.Join(cfg.Import.Dir, importer.ProcessedDir),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Seed the rule file with the built-in rules so they can be edited.
	if err := categorize.SaveRules(filepath.Join(dir, rulesFile), categorize.DefaultRules()); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	// The SQLite mirror can always be rebuilt from the ledger.
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("data/\n"), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	for _, d := range []string{cfg.Import.Dir, "ledger"} {
		if err := os.WriteFile(filepath.Join(dir, d, ".gitkeep"), []byte{}, 0o644); err != nil {
			return fmt.Errorf("writing .gitkeep: %w", err)
		}
	}

	if err := gitops.Init(dir); err != nil {
		return fmt.Errorf("git init: %w", err)
	}

	hash, err := gitops.CommitAll(dir, "init: Initialize ledger for "+userID, cfg.Git.AuthorName, cfg.Git.AuthorEmail)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized luca project at %s (%s)\n", dir, hash)
	return nil
}
