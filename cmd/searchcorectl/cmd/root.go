// Package cmd provides the searchcorectl CLI commands.
package cmd

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/astraidlabs/veriado-searchcore/internal/config"
)

var (
	configPath string
	dbPath     string
	jsonOutput bool
)

// NewRootCmd creates the root command for searchcorectl.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "searchcorectl",
		Short: "Exercise the Veriado search core from the command line",
		Long: `searchcorectl is a thin demonstration CLI over pkg/searchcore:
compile and run a hybrid MATCH query, inspect or repair the FTS
schema, and browse search history and favorites.`,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (optional)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides config)")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "force JSON output (default: plain text on a terminal, JSON otherwise)")

	root.AddCommand(newSearchCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newFavoritesCmd())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig loads configuration, applying --db as an override of
// schema.database_path when set.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Schema.DatabasePath = dbPath
	}
	return cfg, nil
}

// wantsJSON mirrors the teacher's TTY-aware rendering: plain text on
// an interactive terminal, JSON otherwise, unless --json forces it.
func wantsJSON(out *os.File) bool {
	if jsonOutput {
		return true
	}
	return !isatty.IsTerminal(out.Fd()) && !isatty.IsCygwinTerminal(out.Fd())
}
