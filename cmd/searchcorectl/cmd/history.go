package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astraidlabs/veriado-searchcore/pkg/searchcore"
)

func newHistoryCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "history",
		Short: "Browse recent search history",
	}
	root.AddCommand(newHistoryListCmd())
	return root
}

func newHistoryListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent history entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	return cmd
}

func runHistoryList(ctx context.Context, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	core, err := searchcore.Open(ctx, searchcore.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to open search core: %w", err)
	}
	defer core.Close()

	entries, err := core.History().List(ctx, limit)
	if err != nil {
		return err
	}

	if wantsJSON(os.Stdout) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("no history entries")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  executions=%d  last_hits=%d  %s\n", e.CreatedUTC.Format("2006-01-02T15:04:05Z"), e.Executions, e.LastTotalHits, e.Match)
	}
	return nil
}
