package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astraidlabs/veriado-searchcore/pkg/searchcore"
)

func newFavoritesCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "favorites",
		Short: "Manage named saved queries",
	}
	root.AddCommand(newFavoritesListCmd())
	root.AddCommand(newFavoritesAddCmd())
	return root
}

func newFavoritesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorites in saved order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFavoritesList(cmd.Context())
		},
	}
}

func newFavoritesAddCmd() *cobra.Command {
	var match, queryText string
	var fuzzy bool
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Save the given match expression under a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if match == "" {
				return fmt.Errorf("--match is required")
			}
			return runFavoritesAdd(cmd.Context(), args[0], queryText, match, fuzzy)
		},
	}
	cmd.Flags().StringVar(&match, "match", "", "the compiled MATCH expression to save")
	cmd.Flags().StringVar(&queryText, "query-text", "", "the original free-text query, if any")
	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "mark the saved query as fuzzy")
	return cmd
}

func runFavoritesList(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	core, err := searchcore.Open(ctx, searchcore.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to open search core: %w", err)
	}
	defer core.Close()

	favs, err := core.History().ListFavorites(ctx)
	if err != nil {
		return err
	}

	if wantsJSON(os.Stdout) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(favs)
	}

	if len(favs) == 0 {
		fmt.Println("no favorites")
		return nil
	}
	for _, f := range favs {
		fmt.Printf("%d. %s  %s\n", f.Position, f.Name, f.Match)
	}
	return nil
}

func runFavoritesAdd(ctx context.Context, name, queryText, match string, fuzzy bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	core, err := searchcore.Open(ctx, searchcore.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to open search core: %w", err)
	}
	defer core.Close()

	fav, err := core.History().AddFavorite(ctx, name, queryText, match, fuzzy)
	if err != nil {
		return err
	}
	fmt.Printf("saved favorite %q at position %d\n", fav.Name, fav.Position)
	return nil
}
