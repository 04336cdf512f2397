package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astraidlabs/veriado-searchcore/internal/executor"
	"github.com/astraidlabs/veriado-searchcore/internal/normalize"
	"github.com/astraidlabs/veriado-searchcore/internal/query"
	"github.com/astraidlabs/veriado-searchcore/pkg/searchcore"
)

type searchOptions struct {
	field string
	limit int
	fuzzy bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search against the indexed documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.field, "field", "f", "any", "restrict the query to one field: title, author, mime, metadata_text, metadata, any")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "maximum number of results")
	cmd.Flags().BoolVar(&opts.fuzzy, "fuzzy", false, "treat each term as an explicit fuzzy (trigram-backed) match")

	return cmd
}

func runSearch(ctx context.Context, queryText string, opts searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	core, err := searchcore.Open(ctx, searchcore.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to open search core: %w", err)
	}
	defer core.Close()

	builder := core.NewBuilder("")
	tokens := normalize.Tokens(queryText)
	if len(tokens) == 0 {
		return fmt.Errorf("query %q has no searchable tokens", queryText)
	}

	nodes := make([]query.Node, 0, len(tokens))
	for _, tok := range tokens {
		if opts.fuzzy {
			nodes = append(nodes, builder.Fuzzy(opts.field, tok, false))
		} else {
			nodes = append(nodes, builder.Term(opts.field, tok))
		}
	}

	root := builder.And(nodes...)
	plan, err := builder.Build(root, queryText)
	if err != nil {
		return err
	}

	hits, err := core.Search(ctx, plan, searchcore.SearchParams{Take: opts.limit})
	if err != nil {
		return err
	}

	return printHits(hits)
}

func printHits(hits []*executor.Hit) error {
	if wantsJSON(os.Stdout) {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}
	if len(hits) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("%d. %s  (score=%.4f)\n", i+1, h.Title, h.Rank)
		if h.Snippet != "" {
			fmt.Printf("   %s\n", h.Snippet)
		}
	}
	return nil
}
