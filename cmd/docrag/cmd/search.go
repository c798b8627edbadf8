package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/search"
	"github.com/Aman-CERP/docrag/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit   int
	weight  float64
	filters []string // key=value metadata filters
	format  string   // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed documents",
		Long: `Search indexed documents with hybrid retrieval: semantic
similarity and TF-IDF keyword matching fused into one ranking.

Examples:
  docrag search "kubernetes deployment"
  docrag search "error handling" -n 3 --weight 0.5
  docrag search "setup" --filter source=README.md --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().Float64VarP(&opts.weight, "weight", "w", -1, "Semantic weight in [0,1]; 0 is keyword-only, 1 is semantic-only")
	cmd.Flags().StringSliceVar(&opts.filters, "filter", nil, "Metadata filter key=value (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := buildQuery(a, query, opts)
	if err != nil {
		return err
	}

	results, err := a.engine.Search(ctx, q)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	ui.NewRenderer(cmd.OutOrStdout()).RenderResults(results)
	return nil
}

// buildQuery merges config defaults with command-line overrides.
func buildQuery(a *app, text string, opts searchOptions) (search.SearchQuery, error) {
	q := search.SearchQuery{
		Text:           text,
		TopK:           a.cfg.Search.TopK,
		SemanticWeight: a.cfg.Search.SemanticWeight,
	}
	if opts.limit > 0 {
		q.TopK = opts.limit
	}
	if opts.weight >= 0 {
		q.SemanticWeight = opts.weight
	}

	if len(opts.filters) > 0 {
		q.Filters = make(map[string]string, len(opts.filters))
		for _, f := range opts.filters {
			key, value, ok := strings.Cut(f, "=")
			if !ok || key == "" {
				return q, fmt.Errorf("invalid filter %q, expected key=value", f)
			}
			q.Filters[key] = value
		}
	}
	return q, nil
}
