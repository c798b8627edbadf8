package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/llm"
	"github.com/Aman-CERP/docrag/internal/rag"
	"github.com/Aman-CERP/docrag/internal/ui"
)

// askOptions holds CLI flags for ask.
type askOptions struct {
	searchOptions
	model     string
	maxTokens int
}

func newAskCmd() *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed documents",
		Long: `Retrieve relevant chunks with hybrid search, pack them into a
token-budgeted context, and generate a grounded answer with Ollama.

Examples:
  docrag ask "how do I configure the watcher?"
  docrag ask "what ports does the server use?" --model mistral -n 8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of retrieved chunks (default from config)")
	cmd.Flags().Float64VarP(&opts.weight, "weight", "w", -1, "Semantic weight in [0,1]")
	cmd.Flags().StringSliceVar(&opts.filters, "filter", nil, "Metadata filter key=value (repeatable)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Generation model (default from config)")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "Context token budget (default from config)")

	return cmd
}

func runAsk(ctx context.Context, cmd *cobra.Command, question string, opts askOptions) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	model := a.cfg.Ollama.GenerateModel
	if opts.model != "" {
		model = opts.model
	}
	maxTokens := a.cfg.Search.MaxTokens
	if opts.maxTokens > 0 {
		maxTokens = opts.maxTokens
	}

	generator := llm.NewOllamaGenerator(llm.Config{
		Host:        a.cfg.Ollama.Host,
		Model:       model,
		Temperature: a.cfg.Ollama.Temperature,
	})
	defer generator.Close()

	engine := rag.NewEngine(a.engine, generator, maxTokens, slog.Default())

	q, err := buildQuery(a, question, opts.searchOptions)
	if err != nil {
		return err
	}

	answer, err := engine.ProcessQuery(ctx, q)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	ui.NewRenderer(cmd.OutOrStdout()).RenderAnswer(answer)
	return nil
}
