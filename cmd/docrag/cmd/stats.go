package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/ui"
)

// statsOutput is the JSON output format for index stats.
type statsOutput struct {
	Documents  int    `json:"documents"`
	Vectors    int    `json:"vectors"`
	VocabSize  int    `json:"vocab_size"`
	EmbedModel string `json:"embed_model"`
	DataDir    string `json:"data_dir"`
}

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long:  `Display the size of the document corpus, vector index, and keyword vocabulary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := a.engine.Stats()
	out := statsOutput{
		Documents:  stats.Documents,
		Vectors:    stats.Vectors,
		VocabSize:  stats.VocabSize,
		EmbedModel: stats.EmbedModel,
		DataDir:    a.cfg.DataDir,
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	r := ui.NewRenderer(cmd.OutOrStdout())
	r.RenderKV("Documents", fmt.Sprintf("%d", out.Documents))
	r.RenderKV("Vectors", fmt.Sprintf("%d", out.Vectors))
	r.RenderKV("Vocabulary", fmt.Sprintf("%d", out.VocabSize))
	r.RenderKV("Embed model", out.EmbedModel)
	r.RenderKV("Data dir", out.DataDir)
	return nil
}
