package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/ingest"
	"github.com/Aman-CERP/docrag/internal/store"
	"github.com/Aman-CERP/docrag/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "index <directory>",
		Short: "Index documents in a directory",
		Long: `Chunk, embed, and index every supported file (.txt, .md) under
the given directory. Re-indexing a directory replaces its previous
chunks; other sources are untouched.

Examples:
  docrag index ./docs
  docrag index ~/notes --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Discard the existing index and rebuild from scratch")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, dir string, force bool) error {
	started := time.Now()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lock, err := acquireLock(cfg)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	if force {
		for _, path := range []string{
			cfg.DocumentDBPath(),
			cfg.VectorIndexPath(),
			cfg.VectorIndexPath() + ".meta",
		} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %s: %w", path, err)
			}
		}
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	loader := ingest.NewLoader(ingest.NewChunker(cfg.Chunk.Size, cfg.Chunk.Overlap), slog.Default())
	docs, err := loader.LoadDir(ctx, dir)
	if err != nil {
		return err
	}

	r := ui.NewRenderer(cmd.OutOrStdout())
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No supported documents found.")
		return nil
	}

	if err := replaceDocuments(ctx, a, docs); err != nil {
		return err
	}
	if err := a.vectors.Save(cfg.VectorIndexPath()); err != nil {
		return err
	}
	if err := a.refreshEngine(ctx); err != nil {
		return err
	}

	stats := a.engine.Stats()
	r.RenderKV("Indexed", fmt.Sprintf("%d chunks from %s", len(docs), dir))
	r.RenderKV("Documents", fmt.Sprintf("%d", stats.Documents))
	r.RenderKV("Vectors", fmt.Sprintf("%d", stats.Vectors))
	r.RenderKV("Model", stats.EmbedModel)
	r.RenderKV("Took", time.Since(started).Round(time.Millisecond).String())
	return nil
}

// replaceDocuments swaps in new chunks for their sources: stale chunks from
// the same sources are dropped from both stores first, so chunk counts can
// shrink without leaving orphans.
func replaceDocuments(ctx context.Context, a *app, docs []*store.Document) error {
	sources := make(map[string]bool, len(docs))
	for _, d := range docs {
		sources[d.Source] = true
	}

	existing, err := a.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}
	var stale []string
	for _, d := range existing {
		if sources[d.Source] {
			stale = append(stale, d.ID)
		}
	}
	if len(stale) > 0 {
		if err := a.vectors.Delete(ctx, stale); err != nil {
			return err
		}
		if err := a.docs.DeleteDocuments(ctx, stale); err != nil {
			return err
		}
	}

	if err := a.docs.SaveDocuments(ctx, docs); err != nil {
		return err
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
		texts[i] = d.Text
	}
	vectors, err := a.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	return a.vectors.Add(ctx, ids, vectors)
}
