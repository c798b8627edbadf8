package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/ingest"
	"github.com/Aman-CERP/docrag/internal/store"
)

func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Watch a directory and keep the index in sync",
		Long: `Index the directory, then watch it for changes. Edits are
debounced and applied incrementally: modified files are re-chunked
and re-embedded, deleted files drop out of the index.

Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Event coalescing window (default from config)")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, dir string, debounce time.Duration) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lock, err := acquireLock(cfg)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	loader := ingest.NewLoader(ingest.NewChunker(cfg.Chunk.Size, cfg.Chunk.Overlap), slog.Default())

	// Initial sync so the watcher starts from a current index.
	docs, err := loader.LoadDir(ctx, dir)
	if err != nil {
		return err
	}
	if len(docs) > 0 {
		if err := replaceDocuments(ctx, a, docs); err != nil {
			return err
		}
		if err := a.vectors.Save(cfg.VectorIndexPath()); err != nil {
			return err
		}
		if err := a.refreshEngine(ctx); err != nil {
			return err
		}
	}

	window := cfg.Watch.Debounce
	if debounce > 0 {
		window = debounce
	}
	w, err := ingest.NewWatcher(dir, window, slog.Default())
	if err != nil {
		return err
	}
	defer w.Stop()
	go w.Start(ctx)

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (%d chunks indexed). Ctrl-C to stop.\n", dir, a.engine.Stats().Documents)

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-w.Batches():
			if !ok {
				return nil
			}
			if err := applyBatch(ctx, a, loader, dir, batch); err != nil {
				slog.Error("apply watch batch", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d change(s), %d chunks indexed.\n", len(batch), a.engine.Stats().Documents)
		}
	}
}

// applyBatch folds one debounced event batch into the stores and republishes
// the search snapshot.
func applyBatch(ctx context.Context, a *app, loader *ingest.Loader, root string, batch []ingest.FileEvent) error {
	var changed []*store.Document

	for _, ev := range batch {
		rel, err := filepath.Rel(root, ev.Path)
		if err != nil {
			rel = ev.Path
		}

		switch ev.Op {
		case ingest.OpDelete:
			if err := removeSource(ctx, a, rel); err != nil {
				return err
			}
		default:
			fileDocs, err := loader.LoadFile(ctx, ev.Path, rel)
			if err != nil {
				slog.Warn("skip unreadable file",
					slog.String("path", ev.Path),
					slog.String("error", err.Error()))
				continue
			}
			changed = append(changed, fileDocs...)
		}
	}

	if len(changed) > 0 {
		if err := replaceDocuments(ctx, a, changed); err != nil {
			return err
		}
	}

	if err := a.vectors.Save(a.cfg.VectorIndexPath()); err != nil {
		return err
	}
	return a.refreshEngine(ctx)
}

// removeSource drops every chunk of one source from both stores.
func removeSource(ctx context.Context, a *app, source string) error {
	existing, err := a.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}

	var ids []string
	for _, d := range existing {
		if d.Source == source {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	if err := a.vectors.Delete(ctx, ids); err != nil {
		return err
	}
	return a.docs.DeleteBySource(ctx, source)
}
