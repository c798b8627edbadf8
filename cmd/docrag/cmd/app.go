package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Aman-CERP/docrag/internal/config"
	"github.com/Aman-CERP/docrag/internal/embed"
	"github.com/Aman-CERP/docrag/internal/search"
	"github.com/Aman-CERP/docrag/internal/store"
)

// app bundles the wired components a command run needs. Commands open it,
// use what they need, and Close it on the way out.
type app struct {
	cfg      *config.Config
	embedder embed.Embedder
	docs     store.DocumentStore
	vectors  *store.HNSWStore
	engine   *search.Engine
}

// openApp loads config, connects the embedder and stores, and builds the
// search engine over the persisted corpus.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	embedder, err := embed.New(ctx, embed.Backend(cfg.Ollama.EmbedBackend), embed.OllamaConfig{
		Host:  cfg.Ollama.Host,
		Model: cfg.Ollama.EmbedModel,
	})
	if err != nil {
		return nil, err
	}

	docs, err := store.NewSQLiteStore(cfg.DocumentDBPath())
	if err != nil {
		embedder.Close()
		return nil, err
	}

	vectors, err := openVectors(cfg, embedder.Dimensions())
	if err != nil {
		docs.Close()
		embedder.Close()
		return nil, err
	}

	engine := search.NewEngine(embedder, vectors, slog.Default())

	corpus, err := docs.ListDocuments(ctx)
	if err != nil {
		vectors.Close()
		docs.Close()
		embedder.Close()
		return nil, err
	}
	if err := engine.UpdateIndex(ctx, corpus); err != nil {
		vectors.Close()
		docs.Close()
		embedder.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		embedder: embedder,
		docs:     docs,
		vectors:  vectors,
		engine:   engine,
	}, nil
}

func (a *app) Close() {
	a.vectors.Close()
	a.docs.Close()
	a.embedder.Close()
}

// refreshEngine rebuilds the in-memory corpus snapshot after a write.
func (a *app) refreshEngine(ctx context.Context) error {
	corpus, err := a.docs.ListDocuments(ctx)
	if err != nil {
		return err
	}
	return a.engine.UpdateIndex(ctx, corpus)
}

// openVectors loads the persisted HNSW index when present, otherwise starts
// an empty one sized for the active embedder.
func openVectors(cfg *config.Config, dims int) (*store.HNSWStore, error) {
	vs, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(dims))
	if err != nil {
		return nil, err
	}

	path := cfg.VectorIndexPath()
	if _, statErr := os.Stat(path); statErr != nil {
		return vs, nil
	}

	if err := vs.Load(path); err != nil {
		vs.Close()
		return nil, fmt.Errorf("load vector index %s: %w", path, err)
	}
	if got := vs.Dimensions(); got != dims {
		vs.Close()
		return nil, store.ErrDimensionMismatch{Expected: dims, Got: got}
	}
	return vs, nil
}

// acquireLock takes the data-dir write lock or fails with a clear message.
func acquireLock(cfg *config.Config) (*store.IndexLock, error) {
	lock := store.NewIndexLock(cfg.DataDir)
	acquired, err := lock.TryLock()
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, fmt.Errorf("another docrag process is writing to %s (lock: %s)", cfg.DataDir, lock.Path())
	}
	return lock, nil
}
