package embed

import (
	"context"
	"log/slog"
)

// Backend selects an embedding implementation.
type Backend string

const (
	// BackendAuto tries Ollama first and falls back to static.
	BackendAuto Backend = "auto"
	// BackendOllama requires a running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendStatic uses the offline hash embedder.
	BackendStatic Backend = "static"
)

// New creates an embedder for the requested backend, wrapped in an LRU cache.
// With BackendAuto an unreachable Ollama degrades to the static embedder
// instead of failing, so indexing works offline.
func New(ctx context.Context, backend Backend, cfg OllamaConfig) (Embedder, error) {
	switch backend {
	case BackendStatic:
		return NewCachedEmbedder(NewStaticEmbedder(), DefaultEmbeddingCacheSize), nil

	case BackendOllama:
		inner, err := NewOllamaEmbedder(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewCachedEmbedder(inner, DefaultEmbeddingCacheSize), nil

	default: // BackendAuto
		inner, err := NewOllamaEmbedder(ctx, cfg)
		if err != nil {
			slog.Warn("ollama unavailable, using static embeddings",
				slog.String("host", cfg.Host),
				slog.String("error", err.Error()))
			return NewCachedEmbedder(NewStaticEmbedder(), DefaultEmbeddingCacheSize), nil
		}
		return NewCachedEmbedder(inner, DefaultEmbeddingCacheSize), nil
	}
}
