package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docrag/internal/embed"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/index"
	"github.com/Aman-CERP/docrag/internal/store"
)

// Engine orchestrates hybrid search: a semantic lookup (embedding plus
// vector search) and a keyword lookup run concurrently, join, and feed
// fusion. Both branches must complete before fusion sees anything; a failed
// branch fails the whole search rather than degrading to one signal.
type Engine struct {
	embedder embed.Embedder
	vectors  store.VectorStore
	logger   *slog.Logger

	// snapshot holds the corpus and its keyword index, published together in
	// one atomic swap so readers never pair a new index with old documents.
	snapshot atomic.Pointer[corpusSnapshot]
}

// corpusSnapshot is an immutable point-in-time view of the corpus.
type corpusSnapshot struct {
	docs    []*store.Document
	byID    map[string]*store.Document
	keyword *index.Index
}

// Stats reports engine state for diagnostics.
type Stats struct {
	Documents  int
	Vectors    int
	VocabSize  int
	EmbedModel string
}

// NewEngine creates a search engine over the given embedder and vector store.
// The keyword side is empty until UpdateIndex is called.
func NewEngine(embedder embed.Embedder, vectors store.VectorStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
	}
}

// UpdateIndex rebuilds the keyword index over the given documents and
// publishes the new corpus snapshot. The build happens off to the side;
// searches in flight keep the old snapshot until the swap.
func (e *Engine) UpdateIndex(ctx context.Context, docs []*store.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()

	texts := make([]string, len(docs))
	byID := make(map[string]*store.Document, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
		byID[doc.ID] = doc
	}

	snap := &corpusSnapshot{
		docs:    docs,
		byID:    byID,
		keyword: index.New(texts),
	}
	e.snapshot.Store(snap)

	e.logger.Info("keyword index rebuilt",
		slog.Int("documents", len(docs)),
		slog.Int("vocabulary", snap.keyword.VocabSize()),
		slog.Duration("took", time.Since(start)))
	return nil
}

// Search runs the hybrid lookup and returns up to query.TopK fused results.
// An empty corpus or a query matching nothing yields an empty slice, not an
// error; callers distinguish "no results" from "search failed" by the error.
func (e *Engine) Search(ctx context.Context, query SearchQuery) ([]RankedResult, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}

	snap := e.snapshot.Load()
	if snap == nil || len(snap.docs) == 0 {
		return []RankedResult{}, nil
	}

	var semantic, keyword []Candidate

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		semantic, err = e.semanticLookup(gctx, snap, query)
		if err != nil {
			return fmt.Errorf("semantic lookup: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		keyword = e.keywordLookup(snap, query)
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ragerrors.SearchError("hybrid search failed", err)
	}

	results, err := Combine(semantic, keyword, query.SemanticWeight)
	if err != nil {
		return nil, err
	}

	if len(results) > query.TopK {
		results = results[:query.TopK]
	}

	e.logger.Debug("search complete",
		slog.String("query", query.Text),
		slog.Int("semantic_hits", len(semantic)),
		slog.Int("keyword_hits", len(keyword)),
		slog.Int("results", len(results)))
	return results, nil
}

// OptimizeResults filters results to fit a token budget, keeping the given
// order and stopping at the first overflow.
func (e *Engine) OptimizeResults(results []RankedResult, maxTokens int) []RankedResult {
	return OptimizeResults(results, maxTokens)
}

// Stats reports current corpus and index sizes.
func (e *Engine) Stats() Stats {
	s := Stats{
		Vectors:    e.vectors.Count(),
		EmbedModel: e.embedder.ModelName(),
	}
	if snap := e.snapshot.Load(); snap != nil {
		s.Documents = len(snap.docs)
		s.VocabSize = snap.keyword.VocabSize()
	}
	return s
}

// semanticLookup embeds the query and searches the vector store. Hits whose
// document is no longer in the corpus snapshot are dropped.
func (e *Engine) semanticLookup(ctx context.Context, snap *corpusSnapshot, query SearchQuery) ([]Candidate, error) {
	vec, err := e.embedder.Embed(ctx, query.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := e.vectors.Search(ctx, vec, query.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	candidates := make([]Candidate, 0, len(hits))
	for _, hit := range hits {
		doc, ok := snap.byID[hit.ID]
		if !ok {
			continue
		}
		if !matchesFilters(doc.Metadata, query.Filters) {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:       doc.ID,
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Score:    float64(hit.Score),
		})
	}
	return candidates, nil
}

// keywordLookup scores the query against the snapshot's keyword index.
// Pure CPU work over immutable state, so it cannot fail.
func (e *Engine) keywordLookup(snap *corpusSnapshot, query SearchQuery) []Candidate {
	scores := snap.keyword.Score(query.Text, query.TopK)

	candidates := make([]Candidate, 0, len(scores))
	for _, ds := range scores {
		doc := snap.docs[ds.Pos]
		if !matchesFilters(doc.Metadata, query.Filters) {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:       doc.ID,
			Text:     doc.Text,
			Metadata: doc.Metadata,
			Score:    ds.Score,
		})
	}
	return candidates
}

// validateQuery rejects malformed queries before any lookup runs.
func validateQuery(query SearchQuery) error {
	if strings.TrimSpace(query.Text) == "" {
		return ragerrors.New(ragerrors.ErrCodeInvalidQuery, "query text must not be empty", nil)
	}
	if query.TopK <= 0 {
		return ragerrors.New(ragerrors.ErrCodeInvalidInput,
			fmt.Sprintf("top_k must be positive, got %d", query.TopK), nil)
	}
	if query.SemanticWeight < 0 || query.SemanticWeight > 1 {
		return ragerrors.New(ragerrors.ErrCodeInvalidWeight,
			fmt.Sprintf("semantic weight must be in [0,1], got %g", query.SemanticWeight), nil)
	}
	return nil
}

// matchesFilters checks metadata equality filters. Nil filters match all.
func matchesFilters(metadata, filters map[string]string) bool {
	for k, want := range filters {
		if metadata[k] != want {
			return false
		}
	}
	return true
}
