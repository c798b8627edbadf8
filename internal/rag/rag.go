// Package rag turns a question into a grounded answer: search the corpus,
// pack the top results into a token-bounded context, and generate.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/docrag/internal/llm"
	"github.com/Aman-CERP/docrag/internal/search"
)

// NoResultsAnswer is returned when the corpus has nothing relevant. An empty
// result list is not an error, so downstream consumers get a graceful answer
// instead of a failure.
const NoResultsAnswer = "Sorry, I could not find any relevant information for this question."

// systemPrompt instructs the model to stay grounded in the retrieved context.
const systemPrompt = "You are a helpful assistant. Answer the question using only the provided context. " +
	"If the context does not contain enough information, say so instead of guessing."

// Confidence blend weights. Relevance of the retrieved sources dominates;
// answer length and source count are secondary signals.
const (
	relevanceWeight = 0.5
	lengthWeight    = 0.3
	sourceWeight    = 0.2
)

// Searcher is the retrieval capability the RAG engine needs.
type Searcher interface {
	Search(ctx context.Context, query search.SearchQuery) ([]search.RankedResult, error)
}

// Answer is a generated response with its supporting sources.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the context entries the answer was grounded on, in ranking
	// order. Empty when no relevant documents were found.
	Sources []search.Source

	// Confidence estimates answer quality in [0,1].
	Confidence float64

	// Model is the generation model used. Empty for no-result answers.
	Model string

	// ContextTokens is the estimated token count of the packed context.
	ContextTokens int

	// Timestamp records when the answer was produced.
	Timestamp time.Time
}

// Engine wires retrieval and generation together.
type Engine struct {
	searcher  Searcher
	generator llm.Generator
	maxTokens int
	logger    *slog.Logger
}

// NewEngine creates a RAG engine. maxTokens bounds the packed context;
// zero or negative uses the default budget.
func NewEngine(searcher Searcher, generator llm.Generator, maxTokens int, logger *slog.Logger) *Engine {
	if maxTokens <= 0 {
		maxTokens = search.DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		searcher:  searcher,
		generator: generator,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// ProcessQuery retrieves context for the query and generates an answer.
// Search and generation failures are returned as errors; an empty corpus or
// an unmatched query yields the no-results answer with zero confidence.
func (e *Engine) ProcessQuery(ctx context.Context, query search.SearchQuery) (*Answer, error) {
	results, err := e.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		e.logger.Info("no results for query", slog.String("query", query.Text))
		return &Answer{
			Text:      NoResultsAnswer,
			Sources:   []search.Source{},
			Timestamp: time.Now(),
		}, nil
	}

	gc := search.BuildContext(results, e.maxTokens)

	response, err := e.generator.Generate(ctx, llm.GenerateRequest{
		Prompt: BuildPrompt(query.Text, gc.Text),
		System: systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := &Answer{
		Text:          response,
		Sources:       gc.Sources,
		Confidence:    estimateConfidence(response, gc.Sources),
		Model:         e.generator.ModelName(),
		ContextTokens: search.EstimateTokens(gc.Text),
		Timestamp:     time.Now(),
	}

	e.logger.Debug("answer generated",
		slog.String("query", query.Text),
		slog.Int("sources", len(answer.Sources)),
		slog.Float64("confidence", answer.Confidence))
	return answer, nil
}

// BuildPrompt assembles the generation prompt from query and packed context.
func BuildPrompt(query, contextText string) string {
	var b strings.Builder
	b.WriteString("Context:\n")
	b.WriteString(contextText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// estimateConfidence blends average source relevance with answer length and
// source count, clamped to [0,1]. A heuristic, not a calibrated probability.
func estimateConfidence(response string, sources []search.Source) float64 {
	var avgRelevance float64
	if len(sources) > 0 {
		var sum float64
		for _, s := range sources {
			sum += s.Relevance
		}
		avgRelevance = sum / float64(len(sources))
	}

	lengthScore := min(float64(len(strings.Fields(response)))/100, 1.0)
	sourceScore := min(float64(len(sources))/5, 1.0)

	confidence := avgRelevance*relevanceWeight + lengthScore*lengthWeight + sourceScore*sourceWeight
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
