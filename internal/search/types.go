// Package search implements hybrid retrieval: concurrent semantic and keyword
// lookups fused into a single ranking, plus token-budgeted context packing.
package search

// SearchQuery is a validated search request.
type SearchQuery struct {
	// Text is the natural-language query.
	Text string

	// Filters are optional metadata equality filters applied to both branches.
	Filters map[string]string

	// TopK is the maximum number of results to return. Must be positive.
	TopK int

	// SemanticWeight blends the two signals: final = semantic*w + keyword*(1-w).
	// Must be in [0,1]. 0 means pure keyword, 1 means pure semantic.
	SemanticWeight float64
}

// Default query parameters, applied by DefaultQuery.
const (
	DefaultTopK           = 5
	DefaultSemanticWeight = 0.7
)

// DefaultQuery returns a query for the given text with default parameters.
func DefaultQuery(text string) SearchQuery {
	return SearchQuery{
		Text:           text,
		TopK:           DefaultTopK,
		SemanticWeight: DefaultSemanticWeight,
	}
}

// Candidate is one scored hit from a single branch, before fusion. Score is
// raw: each branch uses its own scale, fusion normalizes per list.
type Candidate struct {
	ID       string
	Text     string
	Metadata map[string]string
	Score    float64
}

// RankedResult is one fused search hit. All three scores are in [0,1] and
// FinalScore is the sole sort key. Treated as a value, never mutated after
// fusion produces it.
type RankedResult struct {
	ID            string
	Text          string
	Metadata      map[string]string
	SemanticScore float64
	KeywordScore  float64
	FinalScore    float64
}

// Source is one entry of GenerationContext.Sources, parallel to the formatted
// context blocks.
type Source struct {
	Text      string
	Metadata  map[string]string
	Relevance float64
}

// GenerationContext is a token-bounded prompt context assembled from ranked
// results. The estimated token cost of Text never exceeds the budget it was
// built with.
type GenerationContext struct {
	Text    string
	Sources []Source
}

// identityKey returns the stable key used to union candidates across the two
// branches. Explicit IDs are preferred; text is a fallback for candidates
// that arrive without one, and can misassociate distinct documents carrying
// identical text.
func identityKey(id, text string) string {
	if id != "" {
		return "id:" + id
	}
	return "text:" + text
}
