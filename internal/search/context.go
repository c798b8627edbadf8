package search

import (
	"fmt"
	"strings"
)

// DefaultMaxTokens is the default context budget.
const DefaultMaxTokens = 2000

// blockSeparator joins formatted context blocks.
const blockSeparator = "\n---\n"

// EstimateTokens approximates the token cost of text by word count. This is
// a deterministic proxy, not real tokenization: budget boundaries are
// approximate by contract.
func EstimateTokens(text string) int {
	return len(strings.Fields(text))
}

// BuildContext packs ranked results into a bounded prompt context.
//
// Results are consumed in the given order. Packing stops at the first result
// that would exceed maxTokens; later, smaller results are not considered
// (stop-at-first-overflow, not best-fit). Sources parallels the included
// blocks. Empty input yields an empty context, never an error.
func BuildContext(results []RankedResult, maxTokens int) GenerationContext {
	if len(results) == 0 || maxTokens <= 0 {
		return GenerationContext{Sources: []Source{}}
	}

	var blocks []string
	sources := make([]Source, 0, len(results))
	total := 0

	for _, r := range results {
		cost := EstimateTokens(r.Text)
		if total+cost > maxTokens {
			break
		}
		total += cost

		blocks = append(blocks, fmt.Sprintf("Source: %s\nContent: %s\nRelevance: %.2f\n",
			sourceLabel(r.Metadata), r.Text, r.FinalScore))
		sources = append(sources, Source{
			Text:      r.Text,
			Metadata:  r.Metadata,
			Relevance: r.FinalScore,
		})
	}

	return GenerationContext{
		Text:    strings.Join(blocks, blockSeparator),
		Sources: sources,
	}
}

// OptimizeResults filters results to fit a token budget without formatting.
// Same stop-at-first-overflow policy as BuildContext.
func OptimizeResults(results []RankedResult, maxTokens int) []RankedResult {
	if len(results) == 0 || maxTokens <= 0 {
		return []RankedResult{}
	}

	kept := make([]RankedResult, 0, len(results))
	total := 0
	for _, r := range results {
		cost := EstimateTokens(r.Text)
		if total+cost > maxTokens {
			break
		}
		total += cost
		kept = append(kept, r)
	}
	return kept
}

// sourceLabel extracts a display label from result metadata.
func sourceLabel(metadata map[string]string) string {
	if metadata != nil {
		if s, ok := metadata["source"]; ok && s != "" {
			return s
		}
	}
	return "unknown"
}
