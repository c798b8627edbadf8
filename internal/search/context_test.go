package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wordsOfLength builds a text with exactly n words.
func wordsOfLength(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 0, EstimateTokens("   "))
	assert.Equal(t, 3, EstimateTokens("one two three"))
	assert.Equal(t, 2, EstimateTokens("  spaced \n out  "))
}

func TestBuildContext_StopsAtFirstOverflow(t *testing.T) {
	results := []RankedResult{
		{Text: wordsOfLength(5), FinalScore: 0.9},
		{Text: wordsOfLength(8), FinalScore: 0.8},
	}

	gc := BuildContext(results, 10)
	require.Len(t, gc.Sources, 1, "second result overflows and stops packing")
	assert.Equal(t, results[0].Text, gc.Sources[0].Text)
}

func TestBuildContext_DoesNotSkipAndContinue(t *testing.T) {
	results := []RankedResult{
		{Text: wordsOfLength(5), FinalScore: 0.9},
		{Text: wordsOfLength(8), FinalScore: 0.8},
		{Text: wordsOfLength(2), FinalScore: 0.7}, // would fit, must not be taken
	}

	gc := BuildContext(results, 10)
	assert.Len(t, gc.Sources, 1)
}

func TestBuildContext_BudgetNeverExceeded(t *testing.T) {
	results := []RankedResult{
		{Text: wordsOfLength(4), FinalScore: 0.9},
		{Text: wordsOfLength(4), FinalScore: 0.8},
		{Text: wordsOfLength(4), FinalScore: 0.7},
	}

	gc := BuildContext(results, 9)
	require.Len(t, gc.Sources, 2)

	var total int
	for _, s := range gc.Sources {
		total += EstimateTokens(s.Text)
	}
	assert.LessOrEqual(t, total, 9)
}

func TestBuildContext_BlockFormat(t *testing.T) {
	results := []RankedResult{
		{
			Text:       "first chunk",
			Metadata:   map[string]string{"source": "guide.md"},
			FinalScore: 0.9,
		},
		{
			Text:       "second chunk",
			FinalScore: 0.456,
		},
	}

	gc := BuildContext(results, 100)
	require.Len(t, gc.Sources, 2)

	blocks := strings.Split(gc.Text, "\n---\n")
	require.Len(t, blocks, 2)
	assert.Equal(t, "Source: guide.md\nContent: first chunk\nRelevance: 0.90\n", blocks[0])
	assert.Equal(t, "Source: unknown\nContent: second chunk\nRelevance: 0.46\n", blocks[1])
}

func TestBuildContext_Empty(t *testing.T) {
	gc := BuildContext(nil, 100)
	assert.Empty(t, gc.Text)
	assert.Empty(t, gc.Sources)

	gc = BuildContext([]RankedResult{{Text: "something"}}, 0)
	assert.Empty(t, gc.Sources)
}

func TestBuildContext_SourcesParallelOrder(t *testing.T) {
	results := []RankedResult{
		{Text: "alpha", FinalScore: 0.9},
		{Text: "beta", FinalScore: 0.8},
		{Text: "gamma", FinalScore: 0.7},
	}

	gc := BuildContext(results, 100)
	require.Len(t, gc.Sources, 3)
	assert.Equal(t, "alpha", gc.Sources[0].Text)
	assert.Equal(t, "beta", gc.Sources[1].Text)
	assert.Equal(t, "gamma", gc.Sources[2].Text)
	assert.Equal(t, 0.9, gc.Sources[0].Relevance)
}

func TestOptimizeResults_StopsAtFirstOverflow(t *testing.T) {
	results := []RankedResult{
		{Text: wordsOfLength(5), FinalScore: 0.9},
		{Text: wordsOfLength(8), FinalScore: 0.8},
		{Text: wordsOfLength(1), FinalScore: 0.7},
	}

	kept := OptimizeResults(results, 10)
	require.Len(t, kept, 1)
	assert.Equal(t, results[0], kept[0])
}

func TestOptimizeResults_Empty(t *testing.T) {
	assert.Empty(t, OptimizeResults(nil, 100))
	assert.Empty(t, OptimizeResults([]RankedResult{{Text: "x"}}, 0))
}
