package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aman-CERP/docrag/internal/rag"
	"github.com/Aman-CERP/docrag/internal/search"
)

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.RenderResults([]search.RankedResult{
		{
			Text:       "kubernetes deployment basics",
			Metadata:   map[string]string{"source": "k8s.md"},
			FinalScore: 0.91, SemanticScore: 0.95, KeywordScore: 0.82,
		},
		{
			Text:       "second result text",
			FinalScore: 0.5,
		},
	})

	out := buf.String()
	assert.Contains(t, out, "1. k8s.md")
	assert.Contains(t, out, "score 0.910")
	assert.Contains(t, out, "kubernetes deployment basics")
	assert.Contains(t, out, "2. unknown")
}

func TestRenderResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).RenderResults(nil)
	assert.Contains(t, buf.String(), "No results.")
}

func TestRenderAnswer(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	r.RenderAnswer(&rag.Answer{
		Text:       "The answer.",
		Confidence: 0.83,
		Sources: []search.Source{
			{Metadata: map[string]string{"source": "doc.md"}, Relevance: 0.9},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "The answer.")
	assert.Contains(t, out, "1. doc.md (relevance 0.90)")
	assert.Contains(t, out, "Confidence: 0.83")
}

func TestRenderAnswer_NoSources(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).RenderAnswer(&rag.Answer{Text: rag.NoResultsAnswer})

	out := buf.String()
	assert.Contains(t, out, rag.NoResultsAnswer)
	assert.NotContains(t, out, "Sources")
}

func TestRenderError(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).RenderError(errors.New("boom"))
	assert.Contains(t, buf.String(), "Error: boom")
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short", 100))

	long := snippet("alpha beta gamma delta", 12)
	assert.Equal(t, "alpha beta...", long)

	collapsed := snippet("multi\n  line   text", 100)
	assert.Equal(t, "multi line text", collapsed)
}

func TestRendererIsPlainForBuffers(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)
	r.RenderResults([]search.RankedResult{{Text: "x", FinalScore: 1}})
	// No ANSI escapes when the writer is not a terminal
	assert.NotContains(t, buf.String(), "\x1b[")
}
