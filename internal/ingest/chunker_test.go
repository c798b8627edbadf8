package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_SingleSmallParagraph(t *testing.T) {
	c := NewChunker(500, 50)

	docs := c.Chunk("a short paragraph of text", "note.md")
	require.Len(t, docs, 1)
	assert.Equal(t, "a short paragraph of text", docs[0].Text)
	assert.Equal(t, "note.md", docs[0].Source)
	assert.Equal(t, "note.md", docs[0].Metadata["source"])
	assert.Equal(t, "0", docs[0].Metadata["chunk_index"])
	assert.NotEmpty(t, docs[0].ID)
	assert.False(t, docs[0].CreatedAt.IsZero())
}

func TestChunker_AccumulatesParagraphsUpToBudget(t *testing.T) {
	c := NewChunker(10, 0)

	para4 := strings.TrimSpace(strings.Repeat("aaa ", 4))
	para5 := strings.TrimSpace(strings.Repeat("bbb ", 5))
	para6 := strings.TrimSpace(strings.Repeat("ccc ", 6))
	text := para4 + "\n\n" + para5 + "\n\n" + para6

	docs := c.Chunk(text, "s")
	require.Len(t, docs, 2)
	// First chunk holds para4+para5 (9 words), para6 overflows into chunk 2
	assert.Contains(t, docs[0].Text, "aaa")
	assert.Contains(t, docs[0].Text, "bbb")
	assert.Contains(t, docs[1].Text, "ccc")
}

func TestChunker_SplitsOversizedParagraphWithOverlap(t *testing.T) {
	c := NewChunker(10, 2)

	words := make([]string, 25)
	for i := range words {
		words[i] = string(rune('a' + i))
	}
	docs := c.Chunk(strings.Join(words, " "), "big.md")

	require.Greater(t, len(docs), 1)
	for _, d := range docs {
		assert.LessOrEqual(t, len(strings.Fields(d.Text)), 10)
	}

	// Overlap: chunk 2 starts with the last 2 words of chunk 1
	first := strings.Fields(docs[0].Text)
	second := strings.Fields(docs[1].Text)
	assert.Equal(t, first[len(first)-2:], second[:2])
}

func TestChunker_UniqueIDs(t *testing.T) {
	c := NewChunker(5, 0)
	docs := c.Chunk("one two three\n\nfour five six\n\nseven eight nine", "s")
	require.Greater(t, len(docs), 1)

	seen := make(map[string]bool)
	for _, d := range docs {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
	}
}

func TestChunker_EmptyInput(t *testing.T) {
	c := NewChunker(500, 50)
	assert.Nil(t, c.Chunk("", "s"))
	assert.Nil(t, c.Chunk("   \n\n   ", "s"))
}

func TestChunker_StripsControlCharacters(t *testing.T) {
	c := NewChunker(500, 50)
	docs := c.Chunk("hello\x00world \x1f again", "s")
	require.Len(t, docs, 1)
	assert.Equal(t, "helloworld again", docs[0].Text)
}

func TestNewChunker_ClampsOverlap(t *testing.T) {
	c := NewChunker(10, 50)
	assert.Equal(t, 5, c.overlap)

	c = NewChunker(0, -1)
	assert.Equal(t, DefaultChunkSize, c.chunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.overlap)
}
