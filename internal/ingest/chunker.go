// Package ingest loads documents from disk and splits them into indexable
// chunks. It feeds the document store and the search engine; retrieval
// treats its output as read-only.
package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/docrag/internal/store"
)

const (
	// DefaultChunkSize is the word budget per chunk.
	DefaultChunkSize = 500

	// DefaultChunkOverlap is the number of trailing words carried into the
	// next chunk so sentences cut at a boundary stay searchable.
	DefaultChunkOverlap = 50
)

var (
	whitespaceRe = regexp.MustCompile(`[ \t]+`)
	controlRe    = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	paragraphRe  = regexp.MustCompile(`\n\s*\n`)
)

// Chunker splits text into word-bounded chunks along paragraph boundaries.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Non-positive arguments use the defaults;
// overlap is capped below chunkSize.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Chunk splits text into documents. Paragraphs accumulate until the word
// budget is hit; oversized paragraphs are split on raw word boundaries.
// Each chunk gets a fresh UUID and carries source plus chunk index metadata.
func (c *Chunker) Chunk(text, source string) []*store.Document {
	paragraphs := splitParagraphs(preprocess(text))
	if len(paragraphs) == 0 {
		return nil
	}

	var pieces []string
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) > 0 {
			pieces = append(pieces, strings.Join(current, "\n\n"))
			current = nil
			currentWords = 0
		}
	}

	for _, para := range paragraphs {
		words := strings.Fields(para)

		if len(words) > c.chunkSize {
			flush()
			for start := 0; start < len(words); start += c.chunkSize - c.overlap {
				end := min(start+c.chunkSize, len(words))
				pieces = append(pieces, strings.Join(words[start:end], " "))
				if end == len(words) {
					break
				}
			}
			continue
		}

		if currentWords+len(words) > c.chunkSize {
			flush()
		}
		current = append(current, para)
		currentWords += len(words)
	}
	flush()

	now := time.Now().UTC()
	docs := make([]*store.Document, len(pieces))
	for i, piece := range pieces {
		docs[i] = &store.Document{
			ID:     uuid.NewString(),
			Text:   piece,
			Source: source,
			Metadata: map[string]string{
				"source":      source,
				"chunk_index": fmt.Sprint(i),
			},
			CreatedAt: now,
		}
	}
	return docs
}

// preprocess collapses runs of spaces and strips control characters.
func preprocess(text string) string {
	text = controlRe.ReplaceAllString(text, "")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// splitParagraphs splits on blank lines, dropping empty paragraphs.
func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range paragraphRe.Split(text, -1) {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
