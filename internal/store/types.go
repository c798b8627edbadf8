// Package store provides vector storage (HNSW) and document persistence (SQLite).
// This is the persistence layer for all indexed data.
package store

import (
	"context"
	"fmt"
	"time"
)

// Document is the retrievable unit of text. Documents are produced by the
// ingestion layer and treated as read-only by search and fusion.
type Document struct {
	ID        string            // Stable unique ID assigned at ingestion
	Text      string            // Full chunk text
	Source    string            // Source identifier (file path, drive file name, ...)
	Metadata  map[string]string // Additional metadata
	CreatedAt time.Time
}

// DocumentStore persists documents in SQLite.
type DocumentStore interface {
	// SaveDocuments inserts or replaces documents.
	SaveDocuments(ctx context.Context, docs []*Document) error

	// GetDocument returns a single document by ID.
	GetDocument(ctx context.Context, id string) (*Document, error)

	// GetDocuments returns documents for the given IDs in a single query.
	// Missing IDs are silently skipped.
	GetDocuments(ctx context.Context, ids []string) ([]*Document, error)

	// ListDocuments returns all documents in insertion order.
	// This is the corpus order used to build the keyword index.
	ListDocuments(ctx context.Context) ([]*Document, error)

	// DeleteDocuments removes documents by ID.
	DeleteDocuments(ctx context.Context, ids []string) error

	// DeleteBySource removes all documents from the given source.
	DeleteBySource(ctx context.Context, source string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases the database handle.
	Close() error
}

// VectorResult represents a single vector search result.
// Score is a normalized similarity in [0,1] where higher means more similar;
// Distance preserves the backend's raw metric (lower means more similar for
// cosine and L2). Fusion consumes Score and never has to guess the direction.
type VectorResult struct {
	ID       string
	Distance float32
	Score    float32
}

// VectorStoreConfig configures the vector store.
type VectorStoreConfig struct {
	// Dimensions is the vector dimension (e.g., 384 for bge-small, 768 for nomic-embed).
	Dimensions int

	// Metric is the distance metric: "cos" (cosine) or "l2" (euclidean). Default: "cos".
	Metric string

	// M is HNSW max connections per layer (default: 16).
	M int

	// EfSearch is HNSW query-time search width (default: 20).
	EfSearch int
}

// DefaultVectorStoreConfig returns sensible defaults for the vector store.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions: dimensions,
		Metric:     "cos",
		M:          16,
		EfSearch:   20,
	}
}

// VectorStore answers top-k nearest-neighbor queries over opaque (id, vector)
// records. Concrete backends vary without touching fusion or ranking logic.
type VectorStore interface {
	// Add inserts vectors with their IDs. If an ID exists, it is replaced.
	Add(ctx context.Context, ids []string, vectors [][]float32) error

	// Search finds up to k nearest neighbors to the query vector.
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)

	// Delete removes vectors by ID.
	Delete(ctx context.Context, ids []string) error

	// AllIDs returns all vector IDs in the store (for consistency checks).
	AllIDs() []string

	// Contains checks if ID exists.
	Contains(id string) bool

	// Count returns number of vectors.
	Count() int

	// Persistence
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates vector dimension mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (run 'docrag index --force' to rebuild)", e.Expected, e.Got)
}
