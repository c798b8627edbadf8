package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/docrag/internal/store"
)

// supportedExtensions lists the plain-text formats the loader reads.
var supportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Loader walks directories, reads supported files, and chunks them.
type Loader struct {
	chunker *Chunker
	logger  *slog.Logger
}

// NewLoader creates a loader with the given chunker.
func NewLoader(chunker *Chunker, logger *slog.Logger) *Loader {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{chunker: chunker, logger: logger}
}

// LoadDir walks root recursively and chunks every supported file. Hidden
// directories are skipped. Source is the path relative to root.
func (l *Loader) LoadDir(ctx context.Context, root string) ([]*store.Document, error) {
	var docs []*store.Document

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		if d.IsDir() {
			if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsSupported(path) {
			return nil
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}

		fileDocs, ferr := l.LoadFile(ctx, path, rel)
		if ferr != nil {
			return ferr
		}
		docs = append(docs, fileDocs...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load directory %s: %w", root, err)
	}

	l.logger.Info("documents loaded",
		slog.String("root", root),
		slog.Int("chunks", len(docs)))
	return docs, nil
}

// LoadFile reads and chunks a single file. The source argument becomes the
// chunk's source label.
func (l *Loader) LoadFile(ctx context.Context, path, source string) ([]*store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return l.chunker.Chunk(string(data), source), nil
}

// IsSupported reports whether the loader handles the file's extension.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}
