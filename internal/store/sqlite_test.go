package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []*Document{
		{ID: "a", Text: "hello world", Source: "readme.md", Metadata: map[string]string{"chunk": "0"}},
		{ID: "b", Text: "second document", Source: "guide.md"},
	}
	require.NoError(t, s.SaveDocuments(ctx, docs))

	got, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, "readme.md", got.Source)
	assert.Equal(t, "0", got.Metadata["chunk"])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteStore_GetDocument_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDocument(context.Background(), "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_GetDocuments_PreservesRequestOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "a", Text: "one", Source: "s"},
		{ID: "b", Text: "two", Source: "s"},
		{ID: "c", Text: "three", Source: "s"},
	}))

	got, err := s.GetDocuments(ctx, []string{"c", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
}

func TestSQLiteStore_ListDocuments_InsertionOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "z", Text: "first batch", Source: "s"},
		{ID: "a", Text: "first batch", Source: "s"},
	}))
	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "m", Text: "second batch", Source: "s"},
	}))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, []string{"z", "a", "m"}, []string{docs[0].ID, docs[1].ID, docs[2].ID})
}

func TestSQLiteStore_SaveDocuments_ReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "a", Text: "old text", Source: "s"},
	}))
	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "a", Text: "new text", Source: "s"},
	}))

	got, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "new text", got.Text)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_DeleteDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "a", Text: "one", Source: "s"},
		{ID: "b", Text: "two", Source: "s"},
	}))
	require.NoError(t, s.DeleteDocuments(ctx, []string{"a"}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetDocument(ctx, "a")
	assert.Error(t, err)
}

func TestSQLiteStore_DeleteBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveDocuments(ctx, []*Document{
		{ID: "a", Text: "one", Source: "readme.md"},
		{ID: "b", Text: "two", Source: "readme.md"},
		{ID: "c", Text: "three", Source: "guide.md"},
	}))
	require.NoError(t, s.DeleteBySource(ctx, "readme.md"))

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "c", docs[0].ID)
}

func TestSQLiteStore_EmptyOperations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.SaveDocuments(ctx, nil))
	assert.NoError(t, s.DeleteDocuments(ctx, nil))

	docs, err := s.GetDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
