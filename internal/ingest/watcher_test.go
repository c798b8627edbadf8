package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_EmitsDebouncedBatch(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, 100*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	select {
	case batch := <-w.Batches():
		require.NotEmpty(t, batch)
		assert.Equal(t, path, batch[0].Path)
	case <-time.After(3 * time.Second):
		t.Fatal("no batch received")
	}
}

func TestWatcher_IgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, 100*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{1, 2}, 0o644))

	select {
	case batch := <-w.Batches():
		t.Fatalf("unexpected batch for unsupported file: %v", batch)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_CoalescesWriteBurst(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(dir, 200*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	path := filepath.Join(dir, "doc.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("rev"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case batch := <-w.Batches():
		assert.Len(t, batch, 1, "burst on one path must coalesce to one event")
	case <-time.After(3 * time.Second):
		t.Fatal("no batch received")
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name    string
		first   Op
		next    Op
		want    *Op
		nilPair bool
	}{
		{name: "create then modify stays create", first: OpCreate, next: OpModify, want: opPtr(OpCreate)},
		{name: "create then delete cancels", first: OpCreate, next: OpDelete, nilPair: true},
		{name: "delete then create becomes modify", first: OpDelete, next: OpCreate, want: opPtr(OpModify)},
		{name: "modify then delete is delete", first: OpModify, next: OpDelete, want: opPtr(OpDelete)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := &pendingEvent{
				event:   FileEvent{Path: "p", Op: tt.first},
				firstOp: tt.first,
			}
			got := coalesce(existing, FileEvent{Path: "p", Op: tt.next})
			if tt.nilPair {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, got.Op)
		})
	}
}

func opPtr(op Op) *Op { return &op }
