package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceWindow coalesces editor save bursts into one batch.
const DefaultDebounceWindow = 500 * time.Millisecond

// Op is a coalesced file operation.
type Op int

const (
	OpCreate Op = iota
	OpModify
	OpDelete
)

func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent is one debounced change to a supported file.
type FileEvent struct {
	Path string
	Op   Op
}

// Watcher watches a directory tree for changes to supported files and emits
// debounced event batches. Rapid events on the same path coalesce:
// CREATE+DELETE cancels, DELETE+CREATE becomes MODIFY, CREATE+MODIFY stays
// CREATE.
type Watcher struct {
	root   string
	window time.Duration
	fsw    *fsnotify.Watcher
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingEvent
	timer   *time.Timer

	batches chan []FileEvent
	done    chan struct{}
	stopped bool
}

type pendingEvent struct {
	event   FileEvent
	firstOp Op
}

// NewWatcher creates a watcher over root. Subdirectories are watched
// recursively; newly created directories are added on the fly.
func NewWatcher(root string, window time.Duration, logger *slog.Logger) (*Watcher, error) {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		root:    root,
		window:  window,
		fsw:     fsw,
		logger:  logger,
		pending: make(map[string]*pendingEvent),
		batches: make(chan []FileEvent, 10),
		done:    make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}

	return w, nil
}

// Start consumes file system events until the context is cancelled or Stop
// is called. Blocks; run it in a goroutine.
func (w *Watcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// Batches returns the channel of debounced event batches.
func (w *Watcher) Batches() <-chan []FileEvent {
	return w.batches
}

// Stop stops watching and closes the batch channel. Safe to call twice.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.stopped = true

	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.done)
	w.fsw.Close()
	close(w.batches)
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	// New directories need their own watch
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
			return
		}
	}

	if !IsSupported(event.Name) {
		return
	}

	var op Op
	switch {
	case event.Op.Has(fsnotify.Create):
		op = OpCreate
	case event.Op.Has(fsnotify.Write):
		op = OpModify
	case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
		op = OpDelete
	default:
		return
	}

	w.add(FileEvent{Path: event.Name, Op: op})
}

func (w *Watcher) add(event FileEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	if existing, ok := w.pending[event.Path]; ok {
		coalesced := coalesce(existing, event)
		if coalesced == nil {
			delete(w.pending, event.Path)
		} else {
			existing.event = *coalesced
		}
	} else {
		w.pending[event.Path] = &pendingEvent{event: event, firstOp: event.Op}
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.window, w.flush)
}

// coalesce merges a new event into an existing pending one. Nil means the
// pair cancelled out.
func coalesce(existing *pendingEvent, next FileEvent) *FileEvent {
	switch existing.firstOp {
	case OpCreate:
		switch next.Op {
		case OpModify:
			return &existing.event
		case OpDelete:
			return nil
		}
	case OpDelete:
		if next.Op == OpCreate {
			next.Op = OpModify
			return &next
		}
	}
	return &next
}

func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped || len(w.pending) == 0 {
		return
	}

	events := make([]FileEvent, 0, len(w.pending))
	for _, pe := range w.pending {
		events = append(events, pe.event)
	}
	w.pending = make(map[string]*pendingEvent)

	select {
	case w.batches <- events:
	default:
		w.logger.Warn("watcher batch channel full, dropping",
			slog.Int("batch_size", len(events)))
	}
}
