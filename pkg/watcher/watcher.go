package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/binview/pkg/logging"
	"github.com/ritzau/binview/pkg/source"
)

var log = logging.New("watcher")

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeWritten ChangeType = iota
	ChangeTypeRemoved
)

func (t ChangeType) String() string {
	if t == ChangeTypeRemoved {
		return "removed"
	}
	return "written"
}

// ChangeEvent represents a batch of result file changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow collapses the events of a single save into one batch.
const batchWindow = 100 * time.Millisecond

// FileWatcher watches a results directory for changed result files
type FileWatcher struct {
	watcher *fsnotify.Watcher
	dir     string
	events  chan ChangeEvent
}

// NewFileWatcher creates a new file system watcher for a results directory
func NewFileWatcher(dir string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		dir:     dir,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching. The watcher stops and closes Events when ctx is
// cancelled.
func (fw *FileWatcher) Start(ctx context.Context) error {
	if err := fw.watcher.Add(fw.dir); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", fw.dir, err)
	}

	log.Info("started watching results", "path", fw.dir)

	go fw.processEvents(ctx)
	return nil
}

// classify maps an fsnotify event to a change of a result file.
func classify(event fsnotify.Event) (ChangeType, bool) {
	if _, ok := source.ModuleOf(event.Name); !ok {
		return 0, false
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ChangeTypeRemoved, true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		return ChangeTypeWritten, true
	}
	return 0, false
}

// processEvents batches file system events by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeWritten, ChangeTypeRemoved} {
			if len(pending[t]) == 0 {
				continue
			}
			select {
			case fw.events <- ChangeEvent{Type: t, Paths: pending[t], Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
		pending = make(map[ChangeType][]string)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			t, ok := classify(event)
			if !ok {
				continue
			}
			path := filepath.Clean(event.Name)
			if !slices.Contains(pending[t], path) {
				pending[t] = append(pending[t], path)
			}
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
