package watcher

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/ritzau/binview/pkg/session"
	"github.com/ritzau/binview/pkg/source"
)

// Apply replaces the payload of every open local session whose module
// changed. Cleared modules reload with no result. It returns how many
// sessions were reloaded.
func Apply(ctx context.Context, store *session.Store, dir *source.Dir, analysis *ChangeAnalysis) int {
	reloaded := 0
	for _, sess := range store.Sessions() {
		if sess.Key.Collection != source.LocalCollection {
			continue
		}

		var raw []byte
		switch {
		case slices.Contains(analysis.Reload, sess.Key.Module):
			data, err := dir.Results(ctx, sess.Key.Collection, sess.Key.OID, sess.Key.Module)
			if errors.Is(err, source.ErrNoResult) {
				break
			}
			if err != nil {
				log.Warn("failed to read changed results", "module", sess.Key.Module, "error", err)
				continue
			}
			raw = data
		case slices.Contains(analysis.Cleared, sess.Key.Module):
		default:
			continue
		}

		if _, err := store.Reload(sess.Key, raw); err != nil {
			// Usually a file caught mid-write; the next write event retries
			log.Warn("failed to reload session", "session", sess.ID, "module", sess.Key.Module, "error", err)
			continue
		}
		reloaded++
	}
	return reloaded
}

// Run feeds debounced changes of dir into store until ctx is done.
func Run(ctx context.Context, store *session.Store, dir *source.Dir, quietPeriod, maxWait time.Duration) error {
	fw, err := NewFileWatcher(dir.Root())
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			analysis := AnalyzeChanges(event)
			n := Apply(ctx, store, dir, analysis)
			log.Info("result files changed", "type", event.Type, "files", len(event.Paths), "reloaded", n)
		}
	}()
	return nil
}
