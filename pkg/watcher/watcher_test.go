package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/binview/pkg/session"
	"github.com/ritzau/binview/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		event  fsnotify.Event
		want   ChangeType
		wantOK bool
	}{
		{"write", fsnotify.Event{Name: "/r/call_graph.json", Op: fsnotify.Write}, ChangeTypeWritten, true},
		{"create", fsnotify.Event{Name: "/r/call_graph.json", Op: fsnotify.Create}, ChangeTypeWritten, true},
		{"remove", fsnotify.Event{Name: "/r/call_graph.json", Op: fsnotify.Remove}, ChangeTypeRemoved, true},
		{"rename", fsnotify.Event{Name: "/r/call_graph.json", Op: fsnotify.Rename}, ChangeTypeRemoved, true},
		{"chmod", fsnotify.Event{Name: "/r/call_graph.json", Op: fsnotify.Chmod}, 0, false},
		{"editor swap file", fsnotify.Event{Name: "/r/.call_graph.json.swp", Op: fsnotify.Write}, 0, false},
		{"not json", fsnotify.Event{Name: "/r/notes.txt", Op: fsnotify.Write}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := classify(tt.event)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAnalyzeChanges(t *testing.T) {
	written := AnalyzeChanges(ChangeEvent{Type: ChangeTypeWritten, Paths: []string{"/r/call_graph.json", "/r/.hidden.json", "/r/entropy_graph.json"}})
	assert.Equal(t, []string{"call_graph", "entropy_graph"}, written.Reload)
	assert.Empty(t, written.Cleared)
	assert.Len(t, written.ChangedFiles, 3)

	removed := AnalyzeChanges(ChangeEvent{Type: ChangeTypeRemoved, Paths: []string{"/r/call_graph.json"}})
	assert.Empty(t, removed.Reload)
	assert.Equal(t, []string{"call_graph"}, removed.Cleared)
}

func TestDebouncerKeepsLatestChange(t *testing.T) {
	input := make(chan ChangeEvent, 3)
	input <- ChangeEvent{Type: ChangeTypeWritten, Paths: []string{"a.json"}}
	input <- ChangeEvent{Type: ChangeTypeWritten, Paths: []string{"b.json", "a.json"}}
	input <- ChangeEvent{Type: ChangeTypeRemoved, Paths: []string{"a.json"}}
	close(input)

	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	var got []ChangeEvent
	for event := range d.Output() {
		got = append(got, event)
	}
	require.Len(t, got, 2)
	assert.Equal(t, ChangeTypeWritten, got[0].Type)
	assert.Equal(t, []string{"b.json"}, got[0].Paths)
	assert.Equal(t, ChangeTypeRemoved, got[1].Type)
	assert.Equal(t, []string{"a.json"}, got[1].Paths)
}

func TestDebouncerFlushesAfterQuietPeriod(t *testing.T) {
	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 20*time.Millisecond, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeWritten, Paths: []string{"call_graph.json"}}

	select {
	case event := <-d.Output():
		assert.Equal(t, []string{"call_graph.json"}, event.Paths)
	case <-time.After(2 * time.Second):
		t.Fatal("no flush after quiet period")
	}

	cancel()
	_, open := <-d.Output()
	assert.False(t, open, "output closes when the context ends")
}

const graphV1 = `{"function_calls": {"main": {"calls": ["helper"]}}}`

func writeResult(t *testing.T, dir, module, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, module+".json"), []byte(data), 0o644))
}

func TestApply(t *testing.T) {
	root := t.TempDir()
	writeResult(t, root, "call_graph", graphV1)
	dir, err := source.NewDir(root)
	require.NoError(t, err)

	store := session.NewStore(nil)
	local, err := store.Open(session.Key{Collection: source.LocalCollection, Module: "call_graph"}, []byte(graphV1))
	require.NoError(t, err)
	remote, err := store.Open(session.Key{Collection: "samples", Module: "call_graph"}, []byte(graphV1))
	require.NoError(t, err)
	other, err := store.Open(session.Key{Collection: source.LocalCollection, Module: "entropy_graph"}, nil)
	require.NoError(t, err)

	writeResult(t, root, "call_graph", `{"function_calls": {"main": {"calls": ["helper", "exit"]}}}`)
	n := Apply(context.Background(), store, dir, &ChangeAnalysis{Reload: []string{"call_graph"}})
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, local.Graph().Len())
	assert.Equal(t, 1, local.View().Revision)
	assert.Equal(t, 0, remote.View().Revision, "only local sessions follow the results dir")
	assert.Equal(t, 0, other.View().Revision)

	require.NoError(t, os.Remove(filepath.Join(root, "call_graph.json")))
	n = Apply(context.Background(), store, dir, &ChangeAnalysis{Cleared: []string{"call_graph"}})
	assert.Equal(t, 1, n)
	assert.True(t, local.View().Empty)
}

func TestApplySkipsBrokenFile(t *testing.T) {
	root := t.TempDir()
	dir, err := source.NewDir(root)
	require.NoError(t, err)

	store := session.NewStore(nil)
	sess, err := store.Open(session.Key{Collection: source.LocalCollection, Module: "call_graph"}, []byte(graphV1))
	require.NoError(t, err)

	// caught mid-write
	writeResult(t, root, "call_graph", `{"function_calls": {"ma`)
	assert.Equal(t, 0, Apply(context.Background(), store, dir, &ChangeAnalysis{Reload: []string{"call_graph"}}))
	assert.Equal(t, 2, sess.Graph().Len())
}

func TestRunReloadsOnWrite(t *testing.T) {
	root := t.TempDir()
	writeResult(t, root, "call_graph", graphV1)
	dir, err := source.NewDir(root)
	require.NoError(t, err)

	store := session.NewStore(nil)
	sess, err := store.Open(session.Key{Collection: source.LocalCollection, Module: "call_graph"}, []byte(graphV1))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, Run(ctx, store, dir, 20*time.Millisecond, 200*time.Millisecond))

	writeResult(t, root, "call_graph", `{"nodes": ["a", "b", "c", "d"]}`)
	assert.Eventually(t, func() bool {
		return sess.Graph().Len() == 4
	}, 5*time.Second, 20*time.Millisecond)
}
