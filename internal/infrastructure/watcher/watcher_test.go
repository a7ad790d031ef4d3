package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (r *recorder) handle(_ context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
	return r.err
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	// Give fsnotify time to register the directories.
	time.Sleep(100 * time.Millisecond)
}

func TestNew_Validation(t *testing.T) {
	rec := &recorder{}

	_, err := New(t.TempDir(), "[", rec.handle)
	assert.ErrorContains(t, err, "invalid pattern")

	_, err = New(filepath.Join(t.TempDir(), "missing"), "*.json", rec.handle)
	assert.ErrorContains(t, err, "accessing directory")

	file := filepath.Join(t.TempDir(), "a.json")
	require.NoError(t, os.WriteFile(file, []byte("[]"), 0644))
	_, err = New(file, "*.json", rec.handle)
	assert.ErrorContains(t, err, "not a directory")
}

func TestWatcher_HandlesMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w, err := New(dir, "**/*.{json,csv}", rec.handle, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "obs.json"), []byte("[]"), 0644))

	nested := filepath.Join(dir, "2024", "03")
	require.NoError(t, os.MkdirAll(nested, 0755))
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(nested, "obs.csv"), []byte("x"), 0644))

	require.Eventually(t, func() bool { return len(rec.seen()) == 2 }, 3*time.Second, 20*time.Millisecond)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "obs.json"),
		filepath.Join(nested, "obs.csv"),
	}, rec.seen())
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w, err := New(dir, "*.json", rec.handle, WithDebounce(150*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w)

	path := filepath.Join(dir, "obs.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("[]")
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return len(rec.seen()) == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, rec.seen(), 1)
}

func TestWatcher_InitialScanAndHandlerErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("[]"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte("[]"), 0644))

	rec := &recorder{err: errors.New("bad file")}
	w, err := New(dir, "*.json", rec.handle, WithInitialScan(), WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	startWatcher(t, w)

	require.Eventually(t, func() bool { return len(rec.seen()) == 2 }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte("[]"), 0644))
	require.Eventually(t, func() bool { return len(rec.seen()) == 3 }, 3*time.Second, 20*time.Millisecond)
}

func TestDebouncer_Stop(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	fired := make(chan struct{}, 1)
	d.add("k", func() { fired <- struct{}{} })
	d.stop()
	d.add("k", func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Fatal("stopped debouncer fired")
	case <-time.After(100 * time.Millisecond):
	}
}
