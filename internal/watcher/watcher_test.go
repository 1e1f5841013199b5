package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type triggerLog struct {
	mu    sync.Mutex
	names []string
}

func (l *triggerLog) trigger(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = append(l.names, name)
	return nil
}

func (l *triggerLog) calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.names...)
}

func startWatcher(t *testing.T, l *triggerLog, sources map[string]string) context.CancelFunc {
	t.Helper()

	w, err := NewSourceWatcher(l.trigger, 50*time.Millisecond)
	require.NoError(t, err)
	for name, path := range sources {
		require.NoError(t, w.Add(name, path))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = w.Run(ctx)
		close(done)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestNewSourceWatcher_DefaultDebounce(t *testing.T) {
	w, err := NewSourceWatcher(func(context.Context, string) error { return nil }, 0)
	require.NoError(t, err)
	defer w.watcher.Close()

	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestSourceWatcher_Add(t *testing.T) {
	dir := t.TempDir()
	w, err := NewSourceWatcher(func(context.Context, string) error { return nil }, time.Millisecond)
	require.NoError(t, err)
	defer w.watcher.Close()

	require.NoError(t, w.Add("bank", filepath.Join(dir, "bank.csv")))
	require.NoError(t, w.Add("bank_copy", filepath.Join(dir, "bank.csv")))
	assert.Equal(t, 1, w.Watched())

	assert.Error(t, w.Add("hotels", ""))
	assert.Error(t, w.Add("hotels", filepath.Join(dir, "missing", "hotels.csv")))
}

func TestSourceWatcher_TriggersOnWrite(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "bank.csv")
	require.NoError(t, os.WriteFile(source, []byte("a\n"), 0644))

	l := &triggerLog{}
	startWatcher(t, l, map[string]string{"bank": source})

	require.NoError(t, os.WriteFile(source, []byte("a\n1\n"), 0644))

	assert.Eventually(t, func() bool { return len(l.calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"bank"}, l.calls())
}

func TestSourceWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "bank.csv")

	l := &triggerLog{}
	startWatcher(t, l, map[string]string{"bank": source})

	f, err := os.Create(source)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("row\n")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool { return len(l.calls()) >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Len(t, l.calls(), 1)
}

func TestSourceWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	l := &triggerLog{}
	startWatcher(t, l, map[string]string{"bank": filepath.Join(dir, "bank.csv")})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)

	assert.Empty(t, l.calls())
}
