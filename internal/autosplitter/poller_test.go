package autosplitter

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/ir"
)

func writeRecord(t *testing.T, path string, rec Record) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, Encode(rec), 0o644))
}

func TestPollerSnapshotBeforeFirstPoll(t *testing.T) {
	p := NewPoller(filepath.Join(t.TempDir(), "asi"))
	snap := p.Snapshot()
	assert.Equal(t, "Prologue", snap.String("chapter_name"))
	assert.Equal(t, int64(0), p.Polls())
	select {
	case <-p.Ready():
		t.Fatal("ready before any read")
	default:
	}
}

func TestPollerPoll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asi")
	writeRecord(t, path, Record{Chapter: 2, FileTime: 5000, LevelName: "start"})

	var hooked atomic.Int64
	p := NewPoller(path, WithPollHook(func(ir.Snapshot) { hooked.Add(1) }))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, p.Poll(f))
	select {
	case <-p.Ready():
	default:
		t.Fatal("not ready after a read")
	}
	require.NoError(t, p.Poll(f), "a second read does not close ready again")
	snap := p.Snapshot()
	assert.Equal(t, "start", snap.String("level_name"))
	ft, err := snap.Int("file_time")
	require.NoError(t, err)
	assert.Equal(t, int64(5000), ft)
	assert.Equal(t, int64(2), p.Polls())
	assert.Equal(t, int64(2), hooked.Load())
}

func TestPollerRunSeesUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asi")
	writeRecord(t, path, Record{Chapter: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPoller(path, WithInterval(time.Millisecond))
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return p.Polls() > 0 }, time.Second, time.Millisecond)

	// Rewrite in place, as the autosplitter does.
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteAt(Encode(Record{Chapter: 4, Mode: 1}), 0)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		return p.Snapshot().String("chapter_name") == "4b"
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestPollerRunMissingFile(t *testing.T) {
	p := NewPoller(filepath.Join(t.TempDir(), "missing"))
	err := p.Run(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
