package autosplitter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForFile(t *testing.T) {
	old := WaitInterval
	WaitInterval = time.Millisecond
	t.Cleanup(func() { WaitInterval = old })

	path := filepath.Join(t.TempDir(), "asi")
	done := make(chan error, 1)
	go func() { done <- WaitForFile(context.Background(), path, nil) }()

	time.Sleep(5 * time.Millisecond)
	writeRecord(t, path, Record{})

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForFile did not return")
	}
}

func TestWaitForFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WaitForFile(ctx, filepath.Join(t.TempDir(), "never"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asi")
	writeRecord(t, path, Record{Chapter: 6, DeathCount: 12})

	rec, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int32(6), rec.Chapter)
	assert.Equal(t, int32(12), rec.DeathCount)

	short := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(short, []byte{1, 2, 3}, 0o644))
	_, err = ReadFile(short)
	assert.Error(t, err)
}
