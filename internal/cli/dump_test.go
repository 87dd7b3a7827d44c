package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/autosplitter"
)

func TestDumpText(t *testing.T) {
	asi := filepath.Join(t.TempDir(), "asi")
	writeSnapshot(t, asi, autosplitter.Record{Chapter: 3, FileTime: 61000, LevelName: "a-00"})

	out, _, err := execute(t, "dump", "--asi-path", asi)
	require.NoError(t, err)

	assert.Contains(t, out, "chapter: 3\n")
	assert.Contains(t, out, "file_time: 61000\n")
	assert.Contains(t, out, `level_name: "a-00"`)
}

func TestDumpJSON(t *testing.T) {
	asi := filepath.Join(t.TempDir(), "asi")
	writeSnapshot(t, asi, autosplitter.Record{Chapter: 2, ChapterComplete: true})

	out, _, err := execute(t, "--format", "json", "dump", "--asi-path", asi)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, float64(2), resp.Data["chapter"])
	assert.Equal(t, true, resp.Data["chapter_complete"])
	assert.Len(t, resp.Data, len(autosplitter.Fields))
}

func TestDumpFollowPrintsOnlyChanges(t *testing.T) {
	asi := filepath.Join(t.TempDir(), "asi")
	writeSnapshot(t, asi, autosplitter.Record{Chapter: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	out, _, err := executeContext(t, ctx, "dump", "--follow", "--asi-path", asi, "--poll-interval", "2ms")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "chapter: 1\n"), "an unchanged snapshot is printed once")
}

func TestDumpMissingFile(t *testing.T) {
	_, _, err := execute(t, "dump", "--asi-path", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "cannot read snapshot")
}
