package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/autosplitter"
	"github.com/roach88/splitkeeper/internal/route"
)

func TestNewChaptersToStdout(t *testing.T) {
	out, _, err := execute(t, "new", "chapters", "Any%", "prologue", "1a", "2a")
	require.NoError(t, err)

	assert.Contains(t, out, "version: 2")
	assert.Contains(t, out, "time_field: file_time")
}

func TestNewChaptersRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "any.yaml")

	_, _, err := execute(t, "new", "chapters", "Any%", "prologue", "1a", "2a", "-o", path)
	require.NoError(t, err)

	r, err := loadRoute(path, false)
	require.NoError(t, err)
	assert.Equal(t, "Any%", r.Name)
	assert.Len(t, r.Splits(), 3)
	require.NotNil(t, r.ResetTrigger)

	_, _, err = execute(t, "new", "chapters", "Any%", "1a", "-o", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = execute(t, "new", "chapters", "Only 1A", "1a", "-o", path, "--force")
	require.NoError(t, err)
	r, err = loadRoute(path, false)
	require.NoError(t, err)
	assert.Len(t, r.Splits(), 1)
}

func TestNewChaptersRejectsBadMapName(t *testing.T) {
	_, _, err := execute(t, "new", "chapters", "Any%", "1z")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "cannot build route")
}

func TestNewSegments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "city.yaml")

	_, _, err := execute(t, "new", "segments", "City", "1a",
		"Start:room=s0", "Chasm:checkpoint=2", "Tape:cassette", "Crossing", "-o", path)
	require.NoError(t, err)

	r, err := loadRoute(path, false)
	require.NoError(t, err)
	assert.Equal(t, route.ChapterTime, r.TimeField)
	assert.Equal(t, []string{"Start", "Chasm", "Tape", "Crossing"}, r.SplitNames())
	assert.Equal(t, "finish 1a", r.Piece(6).(*route.Trigger).Name)
	require.NotNil(t, r.ResetTrigger)
}

func TestNewSegmentsRejectsBadEnd(t *testing.T) {
	_, _, err := execute(t, "new", "segments", "City", "1a", "Start:door=3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown end")
}

// rewriteSnapshot updates the record in place, as the autosplitter does.
func rewriteSnapshot(path string, rec autosplitter.Record) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteAt(autosplitter.Encode(rec), 0); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func TestNewRoomsRecordsPlaythrough(t *testing.T) {
	dir := t.TempDir()
	asi := filepath.Join(dir, "asi")
	out := filepath.Join(dir, "rooms.yaml")
	writeSnapshot(t, asi, autosplitter.Record{Chapter: 2, Mode: 1, LevelName: "00"})

	play := []autosplitter.Record{
		{Chapter: 2, Mode: 1, ChapterTime: 4000, LevelName: "01"},
		{Chapter: 2, Mode: 1, ChapterTime: 6000, LevelName: "00"},
		{Chapter: 2, Mode: 1, ChapterTime: 9000, LevelName: "02"},
		{Chapter: 2, Mode: 1, ChapterTime: 12000, LevelName: "02", ChapterComplete: true},
	}
	played := make(chan error, 1)
	go func() {
		for _, rec := range play {
			time.Sleep(40 * time.Millisecond)
			if err := rewriteSnapshot(asi, rec); err != nil {
				played <- err
				return
			}
		}
		played <- nil
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := executeContext(t, ctx, "new", "rooms", "Site B rooms",
		"--asi-path", asi, "--poll-interval", "2ms", "-o", out)
	require.NoError(t, err)
	require.NoError(t, <-played)

	r, err := loadRoute(out, false)
	require.NoError(t, err)
	assert.Equal(t, "Site B rooms", r.Name)
	assert.Equal(t, []string{"00", "01", "02"}, r.SplitNames())
	assert.Equal(t, "finish 2b", r.Piece(4).(*route.Trigger).Name)
}

func TestNewRoomsInterrupted(t *testing.T) {
	dir := t.TempDir()
	asi := filepath.Join(dir, "asi")
	out := filepath.Join(dir, "rooms.yaml")
	writeSnapshot(t, asi, autosplitter.Record{Chapter: 2, Mode: 1, LevelName: "00"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, _, err := executeContext(t, ctx, "new", "rooms", "Site B rooms",
		"--asi-path", asi, "--poll-interval", "2ms", "-o", out)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no route written")
	assert.NoFileExists(t, out)
}

const legacyRoute = `{
  "name": "City",
  "time_field": "chapter_time",
  "pieces": [
    {"type": "trigger", "trigger": {"chapter": 1}},
    {"type": "split", "name": "City", "pieces": [
      {"type": "trigger", "trigger": {"chapter_checkpoints": 1}},
      {"type": "split", "name": "Start"},
      {"type": "trigger", "trigger": {"chapter_complete": true}},
      {"type": "split", "name": "Crossing"}
    ]}
  ]
}`

func TestImportLegacyRoute(t *testing.T) {
	dir := t.TempDir()
	legacy := writeFile(t, dir, "city.json", legacyRoute)
	out := filepath.Join(dir, "city.yaml")

	_, _, err := execute(t, "import", legacy, "-o", out)
	require.NoError(t, err)

	r, err := loadRoute(out, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"City->Start", "City"}, r.SplitNames())
}

func TestImportRejectsVersionedDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "v2.json", `{"version": 2, "name": "x", "pieces": []}`)

	_, _, err := execute(t, "import", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "cannot load "+path)

	_, err = os.Stat(filepath.Join(filepath.Dir(path), "v2.yaml"))
	assert.True(t, os.IsNotExist(err))
}
