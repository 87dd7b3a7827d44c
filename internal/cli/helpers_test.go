package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const quickRoute = `
version: 2
name: Quick
time_field: file_time
pieces:
  - {type: trigger, name: go, fields: {chapter: 1}}
  - {type: split, name: Only}
`

const badRoute = `
version: 2
name: Broken
time_field: file_time
pieces:
  - {type: trigger, name: go, fields: {chapterr: 1}}
  - {type: split, name: Only}
`

// chaptersRoute is the shared two-chapter route.
var chaptersRoute = filepath.Join("..", "..", "testdata", "routes", "chapters.yaml")

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

// executeContext is execute under ctx. The user config directory is
// isolated so a developer's config file is not read.
func executeContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
