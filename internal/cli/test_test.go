package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenariosDir = "../../testdata/scenarios"

func TestTestCommandPasses(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ start_and_finish")
	assert.Contains(t, out, "✓ skip_and_rewind")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir, "--filter", "skip_*")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ skip_and_rewind")
	assert.NotContains(t, out, "start_and_finish")
	assert.Contains(t, out, "1 total")

	out, _, err = execute(t, "test", scenariosDir, "--filter", "nothing*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandJSON(t *testing.T) {
	out, _, err := execute(t, "test", scenariosDir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Passed)
	assert.Equal(t, 2, resp.Data.Total)
}

func TestTestCommandMissingDir(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

// scenarioDir writes one scenario against the single-split route and
// returns its directory.
func scenarioDir(t *testing.T, splitTime string) string {
	t.Helper()
	routePath, err := filepath.Abs("../../testdata/routes/single.yaml")
	require.NoError(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "finish.yaml", fmt.Sprintf(`name: finish
description: one split at one second
route: %s
allow_expressions: true
ticks:
  - set: {file_time: 0}
  - set: {file_time: 1000}
commit: true
assertions:
  - type: split_time
    split: S1
    time: %q
`, routePath, splitTime))
	return dir
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := scenarioDir(t, "2.000")

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ finish")
	assert.Contains(t, out, "Assertion failed: split_time")
	assert.Contains(t, out, "1 failed")
}

func TestTestCommandGolden(t *testing.T) {
	dir := scenarioDir(t, "1.000")
	golden := filepath.Join(dir, "golden", "finish.golden")

	out, _, err := execute(t, "test", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ finish (golden updated)")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"scenario_name":"finish"}`)

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, _, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}
