package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "splitkeeper", cmd.Use)
	assert.Contains(t, cmd.Long, "routes")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"run", "validate", "show", "history", "test", "dump", "deaths", "new", "import"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}

	chapters, _, err := cmd.Find([]string{"new", "chapters"})
	require.NoError(t, err)
	assert.Equal(t, "chapters", chapters.Name())
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "log-level", "allow-expressions"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestRunCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)

	tests := map[string]string{
		"asi-path":      "/dev/shm/autosplitterinfo",
		"tick-interval": "10ms",
		"poll-interval": "1ms",
		"display":       "tui",
		"notify-level":  "0",
		"nats-subject":  "splitkeeper",
		"history-db":    "",
		"pb":            "",
		"golds":         "",
	}
	for name, def := range tests {
		f := runCmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, def, f.DefValue, name)
	}
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "--format", "xml", "validate", chaptersRoute)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestConfigErrorsAreCommandErrors(t *testing.T) {
	_, _, err := execute(t, "--log-level", "loud", "validate", chaptersRoute)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")

	_, _, err = execute(t, "--config", "missing.yaml", "validate", chaptersRoute)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "splitkeeper.yaml", "allow_expressions: true\n")
	route := writeFile(t, dir, "expr.yaml", `
version: 2
name: Expr
time_field: file_time
pieces:
  - {type: trigger, name: go, expr: "file_time >= 10"}
  - {type: split, name: Only}
`)

	_, _, err := execute(t, "validate", route)
	require.Error(t, err, "expressions are off by default")

	out, _, err := execute(t, "--config", cfgPath, "validate", route)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All routes valid")

	t.Setenv("SPLITKEEPER_ALLOW_EXPRESSIONS", "true")
	_, _, err = execute(t, "validate", route)
	require.NoError(t, err)
}
