package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/ir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"route": "Any%"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"route": "Any%"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	details := map[string]string{"file": "route.yaml", "line": "42"}
	require.NoError(t, formatter.Error("E102", "unknown trigger field", details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E102", resp.Error.Code)
	assert.Equal(t, "unknown trigger field", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E001", "route failed", map[string]string{"file": "route.yaml"}))
			assert.Contains(t, buf.String(), "Error [E001]: route failed")
			assert.Equal(t, tt.wantDetails, bytes.Contains(buf.Bytes(), []byte("Details:")))
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Loading %s", "route.yaml")

	assert.Empty(t, out.String())
	assert.Equal(t, "Loading route.yaml\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("hidden")
	assert.NotContains(t, errOut.String(), "hidden")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "failed"))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestLoadFailure(t *testing.T) {
	err := LoadFailure("pb.yaml", fmt.Errorf("load: %w", &ir.FormatError{Path: "pb.yaml", Version: 9, Message: "unsupported version"}))
	assert.Equal(t, ExitCommandError, err.Code)
	assert.Equal(t, "cannot load pb.yaml: unsupported version (possibly needs a software update)", err.Error())

	cause := errors.New("permission denied")
	err = LoadFailure("route.yaml", cause)
	assert.Equal(t, ExitCommandError, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cannot load route.yaml: permission denied", err.Error())
}
