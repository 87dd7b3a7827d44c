package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
)

func TestEncodeRoundTrip(t *testing.T) {
	orig, err := compileString(t, cityYAML, "city.yaml", Options{})
	require.NoError(t, err)

	data, err := Encode(orig)
	require.NoError(t, err)

	again, err := compileString(t, string(data), "city.yaml", Options{})
	require.NoError(t, err)

	assert.Equal(t, orig.SplitNames(), again.SplitNames())
	assert.Equal(t, orig.LevelNames, again.LevelNames)
	for i, s := range orig.Splits() {
		assert.Equal(t, s.ID, again.Splits()[i].ID)
		assert.Equal(t, s.Level, again.Splits()[i].Level)
	}

	assert.Equal(t, orig.Hash(), again.Hash())
}

func TestEncodeChapterRoute(t *testing.T) {
	orig, err := route.ChapterRoute("Any%", []string{"prologue", "1a", "2a"})
	require.NoError(t, err)

	data, err := Encode(orig)
	require.NoError(t, err)

	again, err := Compile(data, "any.yaml", Options{})
	require.NoError(t, err)
	assert.Equal(t, orig.SplitNames(), again.SplitNames())
	assert.True(t, again.ResetTrigger.Check(ir.Snapshot{"chapter": ir.IRInt(0), "file_time": ir.IRInt(12)}))
}

func TestEncodeExpressionTrigger(t *testing.T) {
	src := `
version: 2
name: x
time_field: file_time
pieces:
  - {type: trigger, name: go, expr: "chapter == 1 or chapter == 2"}
  - {type: split, name: A}
`
	orig, err := compileString(t, src, "r.yaml", Options{AllowExpressions: true})
	require.NoError(t, err)

	data, err := Encode(orig)
	require.NoError(t, err)
	assert.Contains(t, string(data), "chapter == 1 or chapter == 2")

	_, err = compileString(t, string(data), "r.yaml", Options{})
	assert.Equal(t, []string{ErrExprNotAllowed}, validationCodes(t, err))
}

const legacyJSON = `{
  "name": "City",
  "time_field": "chapter_time",
  "reset_trigger": "asi.chapter == 1 and asi.chapter_time < 1000",
  "pieces": [
    {"type": "trigger", "trigger": {"chapter": 1}},
    {"type": "split", "name": "City", "pieces": [
      {"type": "trigger", "trigger": "asi.chapter_checkpoints == 1"},
      {"type": "split", "name": "Start"},
      {"type": "trigger", "trigger": {"eval": "asi.chapter_complete"}},
      {"type": "split", "name": "Crossing"}
    ]}
  ]
}`

func TestImportLegacy(t *testing.T) {
	data, err := ImportLegacy([]byte(legacyJSON))
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 2")

	r, err := compileString(t, string(data), "city.yaml", Options{AllowExpressions: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"City->Start", "City"}, r.SplitNames())
	assert.Equal(t, []string{"City", "Crossing"}, r.FinalSplit().Names)
	assert.True(t, r.Piece(0).(*route.Trigger).Check(ir.Snapshot{"chapter": ir.IRInt(1)}))

	_, err = compileString(t, string(data), "city.yaml", Options{})
	require.Error(t, err)
}

func TestImportLegacyRejects(t *testing.T) {
	for name, src := range map[string]string{
		"versioned":    `{"version": 2, "name": "x", "pieces": []}`,
		"not json":     `name: x`,
		"bad type":     `{"name": "x", "pieces": [{"type": "loop"}]}`,
		"bad trigger":  `{"name": "x", "pieces": [{"type": "trigger", "trigger": 3}]}`,
		"mixed eval":   `{"name": "x", "pieces": [{"type": "trigger", "trigger": {"eval": "chapter == 1", "mode": 0}}]}`,
		"float values": `{"name": "x", "pieces": [{"type": "trigger", "trigger": {"chapter": 1.5}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ImportLegacy([]byte(src))
			assert.True(t, ir.IsFormatError(err), "got %v", err)
		})
	}
}
