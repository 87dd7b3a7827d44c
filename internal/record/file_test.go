package record

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aarondl/opt/null"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
	"github.com/roach88/splitkeeper/internal/testutil"
)

var nullTimes = cmp.Comparer(func(a, b null.Val[int64]) bool {
	av, aok := a.Get()
	bv, bok := b.Get()
	return aok == bok && av == bv
})

func sampleRoute(t *testing.T) *route.Route {
	t.Helper()
	return testutil.Route(t,
		route.StartTimer{},
		testutil.Always("enter"),
		route.NewSplit(1, "Start"),
		testutil.Always("checkpoint"),
		route.NewSplit(0, "City", "Chasm"),
	)
}

func TestTimesFileRoundTrip(t *testing.T) {
	r := sampleRoute(t)
	splits := r.Splits()

	pb := NewTimes().Resync(r)
	pb.Record(splits[1], r.Path(splits[1]), ms(62345))

	path := filepath.Join(t.TempDir(), "pb.yaml")
	require.NoError(t, SaveTimes(path, pb, r))

	loaded, err := LoadTimes(path)
	require.NoError(t, err)
	if diff := cmp.Diff(pb.Entries(), loaded.Entries(), nullTimes); diff != "" {
		t.Errorf("loaded record differs (-saved +loaded):\n%s", diff)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind: personal_best")
	assert.Contains(t, string(data), "0:01:02.345")
	assert.Contains(t, string(data), r.Hash())

	require.NoError(t, SaveTimes(path, loaded, r))
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again), "load then save reproduces the file")
}

func TestGoldsFileRoundTrip(t *testing.T) {
	r := sampleRoute(t)
	g := NewGolds().Resync(r)
	g.Improve(Key{ID: r.FinalSplit().ID, Level: 1}, "", 1500)

	path := filepath.Join(t.TempDir(), "nested", "golds.yaml")
	require.NoError(t, SaveGolds(path, g, r))

	loaded, err := LoadGolds(path)
	require.NoError(t, err)
	if diff := cmp.Diff(g.Entries(), loaded.Entries(), nullTimes); diff != "" {
		t.Errorf("loaded golds differ (-saved +loaded):\n%s", diff)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()

	pb, err := LoadTimes(filepath.Join(dir, "pb.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, pb.Len())

	g, err := LoadGolds(filepath.Join(dir, "golds.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
		version int
	}{
		{"not yaml", "version: [1\n", 0},
		{"future version", "version: 2\nkind: personal_best\nentries: []\n", 2},
		{"unversioned", "kind: personal_best\nentries: []\n", 0},
		{"wrong kind", "version: 1\nkind: golds\nentries: []\n", 1},
		{"unknown field", "version: 1\nkind: personal_best\nsplits: []\n", 0},
		{"bad id", "version: 1\nkind: personal_best\nentries:\n  - {id: nope, name: A, level: 0}\n", 1},
		{"bad time", "version: 1\nkind: personal_best\nentries:\n  - {id: 0b6f3c1e-3a53-4c71-8c5d-1d2f6c7e9a01, name: A, level: 0, time: soon}\n", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pb.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := LoadTimes(path)
			var fe *ir.FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, path, fe.Path)
			assert.Equal(t, tt.version, fe.Version)
		})
	}
}
