package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/splitkeeper/internal/engine"
	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
	"github.com/roach88/splitkeeper/internal/testutil"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// twoSplitRun is [start, go, file_time>=1000, A, file_time>=2500, B].
type twoSplitRun struct {
	route *route.Route
	a, b  *route.Split
	src   *testutil.Source
	m     *engine.Manager
}

func newTwoSplitRun(t *testing.T, opts ...engine.Option) *twoSplitRun {
	t.Helper()
	a := route.NewSplit(0, "A")
	b := route.NewSplit(0, "B")
	r := testutil.Route(t,
		route.StartTimer{},
		testutil.Always("go"),
		testutil.AtLeast("a", "file_time", 1000),
		a,
		testutil.AtLeast("b", "file_time", 2500),
		b,
	)
	src := testutil.NewSource(ir.Snapshot{"file_time": ir.IRInt(0)})
	return &twoSplitRun{route: r, a: a, b: b, src: src, m: engine.New(src, r, nil, nil, opts...)}
}

// play sets the file time for each value and updates once per value.
func (run *twoSplitRun) play(times ...int64) {
	for _, ft := range times {
		run.src.SetInt("file_time", ft)
		run.m.Update()
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
