package record

import (
	"testing"

	"github.com/aarondl/opt/null"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/splitkeeper/internal/ir"
	"github.com/roach88/splitkeeper/internal/route"
	"github.com/roach88/splitkeeper/internal/testutil"
)

func ms(v int64) null.Val[int64] {
	return null.From(v)
}

func TestSegmentTime(t *testing.T) {
	s1 := route.NewSplit(0, "S1")
	s2 := route.NewSplit(1, "S2")
	s3 := route.NewSplit(0, "S3")

	times := NewTimes()
	times.Record(s1, "S1", ms(1000))
	times.Record(s2, "S2", ms(1500))
	times.Record(s3, "S3", ms(3000))

	tests := []struct {
		name  string
		split *route.Split
		level int
		want  int64
	}{
		{"top level skips deeper predecessor", s3, 0, 2000},
		{"nested measured from shallower predecessor", s2, 1, 500},
		{"first split is raw time", s1, 0, 1000},
		{"deep level uses immediate predecessor", s3, 1, 1500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := times.SegmentTime(tt.split.ID, tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.MustGet())
		})
	}
}

func TestSegmentTimeNullEndpoints(t *testing.T) {
	a := route.NewSplit(0, "A")
	b := route.NewSplit(0, "B")
	c := route.NewSplit(0, "C")

	times := NewTimes()
	times.Record(a, "A", null.Val[int64]{})
	times.Record(b, "B", ms(2000))
	times.Record(c, "C", null.Val[int64]{})

	got, err := times.SegmentTime(b.ID, 0)
	require.NoError(t, err)
	assert.True(t, got.IsNull(), "null predecessor")

	got, err = times.SegmentTime(c.ID, 0)
	require.NoError(t, err)
	assert.True(t, got.IsNull(), "null endpoint")
}

func TestSegmentTimeNotFound(t *testing.T) {
	_, err := NewTimes().SegmentTime(uuid.New(), 0)
	assert.ErrorIs(t, err, ir.ErrNotFound)
}

func TestTimesSetKeepsPosition(t *testing.T) {
	a := route.NewSplit(0, "A")
	b := route.NewSplit(0, "B")

	times := NewTimes()
	times.Record(a, "A", ms(1))
	times.Record(b, "B", ms(2))
	times.Record(a, "A", ms(3))

	entries := times.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, a.ID, entries[0].ID)
	assert.Equal(t, int64(3), entries[0].Time.MustGet())
}

func TestTimesDelete(t *testing.T) {
	a := route.NewSplit(0, "A")
	b := route.NewSplit(0, "B")
	c := route.NewSplit(0, "C")

	times := NewTimes()
	times.Record(a, "A", ms(1))
	times.Record(b, "B", ms(2))
	times.Record(c, "C", ms(3))

	assert.True(t, times.Delete(b.ID))
	assert.False(t, times.Delete(b.ID))
	assert.False(t, times.Has(b.ID))

	got, err := times.SegmentTime(c.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.MustGet(), "index rebuilt after delete")
}

func TestTimesCloneIsIndependent(t *testing.T) {
	a := route.NewSplit(0, "A")
	times := NewTimes()
	times.Record(a, "A", ms(1))

	clone := times.Clone()
	clone.Record(a, "A", ms(9))
	clone.Record(route.NewSplit(0, "B"), "B", ms(10))

	v, _ := times.Get(a.ID)
	assert.Equal(t, int64(1), v.MustGet())
	assert.Equal(t, 1, times.Len())
}

func TestTimesResync(t *testing.T) {
	keep := route.NewSplit(0, "Keep")
	gone := route.NewSplit(0, "Gone")
	fresh := route.NewSplit(0, "Fresh")

	old := NewTimes()
	old.Record(gone, "Gone", ms(500))
	old.Record(keep, "Keep", ms(1000))

	r := testutil.Route(t, fresh, testutil.Always("t"), keep)
	synced := old.Resync(r)

	entries := synced.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, fresh.ID, entries[0].ID)
	assert.True(t, entries[0].Time.IsNull())
	assert.Equal(t, keep.ID, entries[1].ID)
	assert.Equal(t, int64(1000), entries[1].Time.MustGet())
	assert.False(t, synced.Has(gone.ID))

	assert.Equal(t, 2, old.Len(), "resync does not modify the receiver")
}

func TestTimesFinalAndComplete(t *testing.T) {
	a := route.NewSplit(1, "A")
	end := route.NewSplit(0, "End")
	r := testutil.Route(t, a, testutil.Always("t"), end)

	times := NewTimes().Resync(r)
	assert.True(t, times.Final(r).IsNull())
	assert.False(t, times.Complete(r))

	times.Record(end, "End", ms(5000))
	assert.Equal(t, int64(5000), times.Final(r).MustGet())
	assert.False(t, times.Complete(r))

	times.Record(a, "End->A", ms(2000))
	assert.True(t, times.Complete(r))
}
