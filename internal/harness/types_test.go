package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	assert.Empty(t, r.Trace)

	r.AddEvent(TraceEvent{Type: EventSplit})
	r.AddEvent(TraceEvent{Type: EventAdvance})
	r.AddEvent(TraceEvent{Type: EventSplit})
	assert.Equal(t, 2, r.Count(EventSplit))
	assert.Equal(t, 0, r.Count(EventReset))
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
