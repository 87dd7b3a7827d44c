package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickClock_StartsAtZero(t *testing.T) {
	clock := NewTickClock()
	assert.Equal(t, int64(0), clock.Current())
}

func TestTickClock_NextIncrementsMonotonically(t *testing.T) {
	clock := NewTickClock()

	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(3), clock.Next())
	assert.Equal(t, int64(3), clock.Current())
}

func TestTickClock_Reset(t *testing.T) {
	clock := NewTickClock()
	clock.Next()
	clock.Next()

	clock.Reset()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
}

func TestTickClock_Concurrent(t *testing.T) {
	clock := NewTickClock()

	const goroutines, perGoroutine = 8, 100
	seen := make(chan int64, goroutines*perGoroutine)
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				seen <- clock.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for v := range seen {
		require.False(t, unique[v], "tick %d handed out twice", v)
		unique[v] = true
	}
	assert.Len(t, unique, goroutines*perGoroutine)
	assert.Equal(t, int64(goroutines*perGoroutine), clock.Current())
}
