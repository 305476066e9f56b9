package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockAdvance(t *testing.T) {
	start := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(start)

	assert.Equal(t, start, c.Now())
	assert.Equal(t, start.Add(time.Minute), c.Advance(time.Minute))
	assert.Equal(t, start.Add(time.Minute), c.Now())

	// Never moves backwards.
	assert.Equal(t, start.Add(time.Minute), c.Advance(-time.Hour))
}

func TestClockSet(t *testing.T) {
	start := time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(start)

	later := start.Add(time.Hour)
	assert.Equal(t, later, c.Set(later))

	// Setting an earlier time is a no-op.
	assert.Equal(t, later, c.Set(start))
}
