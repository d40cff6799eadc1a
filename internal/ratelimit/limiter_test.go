package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurst(t *testing.T) {
	l := New(60, 3)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// other clients have their own bucket
	assert.True(t, l.Allow("10.0.0.2"))

	// one token per second at 60/min
	fixed = fixed.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiterCleanup(t *testing.T) {
	l := New(60, 1)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	current := start
	l.now = func() time.Time { return current }

	l.Allow("old")
	current = start.Add(2 * time.Hour)
	l.Allow("new")

	assert.Equal(t, 1, l.Cleanup(time.Hour))
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "new")
}
