package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountsScan(t *testing.T) {
	var c Counts
	require.NoError(t, c.Scan([]byte(`{"emails":2,"phones":0}`)))
	assert.Equal(t, Counts{"emails": 2, "phones": 0}, c)

	require.NoError(t, c.Scan(nil))
	assert.Empty(t, c)

	assert.Error(t, c.Scan(42))
	assert.Error(t, c.Scan("not json"))
}

func TestCountsValueNil(t *testing.T) {
	var c Counts
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)
}

func TestMaskDatabaseURL(t *testing.T) {
	assert.Equal(t,
		"postgres://redactor:xxxxx@db:5432/audit?sslmode=disable",
		maskDatabaseURL("postgres://redactor:hunter2@db:5432/audit?sslmode=disable"))
	assert.Equal(t,
		"postgres://db:5432/audit",
		maskDatabaseURL("postgres://db:5432/audit"))
}
