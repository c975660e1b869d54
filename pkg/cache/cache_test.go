package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Value string `json:"value"`
}

func TestPutThenGetRoundTrips(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	key := Key("demo", "dev", "stable", []byte(`{"name":"demo"}`))
	require.NoError(t, c.Put(key, sample{Value: "xyz"}))

	var got sample
	hit, err := c.Get(key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "xyz", got.Value)
}

func TestGetMissReturnsFalse(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)

	var got sample
	hit, err := c.Get("nonexistent", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestKeyIsDeterministicAndContentSensitive(t *testing.T) {
	a := Key("demo", "dev", "stable", []byte("one"))
	b := Key("demo", "dev", "stable", []byte("one"))
	c := Key("demo", "dev", "stable", []byte("two"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestClearRemovesEntry(t *testing.T) {
	c, err := New(t.TempDir())
	require.NoError(t, err)
	key := Key("demo", "dev", "stable", []byte("x"))
	require.NoError(t, c.Put(key, sample{Value: "1"}))
	require.NoError(t, c.Clear(key))

	var got sample
	hit, err := c.Get(key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
