package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache_SetAndGet(t *testing.T) {
	c := New()

	c.Set("key", "value", time.Minute)

	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", got)
}

func TestCache_GetMissing(t *testing.T) {
	c := New()

	got, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_Expiration(t *testing.T) {
	c := New()

	c.Set("key", "value", time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	got, ok := c.Get("key")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_Delete(t *testing.T) {
	c := New()

	c.Set("key", "value", time.Minute)
	c.Delete("key")

	_, ok := c.Get("key")
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := New()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Clear()

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestCache_OverwriteExisting(t *testing.T) {
	c := New()

	c.Set("key", "old", time.Minute)
	c.Set("key", "new", time.Minute)

	got, ok := c.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "new", got)
}
