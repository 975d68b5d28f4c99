package lru

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache_Eviction(t *testing.T) {
	cache := New[string, int](2)
	cache.Set("a", 1)
	cache.Set("b", 2)
	_, _ = cache.Get("a")
	cache.Set("c", 3)

	_, ok := cache.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, cache.Len())

	cache.Delete("a")
	_, ok = cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_Update(t *testing.T) {
	cache := New[int, string](0)
	cache.Set(1, "x")
	cache.Set(1, "y")
	v, ok := cache.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "y", v)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_Unbounded(t *testing.T) {
	cache := New[int, int](0)
	for i := 0; i < 2000; i++ {
		cache.Set(i, i)
	}
	assert.Equal(t, 2000, cache.Len())
	v, ok := cache.Get(0)
	assert.True(t, ok)
	assert.Equal(t, 0, v)
}
