package lru

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCache_BasicGetPut(t *testing.T) {
	c := New[string, int](3)

	c.Put("a", 1)
	c.Put("b", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestCache_Eviction(t *testing.T) {
	c := New[string, int](2)

	assert.False(t, c.Put("a", 1))
	assert.False(t, c.Put("b", 2))
	assert.True(t, c.Put("c", 3), "inserting past capacity evicts")

	_, ok := c.Get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestCache_AccessPromotesEntry(t *testing.T) {
	c := New[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)

	c.Get("a")

	// "b" is now least recently used.
	c.Put("c", 3)

	_, ok := c.Get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestCache_UpdateExisting(t *testing.T) {
	c := New[string, string](2)

	c.Put("a", "A1")
	assert.False(t, c.Put("a", "A2"))

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", v)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Remove(t *testing.T) {
	c := New[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	c.Remove("b")
	c.Remove("missing")

	_, ok := c.Get("b")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())

	// The list must still be consistent after removal from the middle.
	c.Put("d", 4)
	c.Put("e", 5)
	_, ok = c.Get("a")
	assert.False(t, ok, "a is least recently used")
}

func TestCache_RemoveIf(t *testing.T) {
	c := New[string, int](3)
	c.Put("a", 1)

	assert.False(t, c.RemoveIf("a", func(v int) bool { return v == 0 }), "predicate rejects current value")
	assert.False(t, c.RemoveIf("missing", func(int) bool { return true }))
	_, ok := c.Get("a")
	assert.True(t, ok)

	// A replaced value is judged, not the one a caller read earlier.
	c.Put("a", 2)
	assert.False(t, c.RemoveIf("a", func(v int) bool { return v == 1 }))
	assert.True(t, c.RemoveIf("a", func(v int) bool { return v == 2 }))
	assert.Zero(t, c.Len())

	c.Put("b", 3)
	c.Put("c", 4)
	assert.Equal(t, 2, c.Len())
}

func TestCache_MinimumCapacity(t *testing.T) {
	c := New[int, int](0)
	c.Put(1, 1)
	c.Put(2, 2)

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(2)
	assert.True(t, ok)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[string, int](16)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := fmt.Sprintf("k%d", (g*100+i)%32)
				c.Put(key, i)
				c.Get(key)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}
