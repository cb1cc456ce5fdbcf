package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGet(t *testing.T) {
	c := NewMemory[string]()

	_, ok := c.Get(EntityKey(1))
	assert.False(t, ok)

	c.Put(EntityKey(1), "first")
	c.Put(EntityKey(1), "second")
	got, ok := c.Get(EntityKey(1))
	require.True(t, ok)
	assert.Equal(t, "second", got)

	_, ok = c.Get(ParentKey(1))
	assert.False(t, ok, "entity and parent keys never collide")
}

func TestAppendListFor(t *testing.T) {
	c := NewMemory[int]()

	empty := c.ListFor(ParentKey(7))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for i := range 3 {
		c.Append(ParentKey(7), i)
	}
	c.Append(ParentKey(8), 99)

	list := c.ListFor(ParentKey(7))
	assert.Equal(t, []int{0, 1, 2}, list)

	list[0] = 42
	assert.Equal(t, []int{0, 1, 2}, c.ListFor(ParentKey(7)), "ListFor returns a copy")
	assert.Equal(t, []int{99}, c.ListFor(ParentKey(8)))
}

func TestResetAndLen(t *testing.T) {
	c := NewMemory[string]()
	c.Put(EntityKey(1), "a")
	c.Put(Key{ParentID: 2, EntityID: 3}, "b")
	c.Append(ParentKey(2), "c")

	slots, lists := c.Len()
	assert.Equal(t, 2, slots)
	assert.Equal(t, 1, lists)

	c.Reset()
	slots, lists = c.Len()
	assert.Zero(t, slots)
	assert.Zero(t, lists)
	_, ok := c.Get(EntityKey(1))
	assert.False(t, ok)
	assert.Empty(t, c.ListFor(ParentKey(2)))
}

func TestConcurrentAppend(t *testing.T) {
	c := NewMemory[int]()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				c.Append(ParentKey(1), i*100+j)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, c.ListFor(ParentKey(1)), 1000)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "(-,5)", EntityKey(5).String())
	assert.Equal(t, "(5,-)", ParentKey(5).String())
	assert.Equal(t, "(1,2)", Key{ParentID: 1, EntityID: 2}.String())
}
