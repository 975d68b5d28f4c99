package syncmap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap_GetOrCreate(t *testing.T) {
	m := New[string, int]()
	_, ok := m.Get("a")
	assert.False(t, ok)

	var created int
	var mux sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := m.GetOrCreate("a", func() int {
				mux.Lock()
				created++
				mux.Unlock()
				return 7
			})
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, m.Len())

	m.Put("b", 2)
	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
