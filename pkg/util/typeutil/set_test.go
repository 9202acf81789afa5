package typeutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := NewSet(1, 2, 3)
	assert.True(t, s.Contain(1, 2, 3))
	assert.False(t, s.Contain(1, 4))
	assert.Equal(t, 3, s.Len())

	assert.False(t, s.TryInsert(2))
	assert.True(t, s.TryInsert(4))

	c := s.Clone()
	s.Remove(1)
	assert.False(t, s.Contain(1))
	assert.True(t, c.Contain(1))
	assert.ElementsMatch(t, []int{2, 3, 4}, s.Collect())
}

func TestSetOfPointers(t *testing.T) {
	type node struct{ v int }
	a, b := &node{1}, &node{1}
	s := make(Set[any])
	assert.True(t, s.TryInsert(a))
	assert.True(t, s.TryInsert(b))
	assert.False(t, s.TryInsert(a))
}

func TestConcurrentSet(t *testing.T) {
	s := NewConcurrentSet[string]()
	var wg sync.WaitGroup
	inserted := make([]bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inserted[i] = s.Insert("digest")
		}(i)
	}
	wg.Wait()

	n := 0
	for _, ok := range inserted {
		if ok {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.True(t, s.Contain("digest"))
	s.Remove("digest")
	assert.Empty(t, s.Collect())
}
