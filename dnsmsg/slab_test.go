package dnsmsg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlabAcquireReleaseReusesFreeList(t *testing.T) {
	s := newSlab[Name](4)
	a := s.acquire()
	a.wire = []byte{0}
	s.release(a)

	b := s.acquire()
	assert.Same(t, a, b)
	assert.Nil(t, b.wire, "reacquired item must be zeroed")
}

func TestSlabGrowsNewBlockWhenTailFull(t *testing.T) {
	s := newSlab[Name](2)
	for i := 0; i < 5; i++ {
		s.acquire()
	}
	blocks, used, freed := s.stats()
	assert.Equal(t, 3, blocks) // ceil(5/2)
	assert.Equal(t, 5, used)
	assert.Equal(t, 0, freed)
}

func TestSlabResetKeepOneRewindsTailBlock(t *testing.T) {
	s := newSlab[Name](2)
	var items []*Name
	for i := 0; i < 5; i++ {
		items = append(items, s.acquire())
	}
	s.release(items[0])

	s.resetKeepOne()
	blocks, used, freed := s.stats()
	assert.Equal(t, 1, blocks)
	assert.Equal(t, 0, used)
	assert.Equal(t, 0, freed)

	// the kept block's backing array is reused, not reallocated.
	n := s.acquire()
	assert.NotNil(t, n)
	blocks, used, _ = s.stats()
	assert.Equal(t, 1, blocks)
	assert.Equal(t, 1, used)
}

func TestSlabDestroyDropsEverything(t *testing.T) {
	s := newSlab[Name](4)
	s.acquire()
	s.destroy()
	blocks, used, freed := s.stats()
	assert.Equal(t, 0, blocks)
	assert.Equal(t, 0, used)
	assert.Equal(t, 0, freed)
}
