package chunkset

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	seq := NewSequence(0)

	_, ok := seq.Last()
	assert.False(t, ok)
	assert.Equal(t, uint64(0), seq.Peek())

	assert.Equal(t, uint64(0), seq.Next())
	assert.Equal(t, uint64(1), seq.Next())
	assert.Equal(t, uint64(2), seq.Peek())
	assert.Equal(t, uint64(2), seq.Issued())

	last, ok := seq.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(1), last)

	offset := NewSequence(100)
	assert.Equal(t, uint64(100), offset.Next())
	assert.Equal(t, uint64(1), offset.Issued())
}

func TestSet(t *testing.T) {
	s := New()
	assert.True(t, s.IsEmpty())

	assert.True(t, s.Add(5))
	assert.True(t, s.Add(1))
	assert.False(t, s.Add(5))
	assert.True(t, s.Add(1<<40))

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Contains(1))
	assert.Equal(t, []uint64{1, 5, 1 << 40}, s.Indices())
	assert.Equal(t, s.Indices(), slices.Collect(s.All()))
	assert.Equal(t, "[1 5 1099511627776]", s.String())

	_, err := s.Only()
	assert.Error(t, err)

	assert.True(t, s.Remove(1))
	assert.False(t, s.Remove(1))
	assert.True(t, s.Remove(1<<40))

	only, err := s.Only()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), only)

	assert.True(t, s.Remove(5))
	assert.True(t, s.IsEmpty())
	_, err = s.Only()
	assert.Error(t, err)
}

func TestSetAllStopsEarly(t *testing.T) {
	s := New()
	for i := range uint64(10) {
		s.Add(i)
	}

	var seen []uint64
	for i := range s.All() {
		if i == 3 {
			break
		}
		seen = append(seen, i)
	}
	assert.Equal(t, []uint64{0, 1, 2}, seen)
}
