package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortedUnion(t *testing.T) {
	a := []ChangeHash{mkHash(1), mkHash(3)}
	b := []ChangeHash{mkHash(2), mkHash(3), mkHash(4)}
	got := sortedUnion(a, b)
	assert.Equal(t, []ChangeHash{mkHash(1), mkHash(2), mkHash(3), mkHash(4)}, got)
}

func TestSortedSubtract(t *testing.T) {
	a := []ChangeHash{mkHash(1), mkHash(2), mkHash(3)}
	b := []ChangeHash{mkHash(2)}
	assert.Equal(t, []ChangeHash{mkHash(1), mkHash(3)}, sortedSubtract(a, b))
}

func TestSortedContains(t *testing.T) {
	s := []ChangeHash{mkHash(1), mkHash(5), mkHash(9)}
	assert.True(t, sortedContains(s, mkHash(5)))
	assert.False(t, sortedContains(s, mkHash(6)))
}

func TestSortedDedup(t *testing.T) {
	in := []ChangeHash{mkHash(3), mkHash(1), mkHash(1), mkHash(2)}
	assert.Equal(t, []ChangeHash{mkHash(1), mkHash(2), mkHash(3)}, sortedDedup(in))
}

func TestEqualHeads(t *testing.T) {
	assert.True(t, equalHeads(nil, nil))
	assert.True(t, equalHeads([]ChangeHash{}, nil))
	assert.False(t, equalHeads([]ChangeHash{mkHash(1)}, nil))
	assert.True(t, equalHeads([]ChangeHash{mkHash(1)}, []ChangeHash{mkHash(1)}))
}

func TestSubsetOf(t *testing.T) {
	b := []ChangeHash{mkHash(1), mkHash(2), mkHash(3)}
	assert.True(t, subsetOf([]ChangeHash{mkHash(2)}, b))
	assert.True(t, subsetOf(nil, b))
	assert.False(t, subsetOf([]ChangeHash{mkHash(9)}, b))
}
