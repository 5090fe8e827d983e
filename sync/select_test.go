package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/syncproto/sync/testengine"
)

func TestSelectChanges_NoHave_ReturnsNeedOnly(t *testing.T) {
	e := testengine.New()
	x := testengine.NewChange([]byte("x"))
	require.NoError(t, e.Add(x))

	out := selectChanges(e, nil, []ChangeHash{x.Hash()})
	require.Len(t, out, 1)
	assert.Equal(t, x.Hash(), out[0].Hash())
}

func TestSelectChanges_ClosureOverDependents(t *testing.T) {
	e := testengine.New()
	x := testengine.NewChange([]byte("x"))
	y := testengine.NewChange([]byte("y"), x.Hash())
	require.NoError(t, e.Add(x))
	require.NoError(t, e.Add(y))

	// Peer's bloom is empty, so both x and y are reported absent. Selecting
	// with have=[{last_sync: [], bloom: empty}] must return both, with y's
	// dependency x present in the result.
	have := []Have{{LastSync: nil, Bloom: BloomFilterFromHashes(nil)}}
	out := selectChanges(e, have, nil)

	hashes := map[ChangeHash]bool{}
	for _, c := range out {
		hashes[c.Hash()] = true
	}
	assert.True(t, hashes[x.Hash()])
	assert.True(t, hashes[y.Hash()])
}

// TestSelectChanges_BloomFalsePositiveDraggedInByDependent constructs a
// change Z that triggers a false positive in the peer's bloom (so the
// initial scan thinks the peer has it), but Z's descendant W is correctly
// reported absent. Dependency closure must still select Z, because W
// depends on it.
func TestSelectChanges_BloomFalsePositiveDraggedInByDependent(t *testing.T) {
	e := testengine.New()

	z := testengine.NewChange([]byte("z"))
	w := testengine.NewChange([]byte("w"), z.Hash())
	require.NoError(t, e.Add(z))
	require.NoError(t, e.Add(w))

	// Build a bloom that contains z (false positive: the peer doesn't
	// actually have it) but not w.
	bloom := NewBloomFilter(1, defaultFalsePositiveRate)
	bloom.Add(z.Hash())
	require.True(t, bloom.Contains(z.Hash()))
	require.False(t, bloom.Contains(w.Hash()))

	have := []Have{{LastSync: nil, Bloom: bloom}}
	out := selectChanges(e, have, nil)

	hashes := map[ChangeHash]bool{}
	for _, c := range out {
		hashes[c.Hash()] = true
	}
	assert.True(t, hashes[w.Hash()], "w must be sent: bloom reports it absent")
	assert.True(t, hashes[z.Hash()], "z must be dragged in: w depends on it")
}

func TestSelectChanges_LastSyncExcludesAncestors(t *testing.T) {
	e := testengine.New()
	x := testengine.NewChange([]byte("x"))
	y := testengine.NewChange([]byte("y"), x.Hash())
	require.NoError(t, e.Add(x))
	require.NoError(t, e.Add(y))

	have := []Have{{LastSync: []ChangeHash{x.Hash()}, Bloom: BloomFilterFromHashes(nil)}}
	out := selectChanges(e, have, nil)

	require.Len(t, out, 1)
	assert.Equal(t, y.Hash(), out[0].Hash())
}

func TestSelectChanges_ExplicitNeedNotInCandidates(t *testing.T) {
	e := testengine.New()
	x := testengine.NewChange([]byte("x"))
	require.NoError(t, e.Add(x))

	// have's last_sync already covers x, so it's not a candidate, but it's
	// explicitly needed, so it must still come back via the need-extras path.
	have := []Have{{LastSync: []ChangeHash{x.Hash()}, Bloom: BloomFilterFromHashes(nil)}}
	out := selectChanges(e, have, []ChangeHash{x.Hash()})

	require.Len(t, out, 1)
	assert.Equal(t, x.Hash(), out[0].Hash())
}
