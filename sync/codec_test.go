package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/syncproto/errors"
)

func mkHash(b byte) ChangeHash { return hashFromByte(b) }

type fakeChange struct {
	hash ChangeHash
	deps []ChangeHash
	raw  []byte
}

func (c *fakeChange) Hash() ChangeHash   { return c.hash }
func (c *fakeChange) Deps() []ChangeHash { return c.deps }
func (c *fakeChange) RawBytes() []byte   { return c.raw }

func TestMessage_RoundTrip_Empty(t *testing.T) {
	msg := &Message{
		Heads:   []ChangeHash{},
		Need:    []ChangeHash{},
		Have:    nil,
		Changes: nil,
	}

	data := msg.Encode()
	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, msg.Heads, decoded.Heads)
	assert.Equal(t, msg.Need, decoded.Need)
	assert.Empty(t, decoded.Have)
	assert.Empty(t, decoded.Changes)
}

func TestMessage_RoundTrip_Full(t *testing.T) {
	h1, h2, h3 := mkHash(1), mkHash(2), mkHash(3)

	msg := &Message{
		Heads: []ChangeHash{h2, h3},
		Need:  []ChangeHash{h1},
		Have: []Have{{
			LastSync: []ChangeHash{h1},
			Bloom:    BloomFilterFromHashes([]ChangeHash{h2}),
		}},
		Changes: []Change{
			&fakeChange{hash: h2, deps: []ChangeHash{h1}, raw: []byte("payload-2")},
			&fakeChange{hash: h3, deps: []ChangeHash{h2}, raw: []byte("payload-3")},
		},
	}

	data := msg.Encode()
	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, msg.Heads, decoded.Heads)
	assert.Equal(t, msg.Need, decoded.Need)
	require.Len(t, decoded.Have, 1)
	assert.Equal(t, msg.Have[0].LastSync, decoded.Have[0].LastSync)
	assert.True(t, decoded.Have[0].Bloom.Contains(h2))

	require.Len(t, decoded.Changes, 2)
	assert.Equal(t, h2, decoded.Changes[0].Hash())
	assert.Equal(t, []ChangeHash{h1}, decoded.Changes[0].Deps())
	assert.Equal(t, []byte("payload-2"), decoded.Changes[0].RawBytes())
	assert.Equal(t, h3, decoded.Changes[1].Hash())
}

func TestMessage_RoundTrip_DefaultHave(t *testing.T) {
	msg := &Message{
		Heads: []ChangeHash{mkHash(9)},
		Have:  []Have{DefaultHave()},
	}
	data := msg.Encode()
	decoded, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, decoded.Have, 1)
	assert.Empty(t, decoded.Have[0].LastSync)
	assert.False(t, decoded.Have[0].Bloom.Contains(mkHash(1)))
}

func TestDecode_WrongMessageType(t *testing.T) {
	data := []byte{0x41, 0x00}
	_, err := Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrongMessageType))
	assert.Contains(t, errors.FlattenDetails(err), "0x42")
	assert.Contains(t, errors.FlattenDetails(err), "0x41")
}

func TestDecode_EmptyInput(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncatedInput))
}

func TestDecode_TruncatedLengthPrefix(t *testing.T) {
	// Valid type byte, then a heads count claiming 5 hashes with no bytes
	// following.
	data := []byte{MessageTypeSync, 5}
	_, err := Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncatedInput))
}

func TestDecode_TruncatedChangeBytes(t *testing.T) {
	// type, heads=0, need=0, have_count=0, change_count=1, declared
	// change_bytes length=50 with nothing following.
	data := []byte{MessageTypeSync, 0, 0, 0, 1, 50}
	_, err := Decode(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTruncatedInput))
}

func TestDecodeChange_BadHashLength(t *testing.T) {
	_, err := decodeChange([]byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadChangeHash))
}
