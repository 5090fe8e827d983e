package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/syncproto/sync/testengine"
)

func TestGenerateSyncMessage_FirstCallAlwaysSends(t *testing.T) {
	e := testengine.New()
	state := NewState()

	msg := GenerateSyncMessage(e, state)
	require.NotNil(t, msg, "opening message must always be sent, even with an empty DAG")
	assert.Empty(t, msg.Heads)
	assert.Equal(t, msg.Heads, state.LastSentHeads)
}

func TestGenerateSyncMessage_SilenceOnNoChange(t *testing.T) {
	e := testengine.New()
	state := NewState()

	first := GenerateSyncMessage(e, state)
	require.NotNil(t, first)

	// Pretend we've heard back from a peer with identical, unchanging state.
	require.NoError(t, ReceiveSyncMessage(e, state, Message{Heads: first.Heads, Have: []Have{DefaultHave()}}))

	second := GenerateSyncMessage(e, state)
	assert.Nil(t, second, "nothing changed on either side; generator must fall silent")
}

func TestGenerateSyncMessage_SendsNewHeadsAfterLocalChange(t *testing.T) {
	e := testengine.New()
	state := NewState()

	first := GenerateSyncMessage(e, state)
	require.NoError(t, ReceiveSyncMessage(e, state, Message{Heads: first.Heads, Have: []Have{DefaultHave()}}))

	second := GenerateSyncMessage(e, state)
	assert.Nil(t, second)

	x := testengine.NewChange([]byte("x"))
	require.NoError(t, e.Add(x))

	third := GenerateSyncMessage(e, state)
	require.NotNil(t, third, "local DAG advanced; generator must speak up")
	assert.Equal(t, []ChangeHash{x.Hash()}, third.Heads)
}

func TestGenerateSyncMessage_ResetDetectionOnForeignLastSync(t *testing.T) {
	e := testengine.New()
	state := NewState()

	foreign := hashFromByte(0xAA)
	state.TheirHave = []Have{{LastSync: []ChangeHash{foreign}, Bloom: BloomFilterFromHashes(nil)}}

	msg := GenerateSyncMessage(e, state)
	require.NotNil(t, msg)
	require.Len(t, msg.Have, 1)
	assert.Empty(t, msg.Have[0].LastSync, "reset must fall back to DefaultHave")
	assert.Nil(t, msg.Need)
}

func TestGenerateSyncMessage_DoesNotResendAlreadySentChanges(t *testing.T) {
	e := testengine.New()
	state := NewState()

	x := testengine.NewChange([]byte("x"))
	require.NoError(t, e.Add(x))

	state.TheirHeads = []ChangeHash{x.Hash()}
	state.TheirHave = []Have{{LastSync: nil, Bloom: BloomFilterFromHashes(nil)}}
	state.TheirNeed = []ChangeHash{x.Hash()}

	msg := GenerateSyncMessage(e, state)
	require.NotNil(t, msg)
	require.Len(t, msg.Changes, 1)
	assert.Equal(t, x.Hash(), msg.Changes[0].Hash())
	assert.Contains(t, state.SentHashes, x.Hash())

	// Calling again with identical state (no acknowledgement received, heads
	// and have/need all unchanged) must not resend x: it's already sent and
	// nothing else moved, so the generator falls silent.
	msg2 := GenerateSyncMessage(e, state)
	assert.Nil(t, msg2)
}
