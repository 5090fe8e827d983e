package sync

// State is the per-peer session memory: what we believe is shared, what we
// last sent, and what the peer last told us. It is created empty when a
// session opens and mutated exclusively by GenerateSyncMessage and
// ReceiveSyncMessage; no behavior beyond field access lives here. Not safe
// for concurrent use: a single State is owned by whoever drives one
// session.
//
// TheirHeads, TheirHave, and TheirNeed are nil until the first
// ReceiveSyncMessage call; nil here is a meaningful "peer hasn't spoken
// yet", not an empty claim.
type State struct {
	// SharedHeads is the sorted set of change hashes believed known to both
	// sides. On receive it is replaced by the peer's heads when all of them
	// are known locally (so it becomes empty when the peer reports empty
	// heads); otherwise it only gains the peer heads we know.
	SharedHeads []ChangeHash

	// LastSentHeads is our DAG heads at the moment of the last transmission.
	LastSentHeads []ChangeHash

	// TheirHeads, TheirHave, TheirNeed are the last values received from the
	// peer. nil before the first receive.
	TheirHeads []ChangeHash
	TheirHave  []Have
	TheirNeed  []ChangeHash

	// SentHashes is the set of change hashes already transmitted to this
	// peer this session, a dedup guard. Grows monotonically except when
	// trimmed by FilterChanges on receive.
	SentHashes map[ChangeHash]struct{}
}

// NewState returns an empty session state: no shared heads, no sent
// hashes, and all peer-reported fields absent.
func NewState() *State {
	return &State{
		SharedHeads:   nil,
		LastSentHeads: nil,
		SentHashes:    make(map[ChangeHash]struct{}),
	}
}
