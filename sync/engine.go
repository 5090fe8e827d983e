// Package sync implements the peer-to-peer change synchronization protocol
// for a CRDT document engine: per-peer session state, the bloom-filter-based
// "have" summary, the wire codec, and the generate/receive state machine
// that brings two replicas of a change DAG to convergence.
//
// The document engine itself (the store of changes, their encoding, and the
// CRDT operation model) is out of scope. This package only consumes it
// through the Engine interface.
package sync

// ChangeHash is the 32-byte content-addressed identifier of a Change.
// Identical changes produce identical hashes. Hashes are totally ordered
// lexicographically; every ChangeHash vector that crosses a package
// boundary (wire, State, Engine) is sorted ascending.
type ChangeHash [32]byte

// Less reports whether h sorts before o, lexicographically over the raw
// bytes.
func (h ChangeHash) Less(o ChangeHash) bool {
	for i := range h {
		if h[i] != o[i] {
			return h[i] < o[i]
		}
	}
	return false
}

// String returns the lowercase hex encoding of the hash, for logging.
func (h ChangeHash) String() string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, len(h)*2)
	for i, b := range h {
		buf[i*2] = hexDigits[b>>4]
		buf[i*2+1] = hexDigits[b&0x0f]
	}
	return string(buf)
}

// Change is an immutable, content-addressed CRDT update. Implementations are
// opaque blobs to this package: it never inspects raw_bytes except to ship
// it across the wire, and never inspects operation semantics.
type Change interface {
	// Hash returns the content-addressed identifier of this change.
	Hash() ChangeHash
	// Deps returns the hashes of changes this one depends on. The DAG head
	// of a store is a change with no local dependents.
	Deps() []ChangeHash
	// RawBytes returns the encoded change payload, opaque to this package.
	RawBytes() []byte
}

// Engine is the document-engine interface consumed by the sync core. It is
// implemented by the CRDT document store, which is out of scope for this
// package; sync/testengine provides a minimal in-memory implementation used
// by this package's own tests and the demo CLI.
type Engine interface {
	// GetHeads returns the engine's current DAG heads, sorted ascending.
	GetHeads() []ChangeHash

	// GetMissingDeps returns, for the given candidate heads, the subset whose
	// dependency chain cannot be resolved locally: changes this engine
	// needs before it can apply anything depending on them. Sorted
	// ascending.
	GetMissingDeps(heads []ChangeHash) []ChangeHash

	// GetChangeByHash returns the change with the given hash, if present.
	GetChangeByHash(h ChangeHash) (Change, bool)

	// GetChangesSince returns every local change not implied by (i.e. not an
	// ancestor of, and not equal to) any hash in since. Order is the
	// engine's topological iteration order (ancestors before descendants).
	GetChangesSince(since []ChangeHash) []Change

	// ApplyChanges applies a batch of changes to the engine. Returns an
	// error if the engine rejects any change (unknown deps, corrupt
	// payload). Application is idempotent: applying an already-known change
	// hash is a no-op.
	ApplyChanges(changes []Change) error

	// FilterChanges removes from the given set any hash implied by
	// peerHeads: any hash that is an ancestor of, or equal to, one of
	// peerHeads. Used to keep State.SentHashes bounded, via ancestor
	// closure.
	FilterChanges(peerHeads []ChangeHash, hashes map[ChangeHash]struct{})
}
