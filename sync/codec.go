package sync

import (
	"encoding/binary"

	"github.com/teranos/syncproto/errors"
)

// Have is one summary of a peer's knowledge: the heads at which the bloom
// was built, plus a bloom filter over every change strictly after
// last_sync. Multiple Haves in a single Message are conjunctive: a change
// is "possibly present at the peer" iff any one of them contains it.
type Have struct {
	LastSync []ChangeHash
	Bloom    *BloomFilter
}

// DefaultHave returns the zero-value Have used by reset messages: empty
// last_sync and an empty (n=0) bloom filter that reports Contains == false
// for everything.
func DefaultHave() Have {
	return Have{
		LastSync: nil,
		Bloom:    NewBloomFilter(0, defaultFalsePositiveRate),
	}
}

// Message is the wire envelope exchanged between two sync peers. All hash
// vectors are sorted ascending.
type Message struct {
	Heads   []ChangeHash
	Need    []ChangeHash
	Have    []Have
	Changes []Change
}

// genericChange is the concrete Change implementation produced by Decode.
// Decoded changes carry only hash/deps/raw bytes; the engine is
// responsible for interpreting raw_bytes into its own operation model.
type genericChange struct {
	hash ChangeHash
	deps []ChangeHash
	raw  []byte
}

func (c *genericChange) Hash() ChangeHash   { return c.hash }
func (c *genericChange) Deps() []ChangeHash { return c.deps }
func (c *genericChange) RawBytes() []byte   { return c.raw }

// Encode serializes the message to its wire form:
//
//	byte  0x42
//	vec<ChangeHash>  heads
//	vec<ChangeHash>  need
//	count            have_count
//	  for each Have: vec<ChangeHash> last_sync, vec<byte> bloom_bytes
//	count            change_count
//	  for each Change: vec<byte> change_bytes
//
// Encode does not re-sort hash vectors on the caller's behalf: an unsorted
// vector crossing this boundary is itself an invariant violation the
// caller is responsible for avoiding.
func (m *Message) Encode() []byte {
	buf := make([]byte, 0, 64+32*(len(m.Heads)+len(m.Need)))
	buf = append(buf, MessageTypeSync)
	buf = appendHashVec(buf, m.Heads)
	buf = appendHashVec(buf, m.Need)

	buf = appendUvarint(buf, uint64(len(m.Have)))
	for _, h := range m.Have {
		buf = appendHashVec(buf, h.LastSync)
		buf = appendByteVec(buf, h.Bloom.ToBytes())
	}

	buf = appendUvarint(buf, uint64(len(m.Changes)))
	for _, c := range m.Changes {
		buf = appendByteVec(buf, encodeChange(c))
	}

	return buf
}

// Decode parses a Message from its wire form, rejecting any input that
// doesn't start with MessageTypeSync and reporting truncated input if any
// length prefix exceeds the remaining bytes.
func Decode(data []byte) (*Message, error) {
	if len(data) < 1 {
		return nil, errors.WithDetailf(ErrTruncatedInput, "empty input, expected leading type byte")
	}
	if data[0] != MessageTypeSync {
		return nil, errors.WithDetailf(ErrWrongMessageType,
			"expected %#x, found %#x", MessageTypeSync, data[0])
	}
	rest := data[1:]

	heads, rest, err := readHashVec(rest)
	if err != nil {
		return nil, errors.Wrap(err, "decode heads")
	}
	need, rest, err := readHashVec(rest)
	if err != nil {
		return nil, errors.Wrap(err, "decode need")
	}

	haveCount, rest, err := readUvarint(rest)
	if err != nil {
		return nil, errors.Wrap(err, "decode have_count")
	}
	haves := make([]Have, 0, haveCount)
	for i := uint64(0); i < haveCount; i++ {
		var lastSync []ChangeHash
		lastSync, rest, err = readHashVec(rest)
		if err != nil {
			return nil, errors.Wrapf(err, "decode have[%d].last_sync", i)
		}
		var bloomBytes []byte
		bloomBytes, rest, err = readByteVec(rest)
		if err != nil {
			return nil, errors.Wrapf(err, "decode have[%d].bloom_bytes", i)
		}
		bloom, err := BloomFilterFromBytes(bloomBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "decode have[%d].bloom_bytes", i)
		}
		haves = append(haves, Have{LastSync: lastSync, Bloom: bloom})
	}

	changeCount, rest, err := readUvarint(rest)
	if err != nil {
		return nil, errors.Wrap(err, "decode change_count")
	}
	changes := make([]Change, 0, changeCount)
	for i := uint64(0); i < changeCount; i++ {
		var changeBytes []byte
		changeBytes, rest, err = readByteVec(rest)
		if err != nil {
			return nil, errors.Wrapf(err, "decode changes[%d]", i)
		}
		c, err := decodeChange(changeBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "decode changes[%d]", i)
		}
		changes = append(changes, c)
	}

	return &Message{Heads: heads, Need: need, Have: haves, Changes: changes}, nil
}

// encodeChange serializes a genericChange-compatible Change to its own
// internal framing: the 32-byte hash, count-prefixed deps, then the
// length-prefixed raw payload. This framing
// lives entirely inside a change_bytes vector, so it is free to evolve
// independently of the surrounding Message framing.
func encodeChange(c Change) []byte {
	deps := c.Deps()
	raw := c.RawBytes()
	hash := c.Hash()

	buf := make([]byte, 0, len(hash)+8+len(deps)*32+len(raw))
	buf = append(buf, hash[:]...)
	buf = appendHashVec(buf, deps)
	buf = appendByteVec(buf, raw)
	return buf
}

func decodeChange(data []byte) (Change, error) {
	if len(data) < 32 {
		return nil, errors.WithDetailf(ErrBadChangeHash, "change header too short: %d bytes", len(data))
	}
	var hash ChangeHash
	copy(hash[:], data[:32])
	rest := data[32:]

	deps, rest, err := readHashVec(rest)
	if err != nil {
		return nil, errors.Wrap(err, "decode change deps")
	}
	raw, rest, err := readByteVec(rest)
	if err != nil {
		return nil, errors.Wrap(err, "decode change raw_bytes")
	}
	if len(rest) != 0 {
		return nil, errors.WithDetailf(ErrTruncatedInput, "%d trailing bytes after change", len(rest))
	}

	return &genericChange{hash: hash, deps: deps, raw: raw}, nil
}

// --- low-level varint / vector helpers ---

func appendUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

func readUvarint(data []byte) (v uint64, rest []byte, err error) {
	v, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, nil, errors.WithDetailf(ErrTruncatedInput, "malformed or truncated varint")
	}
	return v, data[n:], nil
}

func appendByteVec(buf []byte, v []byte) []byte {
	buf = appendUvarint(buf, uint64(len(v)))
	return append(buf, v...)
}

func readByteVec(data []byte) (v []byte, rest []byte, err error) {
	n, rest, err := readUvarint(data)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < n {
		return nil, nil, errors.WithDetailf(ErrTruncatedInput,
			"declared length %d exceeds remaining %d bytes", n, len(rest))
	}
	v = make([]byte, n)
	copy(v, rest[:n])
	return v, rest[n:], nil
}

func appendHashVec(buf []byte, hashes []ChangeHash) []byte {
	buf = appendUvarint(buf, uint64(len(hashes)))
	for _, h := range hashes {
		buf = append(buf, h[:]...)
	}
	return buf
}

func readHashVec(data []byte) (hashes []ChangeHash, rest []byte, err error) {
	n, rest, err := readUvarint(data)
	if err != nil {
		return nil, nil, err
	}
	need := n * 32
	if uint64(len(rest)) < need {
		return nil, nil, errors.WithDetailf(ErrTruncatedInput,
			"hash vector declares %d entries, needs %d bytes, have %d", n, need, len(rest))
	}
	hashes = make([]ChangeHash, n)
	for i := uint64(0); i < n; i++ {
		copy(hashes[i][:], rest[i*32:i*32+32])
	}
	return hashes, rest[need:], nil
}
