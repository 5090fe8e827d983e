package sync

import (
	"encoding/binary"
	"math"

	"github.com/teranos/syncproto/errors"
)

// defaultFalsePositiveRate is the target false-positive rate used whenever a
// BloomFilter is built from a content set without an explicit rate.
const defaultFalsePositiveRate = 0.01

// BloomFilter is a fixed-false-positive-rate probabilistic set of 32-byte
// change hashes with a deterministic wire form. The bit-count m and
// hash-count k are derived from (n, p) by the standard formulas; the
// per-hash bit indices are computed by a specific triple-hash scheme
// (hashIndices) that must be reproduced bit-exactly by every implementation
// sharing the wire format, which rules out reusing a third-party bloom
// filter library (it would compute different bit indices for the same
// hash, breaking interoperability with anything reading the wire form).
type BloomFilter struct {
	n    uint64 // number of items inserted
	k    uint64 // number of hash functions
	m    uint64 // number of bits
	bits []byte // ceil(m/8) bytes
}

// NewBloomFilter creates an empty filter sized for n expected insertions at
// false-positive rate fp. n == 0 is valid and yields a zero-bit filter whose
// Contains always reports false.
func NewBloomFilter(n int, fp float64) *BloomFilter {
	m, k := bloomParams(n, fp)
	return &BloomFilter{
		n:    0,
		k:    k,
		m:    m,
		bits: make([]byte, (m+7)/8),
	}
}

// BloomFilterFromHashes builds a filter containing exactly the given hashes,
// sized at the default 1% false-positive rate.
func BloomFilterFromHashes(hashes []ChangeHash) *BloomFilter {
	f := NewBloomFilter(len(hashes), defaultFalsePositiveRate)
	for _, h := range hashes {
		f.Add(h)
	}
	return f
}

// bloomParams derives (m, k) from (n, p) using the standard formulas:
//
//	m = -n*ln(p) / (ln 2)^2
//	k = (m/n)*ln 2
//
// n == 0 short-circuits to an empty filter (m = 0, k = 0) since the formulas
// are undefined at n = 0.
func bloomParams(n int, p float64) (m, k uint64) {
	if n <= 0 {
		return 0, 0
	}
	nf := float64(n)
	mf := -nf * math.Log(p) / (math.Ln2 * math.Ln2)
	m = uint64(math.Ceil(mf))
	if m == 0 {
		m = 1
	}
	kf := (float64(m) / nf) * math.Ln2
	k = uint64(math.Round(kf))
	if k == 0 {
		k = 1
	}
	return m, k
}

// hashIndices computes the k bit indices for a change hash, reading the
// first 12 bytes of the hash as three little-endian uint32 values and
// computing index_i = (h0 + i*h1 + i^2*h2) mod m for i in [0, k). This is
// part of the wire contract and must not be changed.
func hashIndices(hash ChangeHash, k, m uint64) []uint64 {
	if m == 0 {
		return nil
	}
	h0 := uint64(binary.LittleEndian.Uint32(hash[0:4]))
	h1 := uint64(binary.LittleEndian.Uint32(hash[4:8]))
	h2 := uint64(binary.LittleEndian.Uint32(hash[8:12]))

	indices := make([]uint64, k)
	for i := uint64(0); i < k; i++ {
		indices[i] = (h0 + i*h1 + i*i*h2) % m
	}
	return indices
}

// Add inserts a hash into the filter.
func (f *BloomFilter) Add(hash ChangeHash) {
	if f.m == 0 {
		return
	}
	for _, idx := range hashIndices(hash, f.k, f.m) {
		f.bits[idx/8] |= 1 << (idx % 8)
	}
	f.n++
}

// Contains reports whether hash is possibly in the filter. False positives
// are permitted; false negatives are forbidden: for every hash inserted via
// Add, Contains always returns true.
func (f *BloomFilter) Contains(hash ChangeHash) bool {
	if f.m == 0 {
		return false
	}
	for _, idx := range hashIndices(hash, f.k, f.m) {
		if f.bits[idx/8]&(1<<(idx%8)) == 0 {
			return false
		}
	}
	return true
}

// ToBytes encodes the filter to its wire form: LEB128 n, LEB128 k, LEB128 m,
// then ceil(m/8) raw bytes.
func (f *BloomFilter) ToBytes() []byte {
	buf := make([]byte, 0, 3*binary.MaxVarintLen64+len(f.bits))
	buf = appendUvarint(buf, f.n)
	buf = appendUvarint(buf, f.k)
	buf = appendUvarint(buf, f.m)
	buf = append(buf, f.bits...)
	return buf
}

// BloomFilterFromBytes decodes a filter from its wire form. n == 0 decodes
// successfully into a filter that reports Contains == false for everything.
func BloomFilterFromBytes(data []byte) (*BloomFilter, error) {
	n, rest, err := readUvarint(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode bloom n")
	}
	k, rest, err := readUvarint(rest)
	if err != nil {
		return nil, errors.Wrap(err, "decode bloom k")
	}
	m, rest, err := readUvarint(rest)
	if err != nil {
		return nil, errors.Wrap(err, "decode bloom m")
	}

	want := int((m + 7) / 8)
	if len(rest) < want {
		return nil, errors.WithDetailf(ErrMalformedBloom,
			"declared m=%d needs %d bytes, have %d", m, want, len(rest))
	}

	bits := make([]byte, want)
	copy(bits, rest[:want])

	return &BloomFilter{n: n, k: k, m: m, bits: bits}, nil
}
