// Package testengine is a minimal in-memory implementation of sync.Engine,
// used by package sync's own tests and the demo CLI. It is not a real CRDT
// document store: it is the smallest change-DAG store that satisfies
// sync.Engine, a mutex-guarded, map-backed tree of changes with
// head/ancestor tracking.
package testengine

import (
	"crypto/sha256"
	"sort"
	gosync "sync"

	"github.com/teranos/syncproto/errors"
	"github.com/teranos/syncproto/sync"
)

// ErrUnknownDeps is returned by ApplyChanges when a change's dependencies
// are not locally resolvable (not present in the engine and not present
// earlier in the same batch).
var ErrUnknownDeps = errors.New("change has unresolved dependencies")

// Change is the concrete sync.Change implementation this engine stores.
type Change struct {
	hash sync.ChangeHash
	deps []sync.ChangeHash
	raw  []byte
}

// NewChange builds a content-addressed Change from a raw payload and its
// dependencies. The hash covers both deps and payload, domain-separated, so
// two changes with identical payloads but different deps never collide.
func NewChange(raw []byte, deps ...sync.ChangeHash) *Change {
	sorted := make([]sync.ChangeHash, len(deps))
	copy(sorted, deps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	h := sha256.New()
	h.Write([]byte("deps:"))
	for _, d := range sorted {
		h.Write(d[:])
	}
	h.Write([]byte("raw:"))
	h.Write(raw)

	var hash sync.ChangeHash
	h.Sum(hash[:0])

	return &Change{hash: hash, deps: sorted, raw: raw}
}

func (c *Change) Hash() sync.ChangeHash   { return c.hash }
func (c *Change) Deps() []sync.ChangeHash { return c.deps }
func (c *Change) RawBytes() []byte        { return c.raw }

// Engine is an in-memory DAG of Changes, safe for concurrent use.
type Engine struct {
	mu          gosync.RWMutex
	changes     map[sync.ChangeHash]*Change
	dependents  map[sync.ChangeHash]map[sync.ChangeHash]struct{}
	order       []sync.ChangeHash // insertion order, ancestors-before-descendants by construction
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{
		changes:    make(map[sync.ChangeHash]*Change),
		dependents: make(map[sync.ChangeHash]map[sync.ChangeHash]struct{}),
	}
}

// Add inserts a change directly into the store, bypassing ApplyChanges'
// batch semantics. Used by tests to build up a local DAG. Deps must already
// be present.
func (e *Engine) Add(c *Change) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addLocked(c)
}

func (e *Engine) addLocked(c *Change) error {
	if _, ok := e.changes[c.hash]; ok {
		return nil // idempotent
	}
	for _, dep := range c.deps {
		if _, ok := e.changes[dep]; !ok {
			return errors.WithDetailf(ErrUnknownDeps, "change %s depends on unknown %s", c.hash, dep)
		}
	}
	e.changes[c.hash] = c
	e.order = append(e.order, c.hash)
	for _, dep := range c.deps {
		if e.dependents[dep] == nil {
			e.dependents[dep] = make(map[sync.ChangeHash]struct{})
		}
		e.dependents[dep][c.hash] = struct{}{}
	}
	return nil
}

// GetHeads returns every change with no local dependent, sorted ascending.
func (e *Engine) GetHeads() []sync.ChangeHash {
	e.mu.RLock()
	defer e.mu.RUnlock()

	heads := make([]sync.ChangeHash, 0, len(e.changes))
	for h := range e.changes {
		if len(e.dependents[h]) == 0 {
			heads = append(heads, h)
		}
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i].Less(heads[j]) })
	return heads
}

// GetMissingDeps returns the subset of heads not present locally, sorted
// ascending.
func (e *Engine) GetMissingDeps(heads []sync.ChangeHash) []sync.ChangeHash {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]sync.ChangeHash, 0)
	for _, h := range heads {
		if _, ok := e.changes[h]; !ok {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// GetChangeByHash returns the change with the given hash, if present.
func (e *Engine) GetChangeByHash(h sync.ChangeHash) (sync.Change, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.changes[h]
	return c, ok
}

// GetChangesSince returns every local change not an ancestor of (or equal
// to) any hash in since, in the engine's insertion order (ancestors before
// descendants, since Add/ApplyChanges both require deps to already be
// present).
func (e *Engine) GetChangesSince(since []sync.ChangeHash) []sync.Change {
	e.mu.RLock()
	defer e.mu.RUnlock()

	implied := e.ancestorClosureLocked(since)

	out := make([]sync.Change, 0, len(e.order))
	for _, h := range e.order {
		if _, ok := implied[h]; !ok {
			out = append(out, e.changes[h])
		}
	}
	return out
}

// ApplyChanges adds a batch of changes, respecting intra-batch ordering (a
// change may depend on an earlier change in the same batch). Application is
// idempotent: a change whose hash is already known is skipped.
func (e *Engine) ApplyChanges(changes []sync.Change) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range changes {
		local, ok := c.(*Change)
		if !ok {
			local = &Change{hash: c.Hash(), deps: c.Deps(), raw: c.RawBytes()}
		}
		if err := e.addLocked(local); err != nil {
			return err
		}
	}
	return nil
}

// FilterChanges removes from hashes any key that is an ancestor of, or
// equal to, any of peerHeads (ancestor-closure semantics).
func (e *Engine) FilterChanges(peerHeads []sync.ChangeHash, hashes map[sync.ChangeHash]struct{}) {
	e.mu.RLock()
	implied := e.ancestorClosureLocked(peerHeads)
	e.mu.RUnlock()

	for h := range hashes {
		if _, ok := implied[h]; ok {
			delete(hashes, h)
		}
	}
}

// ancestorClosureLocked returns the set of hashes that are members of
// roots, or ancestors of any member of roots, restricted to changes present
// locally. Caller must hold e.mu (read or write).
func (e *Engine) ancestorClosureLocked(roots []sync.ChangeHash) map[sync.ChangeHash]struct{} {
	closure := make(map[sync.ChangeHash]struct{}, len(roots))
	stack := make([]sync.ChangeHash, 0, len(roots))
	for _, r := range roots {
		if _, ok := closure[r]; !ok {
			closure[r] = struct{}{}
			stack = append(stack, r)
		}
	}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c, ok := e.changes[h]
		if !ok {
			continue
		}
		for _, dep := range c.deps {
			if _, ok := closure[dep]; !ok {
				closure[dep] = struct{}{}
				stack = append(stack, dep)
			}
		}
	}
	return closure
}
