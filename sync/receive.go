package sync

import (
	"github.com/teranos/syncproto/errors"
)

// ReceiveSyncMessage integrates an inbound message into the engine and
// updates the session's inferred shared knowledge. It surfaces only the
// error returned by the engine's ApplyChanges; State is left untouched if ApplyChanges fails, so
// the caller may retry.
func ReceiveSyncMessage(engine Engine, state *State, msg Message) error {
	beforeHeads := engine.GetHeads()

	if len(msg.Changes) > 0 {
		if err := engine.ApplyChanges(msg.Changes); err != nil {
			return errors.Wrap(err, "apply changes")
		}
		afterHeads := engine.GetHeads()
		state.SharedHeads = advanceHeads(beforeHeads, afterHeads, state.SharedHeads)
	}

	engine.FilterChanges(msg.Heads, state.SentHashes)

	if len(msg.Changes) == 0 && equalHeads(msg.Heads, beforeHeads) {
		state.LastSentHeads = msg.Heads
	}

	knownHeads := filterKnownLocally(engine, msg.Heads)
	if equalHeads(knownHeads, msg.Heads) {
		state.SharedHeads = msg.Heads

		if len(msg.Heads) == 0 {
			// Peer has been wiped: force a full resync next round.
			state.LastSentHeads = nil
			state.SentHashes = make(map[ChangeHash]struct{})
		}
	} else {
		state.SharedHeads = sortedUnion(state.SharedHeads, knownHeads)
	}

	state.TheirHave = msg.Have
	state.TheirHeads = msg.Heads
	state.TheirNeed = msg.Need

	return nil
}

// advanceHeads computes the new shared_heads after applying changes that
// moved our own heads from old to new: the union of heads we just learned
// locally (new \ old) with previously-shared heads still current
// (oldShared ∩ new). Monotone because it only introduces hashes present in
// new.
func advanceHeads(old, newHeads, oldShared []ChangeHash) []ChangeHash {
	learned := sortedSubtract(newHeads, old)
	stillCurrent := intersect(oldShared, newHeads)
	return sortedUnion(learned, stillCurrent)
}

func intersect(a, b []ChangeHash) []ChangeHash {
	out := make([]ChangeHash, 0, len(a))
	for _, h := range a {
		if sortedContains(b, h) {
			out = append(out, h)
		}
	}
	return out
}

func filterKnownLocally(engine Engine, heads []ChangeHash) []ChangeHash {
	out := make([]ChangeHash, 0, len(heads))
	for _, h := range heads {
		if _, ok := engine.GetChangeByHash(h); ok {
			out = append(out, h)
		}
	}
	return out
}
