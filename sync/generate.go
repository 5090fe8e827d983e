package sync

// GenerateSyncMessage computes the next outbound message given the engine's
// current knowledge and the session state, or nil if there is nothing to
// say right now. It never mutates State on an early return and only
// commits mutations after successfully building a message to send, so a
// caller that stops calling it mid-session leaves State untouched. The
// generator never fails.
func GenerateSyncMessage(engine Engine, state *State) *Message {
	ourHeads := engine.GetHeads()

	// state.TheirHeads is nil before the first receive; GetMissingDeps(nil)
	// is the correct "peer hasn't claimed any heads yet" query.
	ourNeed := engine.GetMissingDeps(state.TheirHeads)

	// Step 3: only summarize via bloom if every need we have is something
	// the peer already claims as a head, otherwise a bloom keyed off
	// shared_heads would reference ancestors the peer can't interpret.
	var ourHave []Have
	if subsetOf(ourNeed, state.TheirHeads) {
		ourHave = []Have{{
			LastSync: state.SharedHeads,
			Bloom:    BloomFilterFromHashes(hashesOf(engine.GetChangesSince(state.SharedHeads))),
		}}
	}

	// Step 4: reset detection. If the peer's first declared last_sync
	// references a hash we don't have, we've lost state relative to them.
	if len(state.TheirHave) > 0 && !haveAllLocally(engine, state.TheirHave[0].LastSync) {
		return &Message{
			Heads:   ourHeads,
			Need:    nil,
			Have:    []Have{DefaultHave()},
			Changes: nil,
		}
	}

	var changesToSend []Change
	if state.TheirHave != nil && state.TheirNeed != nil {
		changesToSend = selectChanges(engine, state.TheirHave, state.TheirNeed)
	}

	headsUnchanged := equalHeads(state.LastSentHeads, ourHeads)
	headsEqual := state.TheirHeads != nil && equalHeads(state.TheirHeads, ourHeads)

	// Step 8 (dedup) happens before the silence check so that "nothing new
	// to send" accounts for changes the peer has already received.
	changesToSend = dropAlreadySent(changesToSend, state.SentHashes)

	// headsEqual is trivially false until the first receive (TheirHeads is
	// nil), so a fresh session always sends its opening message even when
	// our_heads happens to equal the empty DAG's heads (scenario 1).
	if headsUnchanged && headsEqual && len(changesToSend) == 0 && len(ourNeed) == 0 {
		return nil
	}

	state.LastSentHeads = ourHeads
	for _, c := range changesToSend {
		state.SentHashes[c.Hash()] = struct{}{}
	}

	return &Message{
		Heads:   ourHeads,
		Need:    ourNeed,
		Have:    ourHave,
		Changes: changesToSend,
	}
}

// haveAllLocally reports whether every hash in lastSync is present in the
// engine's own store.
func haveAllLocally(engine Engine, lastSync []ChangeHash) bool {
	for _, h := range lastSync {
		if _, ok := engine.GetChangeByHash(h); !ok {
			return false
		}
	}
	return true
}

// dropAlreadySent removes from changes any change whose hash is already in
// sent.
func dropAlreadySent(changes []Change, sent map[ChangeHash]struct{}) []Change {
	if len(sent) == 0 {
		return changes
	}
	out := changes[:0:0]
	for _, c := range changes {
		if _, ok := sent[c.Hash()]; !ok {
			out = append(out, c)
		}
	}
	return out
}

func hashesOf(changes []Change) []ChangeHash {
	out := make([]ChangeHash, len(changes))
	for i, c := range changes {
		out[i] = c.Hash()
	}
	return out
}
