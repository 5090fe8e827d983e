package sync

// selectChanges picks which changes to send to a peer given their Have
// summaries and explicit Need list, closed over dependencies so that a
// change is never sent without the changes it depends on.
func selectChanges(engine Engine, have []Have, need []ChangeHash) []Change {
	if len(have) == 0 {
		return selectFromNeedOnly(engine, need)
	}

	lastSync := unionLastSync(have)
	candidates := engine.GetChangesSince(lastSync)

	depsByHash := make(map[ChangeHash][]ChangeHash, len(candidates))
	for _, c := range candidates {
		depsByHash[c.Hash()] = c.Deps()
	}

	toSend := make(map[ChangeHash]struct{})
	for _, c := range candidates {
		if absentFromEveryBloom(c.Hash(), have) {
			toSend[c.Hash()] = struct{}{}
		}
	}

	closeOverDeps(toSend, depsByHash)

	byHash := make(map[ChangeHash]Change, len(candidates))
	for _, c := range candidates {
		byHash[c.Hash()] = c
	}

	var needExtras []Change
	for _, h := range need {
		if _, ok := byHash[h]; ok {
			toSend[h] = struct{}{}
			continue
		}
		if c, ok := engine.GetChangeByHash(h); ok {
			needExtras = append(needExtras, c)
		}
	}

	out := make([]Change, 0, len(toSend)+len(needExtras))
	for _, c := range candidates {
		if _, ok := toSend[c.Hash()]; ok {
			out = append(out, c)
		}
	}
	out = append(out, needExtras...)
	return out
}

// selectFromNeedOnly handles the case where have is empty: we just return
// every locally-resolvable change named in need.
func selectFromNeedOnly(engine Engine, need []ChangeHash) []Change {
	out := make([]Change, 0, len(need))
	for _, h := range need {
		if c, ok := engine.GetChangeByHash(h); ok {
			out = append(out, c)
		}
	}
	return out
}

func unionLastSync(have []Have) []ChangeHash {
	var acc []ChangeHash
	for _, h := range have {
		acc = sortedUnion(acc, h.LastSync)
	}
	return acc
}

// absentFromEveryBloom reports whether hash is reported absent by every
// Have's bloom filter, the condition for treating it as a genuine
// candidate to send.
func absentFromEveryBloom(hash ChangeHash, have []Have) bool {
	for _, h := range have {
		if h.Bloom.Contains(hash) {
			return false
		}
	}
	return true
}

// closeOverDeps performs the false-positive correction: DFS from the
// initial toSend set, walking each selected change's own
// deps (restricted to the candidate set; anything outside it is already
// implied present at the peer via last_sync). If a change X is a true
// positive at the peer's bloom but a descendant Y is being sent and isn't
// already present there, X must be sent too so Y is applicable.
func closeOverDeps(toSend map[ChangeHash]struct{}, depsByHash map[ChangeHash][]ChangeHash) {
	stack := make([]ChangeHash, 0, len(toSend))
	for h := range toSend {
		stack = append(stack, h)
	}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range depsByHash[h] {
			if _, ok := toSend[dep]; !ok {
				toSend[dep] = struct{}{}
				stack = append(stack, dep)
			}
		}
	}
}
