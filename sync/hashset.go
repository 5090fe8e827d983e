package sync

import "sort"

// sortedUnion returns the sorted, deduplicated union of a and b. Neither
// input is mutated.
func sortedUnion(a, b []ChangeHash) []ChangeHash {
	seen := make(map[ChangeHash]struct{}, len(a)+len(b))
	out := make([]ChangeHash, 0, len(a)+len(b))
	for _, h := range a {
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	for _, h := range b {
		if _, ok := seen[h]; !ok {
			seen[h] = struct{}{}
			out = append(out, h)
		}
	}
	sortHashes(out)
	return out
}

// sortedSubtract returns a \ b, sorted ascending. Neither input is mutated.
func sortedSubtract(a, b []ChangeHash) []ChangeHash {
	exclude := make(map[ChangeHash]struct{}, len(b))
	for _, h := range b {
		exclude[h] = struct{}{}
	}
	out := make([]ChangeHash, 0, len(a))
	for _, h := range a {
		if _, ok := exclude[h]; !ok {
			out = append(out, h)
		}
	}
	sortHashes(out)
	return out
}

// sortedContains reports whether the sorted slice s contains h.
func sortedContains(s []ChangeHash, h ChangeHash) bool {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Less(h) })
	return i < len(s) && s[i] == h
}

// sortedDedup returns hashes sorted ascending with duplicates removed.
// The input is not mutated.
func sortedDedup(hashes []ChangeHash) []ChangeHash {
	out := make([]ChangeHash, len(hashes))
	copy(out, hashes)
	sortHashes(out)
	if len(out) < 2 {
		return out
	}
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}

func sortHashes(hashes []ChangeHash) {
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].Less(hashes[j]) })
}

// equalHeads reports whether two sorted head vectors are identical.
func equalHeads(a, b []ChangeHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// subsetOf reports whether every hash in a appears in b (b need not be
// sorted relative to a's order, but both are assumed internally sorted).
func subsetOf(a, b []ChangeHash) bool {
	for _, h := range a {
		if !sortedContains(b, h) {
			return false
		}
	}
	return true
}
