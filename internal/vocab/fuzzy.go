package vocab

import (
	"github.com/agnivade/levenshtein"
)

// jaroWinklerConfirmThreshold is the similarity floor spec.md §4.2 fixes
// for accepting a fuzzy name match.
const jaroWinklerConfirmThreshold = 0.88

// deletionIndex is a symmetric-delete fuzzy index (the "deletion
// neighborhood" of spec.md §3/§9): every term has all of its up-to-maxDist
// single-character deletions computed once at build time and stored in a
// variant -> originals map. A query word's own deletions are generated at
// lookup time and checked against the same map, so two terms within
// maxDist of each other always share at least one generated variant —
// this turns "search all dictionary terms for near matches" into a
// handful of O(1) map lookups instead of an O(n) scan with a distance
// function per entry.
type deletionIndex struct {
	maxDist  int
	variants map[string][]string
}

func newDeletionIndex(terms []string, maxDist int) *deletionIndex {
	idx := &deletionIndex{maxDist: maxDist, variants: make(map[string][]string)}
	for _, term := range terms {
		for v := range deletions(term, maxDist) {
			idx.variants[v] = append(idx.variants[v], term)
		}
	}
	return idx
}

// match returns the best dictionary term within maxDist of word whose
// Jaro-Winkler similarity also clears jaroWinklerConfirmThreshold.
func (idx *deletionIndex) match(word string) (string, bool) {
	candidates := make(map[string]struct{})
	for v := range deletions(word, idx.maxDist) {
		for _, term := range idx.variants[v] {
			candidates[term] = struct{}{}
		}
	}
	// The word itself may already be a dictionary term missed by the
	// deletion expansion when maxDist is 0 for one side; always check it.
	if terms, ok := idx.variants[word]; ok {
		for _, term := range terms {
			candidates[term] = struct{}{}
		}
	}

	bestTerm := ""
	bestDist := idx.maxDist + 1
	bestSim := 0.0
	for term := range candidates {
		dist := levenshtein.ComputeDistance(word, term)
		if dist > idx.maxDist {
			continue
		}
		sim := jaroWinkler(word, term)
		if sim < jaroWinklerConfirmThreshold {
			continue
		}
		if dist < bestDist || (dist == bestDist && sim > bestSim) {
			bestTerm, bestDist, bestSim = term, dist, sim
		}
	}
	if bestTerm == "" {
		return "", false
	}
	return bestTerm, true
}

// deletions returns the set of strings reachable from s by deleting
// between 0 and maxDist characters (0 deletions means s itself).
func deletions(s string, maxDist int) map[string]struct{} {
	out := map[string]struct{}{s: {}}
	frontier := []string{s}
	for d := 0; d < maxDist; d++ {
		next := make([]string, 0)
		for _, w := range frontier {
			for i := range w {
				variant := w[:i] + w[i+1:]
				if _, ok := out[variant]; !ok {
					out[variant] = struct{}{}
					next = append(next, variant)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return out
}

// jaroWinkler computes the Jaro-Winkler similarity of a and b, scaled to
// [0, 1]. No pack example vendors a Jaro-Winkler implementation (the
// nearest hit, agnivade/levenshtein, only computes edit distance), so
// this is a direct, standard-library-only implementation of the
// published algorithm — documented here per the standard-library
// justification requirement rather than left unexplained.
func jaroWinkler(a, b string) float64 {
	j := jaro(a, b)
	if j == 0 {
		return 0
	}
	prefix := 0
	maxPrefix := 4
	for i := 0; i < len(a) && i < len(b) && i < maxPrefix; i++ {
		if a[i] != b[i] {
			break
		}
		prefix++
	}
	const scalingFactor = 0.1
	return j + float64(prefix)*scalingFactor*(1-j)
}

func jaro(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len(a), len(b)
	if la == 0 || lb == 0 {
		return 0
	}
	matchDist := la
	if lb > matchDist {
		matchDist = lb
	}
	matchDist = matchDist/2 - 1
	if matchDist < 0 {
		matchDist = 0
	}

	aMatches := make([]bool, la)
	bMatches := make([]bool, lb)
	matches := 0
	for i := 0; i < la; i++ {
		lo := i - matchDist
		if lo < 0 {
			lo = 0
		}
		hi := i + matchDist + 1
		if hi > lb {
			hi = lb
		}
		for j := lo; j < hi; j++ {
			if bMatches[j] || a[i] != b[j] {
				continue
			}
			aMatches[i] = true
			bMatches[j] = true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions := 0
	k := 0
	for i := 0; i < la; i++ {
		if !aMatches[i] {
			continue
		}
		for !bMatches[k] {
			k++
		}
		if a[i] != b[k] {
			transpositions++
		}
		k++
	}
	m := float64(matches)
	return (m/float64(la) + m/float64(lb) + (m-float64(transpositions)/2)/m) / 3
}
