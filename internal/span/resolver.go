package span

import (
	"sort"

	"github.com/clinicalredact/phiredact/internal/phitype"
)

// DropReason tags why a candidate span did not survive resolution
// (spec.md §6 report "dropped spans" provenance).
type DropReason string

const (
	DropInvalidRange DropReason = "invalid_range"
	DropDuplicate    DropReason = "exact_duplicate_lower_confidence"
	DropOverlapLoses DropReason = "overlap_lost_to_higher_ranked_span"
)

// Dropped records a candidate that was excluded, and why.
type Dropped struct {
	Span   Span
	Reason DropReason
	// BeatenBy is the FilterType of the span that won the conflict, set
	// only for DropOverlapLoses.
	BeatenBy phitype.FilterType
}

// Result is the output of resolving one document's candidate spans.
type Result struct {
	Applied  []Span // sorted by Start, pairwise non-overlapping
	Dropped  []Dropped
	Warnings []string
}

// rankLess implements spec.md §4.1 rules 1-3 and 5: priority desc,
// specificity desc, confidence desc, start asc, filtertype asc. It
// deliberately excludes the containment-aware length rule (4), which is
// only meaningful pairwise between two overlapping spans and is applied
// separately by beats. rankLess gives both resolver implementations the
// same candidate processing order.
func rankLess(a, b Span) bool {
	pa, pb := phitype.Priority(a.FilterType), phitype.Priority(b.FilterType)
	if pa != pb {
		return pa > pb
	}
	sa, sb := phitype.Specificity(a.FilterType), phitype.Specificity(b.FilterType)
	if sa != sb {
		return sa > sb
	}
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	return a.FilterType < b.FilterType
}

// rankHigherPair reports whether (priority, specificity) of a strictly
// outranks that of b — used only by the containment special case.
func rankHigherPair(a, b Span) bool {
	pa, pb := phitype.Priority(a.FilterType), phitype.Priority(b.FilterType)
	if pa != pb {
		return pa > pb
	}
	return phitype.Specificity(a.FilterType) > phitype.Specificity(b.FilterType)
}

// beats implements spec.md §4.1's full pairwise tie-break between two
// overlapping spans a and b, returning true if a is kept over b.
//
//  1. If neither contains the other (partial overlap or identical range),
//     compare the plain score tuple: priority, specificity, confidence,
//     length, then the start/filtertype determinism tie-break.
//  2. If one strictly contains the other, the longer container normally
//     wins — unless the shorter, contained span has a strictly higher
//     (priority, specificity) pair, in which case the shorter span wins.
func beats(a, b Span) bool {
	switch {
	case a.Contains(b):
		if rankHigherPair(b, a) {
			return false
		}
		return true
	case b.Contains(a):
		if rankHigherPair(a, b) {
			return true
		}
		return false
	default:
		pa, pb := phitype.Priority(a.FilterType), phitype.Priority(b.FilterType)
		if pa != pb {
			return pa > pb
		}
		sa, sb := phitype.Specificity(a.FilterType), phitype.Specificity(b.FilterType)
		if sa != sb {
			return sa > sb
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.FilterType < b.FilterType
	}
}

// prepare drops structurally invalid spans and collapses exact duplicates
// (same start, end, filtertype) to the highest-confidence copy. Both
// resolver implementations share this step so they diverge only in how
// they search for overlaps among the remaining candidates.
func prepare(candidates []Span) (kept []Span, dropped []Dropped, warnings []string) {
	type key struct {
		start, end int
		ft         phitype.FilterType
	}
	best := make(map[key]int, len(candidates))
	kept = make([]Span, 0, len(candidates))

	for _, c := range candidates {
		if !c.Valid() {
			dropped = append(dropped, Dropped{Span: c, Reason: DropInvalidRange})
			warnings = append(warnings, "dropped span with invalid range")
			continue
		}
		k := key{c.Start, c.End, c.FilterType}
		if idx, ok := best[k]; ok {
			if c.Confidence > kept[idx].Confidence {
				dropped = append(dropped, Dropped{Span: kept[idx], Reason: DropDuplicate, BeatenBy: c.FilterType})
				kept[idx] = c
			} else {
				dropped = append(dropped, Dropped{Span: c, Reason: DropDuplicate, BeatenBy: kept[idx].FilterType})
			}
			continue
		}
		best[k] = len(kept)
		kept = append(kept, c)
	}
	return kept, dropped, warnings
}

// ResolveNaive is the O(n²) cross-validation implementation of spec.md
// §8 Testable Property 7: every candidate is compared against every
// currently accepted span with a linear scan, no sorted/indexed
// structure.
func ResolveNaive(candidates []Span) Result {
	kept, dropped, warnings := prepare(candidates)

	order := append([]Span(nil), kept...)
	sort.SliceStable(order, func(i, j int) bool { return rankLess(order[i], order[j]) })

	var accepted []Span
	for _, cand := range order {
		lost := false
		beatenBy := phitype.FilterType("")
		for _, acc := range accepted {
			if cand.Overlaps(acc) && !beats(cand, acc) {
				lost = true
				beatenBy = acc.FilterType
				break
			}
		}
		if lost {
			dropped = append(dropped, Dropped{Span: cand, Reason: DropOverlapLoses, BeatenBy: beatenBy})
			continue
		}
		next := accepted[:0:0]
		for _, acc := range accepted {
			if cand.Overlaps(acc) {
				dropped = append(dropped, Dropped{Span: acc, Reason: DropOverlapLoses, BeatenBy: cand.FilterType})
				continue
			}
			next = append(next, acc)
		}
		accepted = append(next, cand)
	}

	SortByStart(accepted)
	return Result{Applied: accepted, Dropped: dropped, Warnings: warnings}
}

// ResolveSweep is the O((n+k) log n) production implementation: accepted
// spans are kept sorted by Start so each candidate only needs to examine
// the contiguous window of accepted spans it can possibly overlap,
// located by binary search, instead of the full accepted list.
func ResolveSweep(candidates []Span) Result {
	kept, dropped, warnings := prepare(candidates)

	order := append([]Span(nil), kept...)
	sort.SliceStable(order, func(i, j int) bool { return rankLess(order[i], order[j]) })

	accepted := make([]Span, 0, len(order))
	for _, cand := range order {
		lo, hi := overlapWindow(accepted, cand)
		if lo > hi {
			accepted = insertSorted(accepted, cand)
			continue
		}

		lost := false
		beatenBy := phitype.FilterType("")
		for i := lo; i <= hi; i++ {
			if !beats(cand, accepted[i]) {
				lost = true
				beatenBy = accepted[i].FilterType
				break
			}
		}
		if lost {
			dropped = append(dropped, Dropped{Span: cand, Reason: DropOverlapLoses, BeatenBy: beatenBy})
			continue
		}

		for i := lo; i <= hi; i++ {
			dropped = append(dropped, Dropped{Span: accepted[i], Reason: DropOverlapLoses, BeatenBy: cand.FilterType})
		}
		remaining := make([]Span, 0, len(accepted)-(hi-lo+1)+1)
		remaining = append(remaining, accepted[:lo]...)
		remaining = append(remaining, accepted[hi+1:]...)
		accepted = insertSorted(remaining, cand)
	}

	SortByStart(accepted)
	return Result{Applied: accepted, Dropped: dropped, Warnings: warnings}
}

// Resolve is the single entry point callers should use: it runs the
// production sweep-line resolver. ResolveNaive remains exported
// separately so tests can assert the two agree on arbitrary inputs
// (resolver equivalence), without the production path paying the O(n²)
// cost on every call.
func Resolve(candidates []Span) Result {
	return ResolveSweep(candidates)
}

// overlapWindow returns the inclusive index range [lo, hi] of entries in
// accepted (sorted by Start) that overlap cand. Returns lo > hi if none do.
func overlapWindow(accepted []Span, cand Span) (lo, hi int) {
	lo = sort.Search(len(accepted), func(i int) bool { return accepted[i].End > cand.Start })
	if lo == len(accepted) || accepted[lo].Start >= cand.End {
		return 1, 0
	}
	hi = lo
	for hi+1 < len(accepted) && accepted[hi+1].Start < cand.End {
		hi++
	}
	return lo, hi
}

// insertSorted inserts s into accepted (sorted by Start) maintaining order.
func insertSorted(accepted []Span, s Span) []Span {
	i := sort.Search(len(accepted), func(i int) bool { return accepted[i].Start >= s.Start })
	accepted = append(accepted, Span{})
	copy(accepted[i+1:], accepted[i:])
	accepted[i] = s
	return accepted
}
