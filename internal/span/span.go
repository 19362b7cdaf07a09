// Package span implements the central data model of the redaction engine
// (spec.md §3): the Span type, the Document it was found in, and the
// overlap/priority Resolver that turns a noisy multiset of candidate spans
// into a minimal non-overlapping applied set.
//
// Span is a value type throughout the pipeline. Per spec.md §9's design
// note on cyclic/shared ownership, each pipeline stage (filter →
// coordinator → resolver → pruner → calibrator → applier) consumes one
// []Span and produces a new []Span; no stage holds a pointer into another
// stage's slice. Helper methods that "mutate" a span (With*) return a copy.
package span

import (
	"sort"

	"github.com/clinicalredact/phiredact/internal/phitype"
)

// Document is the immutable unit of processing: UTF-8 text plus an
// identifier (spec.md §3).
type Document struct {
	ID   string
	Text string
}

// Span represents a single candidate or applied redaction (spec.md §3).
type Span struct {
	Text       string
	Start      int
	End        int
	FilterType phitype.FilterType
	Confidence float64
	Priority   int    // snapshot of phitype.Priority(FilterType) at creation
	Pattern    string // regex/rule id that produced this span, if any

	DictionaryHit bool
	Window        []string // small ordered list of surrounding tokens

	// AmbiguousWith holds alternative FilterTypes this span's text also
	// matched as. Keys only; presence is all that matters.
	AmbiguousWith map[phitype.FilterType]struct{}

	Ignored     bool // set when the producing filter is policy-disabled
	Applied     bool // set once the span survives resolution + pruning
	Replacement string
}

// New creates a Span for doc[start:end], deriving Text and the default
// Priority from the phitype table. Callers that already have the matched
// substring should prefer NewFromMatch to avoid a redundant slice.
func New(doc Document, start, end int, ft phitype.FilterType, confidence float64) Span {
	text := ""
	if start >= 0 && end <= len(doc.Text) && start < end {
		text = doc.Text[start:end]
	}
	return Span{
		Text:       text,
		Start:      start,
		End:        end,
		FilterType: ft,
		Confidence: confidence,
		Priority:   phitype.Priority(ft),
	}
}

// NewFromMatch is like New but takes the already-extracted match text,
// avoiding a second substring operation on the hot regex path.
func NewFromMatch(text string, start, end int, ft phitype.FilterType, confidence float64) Span {
	return Span{
		Text:       text,
		Start:      start,
		End:        end,
		FilterType: ft,
		Confidence: confidence,
		Priority:   phitype.Priority(ft),
	}
}

// Valid reports the basic well-formedness invariant of spec.md §3:
// 0 <= start < end.
func (s Span) Valid() bool {
	return s.Start >= 0 && s.Start < s.End
}

// Len returns end - start.
func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and o share any byte offset.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether s fully covers o's range and is strictly
// larger (used by the resolver's containment special case; equal-range
// spans are not considered to "contain" each other).
func (s Span) Contains(o Span) bool {
	if s.Start > o.Start || s.End < o.End {
		return false
	}
	return s.Start != o.Start || s.End != o.End
}

// SameRange reports whether s and o cover the identical byte range.
func (s Span) SameRange(o Span) bool {
	return s.Start == o.Start && s.End == o.End
}

// WithConfidence returns a copy of s with Confidence set to c, clamped to
// [0, 1].
func (s Span) WithConfidence(c float64) Span {
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	out := s.clone()
	out.Confidence = c
	return out
}

// WithApplied returns a copy of s marked applied with the given replacement.
func (s Span) WithApplied(replacement string) Span {
	out := s.clone()
	out.Applied = true
	out.Replacement = replacement
	return out
}

// WithIgnored returns a copy of s marked ignored (policy-disabled type,
// still reported but never eligible to win resolution).
func (s Span) WithIgnored() Span {
	out := s.clone()
	out.Ignored = true
	return out
}

// AddAmbiguous returns a copy of s with ft recorded as an alternative
// interpretation.
func (s Span) AddAmbiguous(ft phitype.FilterType) Span {
	out := s.clone()
	if out.AmbiguousWith == nil {
		out.AmbiguousWith = make(map[phitype.FilterType]struct{}, 1)
	} else {
		m := make(map[phitype.FilterType]struct{}, len(out.AmbiguousWith)+1)
		for k := range out.AmbiguousWith {
			m[k] = struct{}{}
		}
		out.AmbiguousWith = m
	}
	out.AmbiguousWith[ft] = struct{}{}
	return out
}

// clone returns a copy of s with its reference-typed fields (Window,
// AmbiguousWith) deep-copied so no two Span values ever alias mutable
// state — the value-owning pipeline invariant of spec.md §9.
func (s Span) clone() Span {
	out := s
	if s.Window != nil {
		out.Window = append([]string(nil), s.Window...)
	}
	if s.AmbiguousWith != nil {
		m := make(map[phitype.FilterType]struct{}, len(s.AmbiguousWith))
		for k := range s.AmbiguousWith {
			m[k] = struct{}{}
		}
		out.AmbiguousWith = m
	}
	return out
}

// SortByStart sorts spans in place by ascending Start (spec.md §5 "the
// applied span list is sorted by start in the final output").
func SortByStart(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].FilterType < spans[j].FilterType
	})
}

// NonOverlapping reports whether the given spans, assumed sorted by Start,
// are pairwise non-overlapping (spec.md §8 Testable Property 2).
func NonOverlapping(spans []Span) bool {
	for i := 1; i < len(spans); i++ {
		if spans[i-1].End > spans[i].Start {
			return false
		}
	}
	return true
}
