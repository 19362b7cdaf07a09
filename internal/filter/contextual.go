package filter

import (
	"context"
	"regexp"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// contextualFilters returns the context-aware filter family of spec.md
// §4.2: candidates that only fire inside a STRONG/MODERATE clinical
// context window, because on their own they are too ambiguous (a bare
// capitalized word, a relative date, a street-shaped phrase).
func contextualFilters() []Filter {
	return []Filter{
		contextAwareNameFilter{},
		relativeDateFilter{},
		contextAwareAddressFilter{},
	}
}

// requiresContext is shared by every filter in this family: a candidate
// at [start, end) is only emitted if its surrounding ±150-byte window
// (spec.md §4.2) carries at least MODERATE clinical-context strength.
func requiresContext(cc *clinicalcontext.Context, start, end int) bool {
	if cc == nil {
		return false
	}
	const radius = 150
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	return cc.StrongestIn(lo, hi) >= clinicalcontext.Moderate
}

// --- ContextAwareName: a bare capitalized word pair, gated on context --

var capitalizedPairPattern = regexp.MustCompile(`\b\p{Lu}\p{Ll}+(?: \p{Lu}\p{Ll}+)?\b`)

type contextAwareNameFilter struct{}

func (contextAwareNameFilter) Name() string             { return "context_aware_name" }
func (contextAwareNameFilter) Type() phitype.FilterType { return phitype.Name }
func (contextAwareNameFilter) Priority() int            { return phitype.Priority(phitype.Name) }
func (contextAwareNameFilter) ParallelSafe() bool       { return true }

func (contextAwareNameFilter) Detect(_ context.Context, doc span.Document, vocabs *vocab.Set, cc *clinicalcontext.Context) ([]span.Span, error) {
	if cc == nil {
		return nil, nil
	}
	var out []span.Span
	for _, m := range capitalizedPairPattern.FindAllStringIndex(doc.Text, -1) {
		start, end := m[0], m[1]
		if !requiresContext(cc, start, end) {
			continue
		}
		word := doc.Text[start:end]
		if isStructuralTerm(vocabs, word) {
			continue
		}
		s := span.NewFromMatch(word, start, end, phitype.Name, 0.45)
		s.Pattern = "context_aware_name"
		s.Window = wordWindow(doc.Text, start, end, contextWindowTokens)
		out = append(out, s)
	}
	return out, nil
}

// isStructuralTerm reports whether word is a known structure word,
// section heading, or field label rather than a plausible name, guarding
// against a nil Set or nil individual dictionaries.
func isStructuralTerm(vocabs *vocab.Set, word string) bool {
	if vocabs == nil {
		return false
	}
	for _, d := range []*vocab.Dictionary{vocabs.StructureWords, vocabs.SectionHeadings, vocabs.FieldLabels} {
		if d != nil && d.Contains(word) {
			return true
		}
	}
	return false
}

// --- RelativeDate: "three days after admission", "two weeks post-op" ---

var relativeDatePattern = regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|seven|eight|nine|ten|\d{1,2}) (day|days|week|weeks|month|months|year|years) (before|after|prior to|post[- ]?op|following) \w+\b`)

type relativeDateFilter struct{}

func (relativeDateFilter) Name() string             { return "relative_date" }
func (relativeDateFilter) Type() phitype.FilterType { return phitype.Date }
func (relativeDateFilter) Priority() int            { return phitype.Priority(phitype.Date) }
func (relativeDateFilter) ParallelSafe() bool       { return true }

func (relativeDateFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, cc *clinicalcontext.Context) ([]span.Span, error) {
	if cc == nil {
		return nil, nil
	}
	var out []span.Span
	for _, m := range relativeDatePattern.FindAllStringIndex(doc.Text, -1) {
		if !requiresContext(cc, m[0], m[1]) {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.Date, 0.55, "relative_date")
	}
	return out, nil
}

// --- ContextAwareAddress: "<number> <Capitalized word(s)> <street term>" -

var streetLikePattern = regexp.MustCompile(`\b\d{1,5} (?:\p{Lu}[\p{Ll}']*\s?){1,4}(?:Street|St|Avenue|Ave|Boulevard|Blvd|Road|Rd|Lane|Ln|Drive|Dr|Court|Ct|Way|Place|Pl)\b\.?`)

type contextAwareAddressFilter struct{}

func (contextAwareAddressFilter) Name() string             { return "context_aware_address" }
func (contextAwareAddressFilter) Type() phitype.FilterType { return phitype.Address }
func (contextAwareAddressFilter) Priority() int            { return phitype.Priority(phitype.Address) }
func (contextAwareAddressFilter) ParallelSafe() bool       { return true }

func (contextAwareAddressFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, cc *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range streetLikePattern.FindAllStringIndex(doc.Text, -1) {
		start, end := m[0], m[1]
		if !requiresContext(cc, start, end) {
			continue
		}
		emit(&out, doc, start, end, phitype.Address, 0.8, "context_aware_address")
	}
	return out, nil
}
