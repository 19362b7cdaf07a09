// Package filter implements the detector family of spec.md §4.2: regex/
// DFA filters, dictionary filters, and context-aware filters that each
// scan one document and emit candidate spans for the resolver to
// arbitrate between.
//
// Every Filter is pure with respect to its inputs (the document text, the
// shared read-only vocabulary, and the pre-computed clinical-context map)
// and must not mutate any of them — the coordinator relies on this to run
// filters concurrently with no locking (spec.md §4.2 "Filters must be
// pure with respect to their inputs and must not mutate shared state").
package filter

import (
	"context"
	"strings"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// Filter is the contract every detector implements (spec.md §4.2).
type Filter interface {
	// Name identifies the filter for logging and report provenance,
	// e.g. "ssn", "context_aware_name".
	Name() string
	// Type is the PHI category this filter produces spans for.
	Type() phitype.FilterType
	// Priority mirrors phitype.Priority(Type()) for filters with a single
	// output type; filters that can emit more than one type return the
	// highest priority among them, since the resolver re-derives the
	// per-span priority from each span's own FilterType regardless.
	Priority() int
	// ParallelSafe reports whether this filter may run concurrently with
	// others over the same document. spec.md §4.2: "those that maintain
	// a cross-document state machine, e.g. date-shifting, are not" —
	// none of this engine's filters carry such state, so every built-in
	// filter returns true; the flag exists for pluggable filters that do.
	ParallelSafe() bool
	// Detect scans doc and returns every candidate span it finds. vocabs
	// may be nil for filters that don't consult a dictionary; cc may be
	// nil for filters that don't need clinical context.
	Detect(ctx context.Context, doc span.Document, vocabs *vocab.Set, cc *clinicalcontext.Context) ([]span.Span, error)
}

// contextWindowTokens is the number of tokens captured on each side of a
// match for the span's Window field (spec.md §4.2 "a small context
// window (2–4 tokens each side)").
const contextWindowTokens = 3

// wordWindow extracts up to n whitespace-delimited tokens immediately
// before and after text[start:end], in document order, for use as a
// span's Window provenance field.
func wordWindow(text string, start, end, n int) []string {
	before := tokensBefore(text[:clampInt(start, 0, len(text))], n)
	after := tokensAfter(text[clampInt(end, 0, len(text)):], n)
	out := make([]string, 0, len(before)+len(after))
	out = append(out, before...)
	out = append(out, after...)
	return out
}

func tokensBefore(s string, n int) []string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[len(fields)-n:]
	}
	return fields
}

func tokensAfter(s string, n int) []string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return fields
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// All returns the built-in filter set: every structured, dictionary, and
// context-aware detector shipped by this engine. The coordinator fans
// this slice out across its worker pool; callers that want a reduced set
// (e.g. policy-disabled types) filter the slice themselves, since the
// spec requires disabled filters to still run and mark their spans
// Ignored for reporting (SPEC_FULL.md §6, Open Question 1) rather than be
// skipped outright.
func All() []Filter {
	out := make([]Filter, 0, 32)
	out = append(out, structuredFilters()...)
	out = append(out, dictionaryFilters()...)
	out = append(out, contextualFilters()...)
	out = append(out, deviceFilters()...)
	return out
}

// AllTolerant returns the built-in filter set plus the OCR-tolerant
// variants of spec.md §8 scenario 6, for callers with OCRTolerant
// enabled in config. Strict mode (the default) uses All() alone.
func AllTolerant() []Filter {
	return append(All(), ocrFilters()...)
}
