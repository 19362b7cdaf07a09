// Package applier implements the Applier of spec.md §4.7: given the
// pruned, calibrated, sorted, non-overlapping span set, it walks the
// document and the span list together in one linear pass, copying text
// between spans verbatim and substituting each span's policy-configured
// replacement — the span-based analogue of the teacher's
// anonymizer.AnonymizeText, which runs one regex-replace pass per
// pattern instead of one walk over a pre-resolved span list.
package applier

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/clinicalredact/phiredact/internal/policy"
	"github.com/clinicalredact/phiredact/internal/redacterr"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/tokenprovider"
)

// Applier substitutes a document's surviving spans with their
// replacement tokens.
type Applier struct {
	Policy   *policy.Policy
	Provider tokenprovider.TokenProvider // optional; nil means "always use the policy placeholder"
}

// New creates an Applier bound to p. A nil Policy falls back to a fixed
// "[FILTER_TYPE]" placeholder shape.
func New(p *policy.Policy) *Applier {
	return &Applier{Policy: p}
}

// Apply walks doc.Text and spans (assumed sorted by Start and pairwise
// non-overlapping, per span.SortByStart / span.NonOverlapping) in one
// linear pass and returns the redacted text plus the same spans with
// Applied and Replacement set. Ignored spans (policy-disabled types,
// still carried for reporting) are left in the text untouched.
//
// Apply is not parallelized inside one document: spec.md §4.7's
// concurrency note rules out splitting a single document's substitution
// pass across goroutines, since each replacement shifts every
// downstream byte offset and the walk must stay strictly sequential.
func (a *Applier) Apply(ctx context.Context, doc span.Document, spans []span.Span) (string, []span.Span, error) {
	if !utf8.ValidString(doc.Text) {
		return "", nil, fmt.Errorf("applier: doc=%s: %w", doc.ID, redacterr.ErrInvalidInput)
	}

	var b strings.Builder
	b.Grow(len(doc.Text))
	cursor := 0
	applied := make([]span.Span, 0, len(spans))

	for _, s := range spans {
		if s.Ignored {
			applied = append(applied, s)
			continue
		}
		if s.Start < cursor || s.End > len(doc.Text) || s.Start < 0 || s.Start >= s.End {
			return "", nil, fmt.Errorf("applier: doc=%s span=[%d,%d): %w", doc.ID, s.Start, s.End, redacterr.ErrApplierOffset)
		}
		b.WriteString(doc.Text[cursor:s.Start])
		replacement := a.replacementFor(ctx, s)
		b.WriteString(replacement)
		applied = append(applied, s.WithApplied(replacement))
		cursor = s.End
	}
	b.WriteString(doc.Text[cursor:])

	out := b.String()
	if !utf8.ValidString(out) {
		return "", nil, fmt.Errorf("applier: doc=%s: %w", doc.ID, redacterr.ErrApplierOffset)
	}
	return out, applied, nil
}

// replacementFor consults the optional TokenProvider first so repeated
// occurrences of the same underlying value resolve to the same token;
// a miss, a nil Provider, or a provider error all fall back to the
// policy's placeholder for s.FilterType.
func (a *Applier) replacementFor(ctx context.Context, s span.Span) string {
	if a.Provider != nil {
		if token, ok, err := a.Provider.ResolveToken(ctx, s.FilterType, normalize(s.Text)); err == nil && ok {
			return token
		}
	}
	if a.Policy != nil {
		return a.Policy.Replacement(s.FilterType)
	}
	return fmt.Sprintf("[%s]", s.FilterType)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
