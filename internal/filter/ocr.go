package filter

import (
	"context"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// ocrConfusables maps OCR-confusable characters to the digit a scanner
// most often misreads them as (spec.md §8 scenario 6). Every substitution
// is one rune for one rune, so a normalized copy of a document is always
// the same length as the original and its byte offsets line up directly.
var ocrConfusables = map[rune]rune{
	'l': '1', 'I': '1', 'i': '1',
	'O': '0', 'o': '0',
	'B': '8',
	'S': '5', 's': '5',
	'Z': '2', 'z': '2',
}

func normalizeOCR(s string) string {
	out := []rune(s)
	changed := false
	for i, r := range out {
		if rep, ok := ocrConfusables[r]; ok {
			out[i] = rep
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(out)
}

// ocrFilters returns the tolerant variants of the structured filters
// spec.md §8 scenario 6 calls out by name (SSN, MRN, phone): each runs
// its strict sibling's pattern against a confusable-character-normalized
// copy of the document and only reports a match the strict pattern
// itself missed on the original text, so enabling OCR tolerance never
// duplicates a span the strict filter already found.
func ocrFilters() []Filter {
	return []Filter{
		ssnFilterOCR{},
		phoneFaxFilterOCR{},
		mrnFilterOCR{},
	}
}

type ssnFilterOCR struct{}

func (ssnFilterOCR) Name() string             { return "ssn_ocr" }
func (ssnFilterOCR) Type() phitype.FilterType { return phitype.SSN }
func (ssnFilterOCR) Priority() int            { return phitype.Priority(phitype.SSN) }
func (ssnFilterOCR) ParallelSafe() bool       { return true }
func (ssnFilterOCR) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	normalized := normalizeOCR(doc.Text)
	if normalized == doc.Text {
		return nil, nil
	}
	var out []span.Span
	for _, m := range ssnPattern.FindAllStringSubmatchIndex(normalized, -1) {
		if ssnPattern.MatchString(doc.Text[m[0]:m[1]]) {
			continue // the strict filter already found this one
		}
		area := normalized[m[2]:m[3]]
		group := normalized[m[4]:m[5]]
		serial := normalized[m[6]:m[7]]
		if !validSSNArea(area) || group == "00" || serial == "0000" {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.SSN, 0.7, "ssn_pattern_ocr")
	}
	return out, nil
}

type phoneFaxFilterOCR struct{}

func (phoneFaxFilterOCR) Name() string             { return "phone_fax_ocr" }
func (phoneFaxFilterOCR) Type() phitype.FilterType { return phitype.Phone }
func (phoneFaxFilterOCR) Priority() int            { return phitype.Priority(phitype.Phone) }
func (phoneFaxFilterOCR) ParallelSafe() bool       { return true }
func (phoneFaxFilterOCR) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	normalized := normalizeOCR(doc.Text)
	if normalized == doc.Text {
		return nil, nil
	}
	var out []span.Span
	for _, m := range phonePattern.FindAllStringIndex(normalized, -1) {
		if phonePattern.MatchString(doc.Text[m[0]:m[1]]) {
			continue
		}
		ft := phitype.Phone
		pattern := "phone_pattern_ocr"
		if nearbyKeyword(doc.Text, m[0], m[1], 25, "fax") {
			ft = phitype.Fax
			pattern = "fax_pattern_ocr"
		}
		emit(&out, doc, m[0], m[1], ft, 0.65, pattern)
	}
	return out, nil
}

type mrnFilterOCR struct{}

func (mrnFilterOCR) Name() string             { return "mrn_ocr" }
func (mrnFilterOCR) Type() phitype.FilterType { return phitype.MRN }
func (mrnFilterOCR) Priority() int            { return phitype.Priority(phitype.MRN) }
func (mrnFilterOCR) ParallelSafe() bool       { return true }
func (mrnFilterOCR) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	normalized := normalizeOCR(doc.Text)
	if normalized == doc.Text {
		return nil, nil
	}
	var out []span.Span
	for _, m := range mrnPattern.FindAllStringIndex(normalized, -1) {
		if mrnPattern.MatchString(doc.Text[m[0]:m[1]]) {
			continue
		}
		if !nearbyKeyword(doc.Text, m[0], m[1], 20, "mrn") && !nearbyKeyword(doc.Text, m[0], m[1], 20, "medical record") {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.MRN, 0.65, "mrn_context_gated_ocr")
	}
	return out, nil
}
