package filter

import (
	"context"
	"unicode"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// dictionaryFilters returns the dictionary-lookup filter family of
// spec.md §4.2: first/last names (exact plus fuzzy) and city/state
// gazetteer hits that anchor address detection. Provider-credential
// vocabulary (MD, RN, NP, ...) has no PHI category of its own under
// Safe Harbor, so no filter here emits spans for it, and vocab.Set
// carries no credential list (documented in DESIGN.md).
func dictionaryFilters() []Filter {
	return []Filter{
		nameDictionaryFilter{},
		cityDictionaryFilter{},
	}
}

// --- Name dictionary (exact + fuzzy) ------------------------------------

type nameDictionaryFilter struct{}

func (nameDictionaryFilter) Name() string             { return "name_dictionary" }
func (nameDictionaryFilter) Type() phitype.FilterType { return phitype.Name }
func (nameDictionaryFilter) Priority() int            { return phitype.Priority(phitype.Name) }
func (nameDictionaryFilter) ParallelSafe() bool       { return true }

func (nameDictionaryFilter) Detect(_ context.Context, doc span.Document, vocabs *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	if vocabs == nil || vocabs.FirstNames == nil || vocabs.Surnames == nil {
		return nil, nil
	}
	var out []span.Span

	emitHits := func(d *vocab.Dictionary, dictionaryHit bool) {
		for _, h := range d.FindAll(doc.Text) {
			if !isWordBoundaryHit(doc.Text, h.Start, h.End) {
				continue
			}
			s := span.NewFromMatch(doc.Text[h.Start:h.End], h.Start, h.End, phitype.Name, 0.7)
			s.Pattern = "name_dictionary_exact"
			s.DictionaryHit = dictionaryHit
			s.Window = wordWindow(doc.Text, h.Start, h.End, contextWindowTokens)
			out = append(out, s)
		}
	}
	emitHits(vocabs.FirstNames, true)
	emitHits(vocabs.Surnames, true)

	for _, tok := range tokenize(doc.Text) {
		if vocabs.FirstNames.Contains(tok.text) || vocabs.Surnames.Contains(tok.text) {
			continue // already covered by the exact Aho-Corasick pass
		}
		if !looksLikeCapitalizedName(tok.text) {
			continue
		}
		if match, ok := vocabs.FirstNames.FuzzyMatch(tok.text); ok {
			emitFuzzyName(&out, doc, tok, match)
			continue
		}
		if match, ok := vocabs.Surnames.FuzzyMatch(tok.text); ok {
			emitFuzzyName(&out, doc, tok, match)
		}
	}
	return out, nil
}

func emitFuzzyName(out *[]span.Span, doc span.Document, tok token, dictionaryTerm string) {
	s := span.NewFromMatch(doc.Text[tok.start:tok.end], tok.start, tok.end, phitype.Name, 0.55)
	s.Pattern = "name_dictionary_fuzzy:" + dictionaryTerm
	s.DictionaryHit = true
	s.Window = wordWindow(doc.Text, tok.start, tok.end, contextWindowTokens)
	*out = append(*out, s)
}

// isWordBoundaryHit rejects a dictionary hit that lands mid-word (e.g.
// "Alice" matching inside "Alicebot").
func isWordBoundaryHit(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func looksLikeCapitalizedName(s string) bool {
	if len(s) < 3 {
		return false
	}
	r := []rune(s)
	if !unicode.IsUpper(r[0]) {
		return false
	}
	for _, c := range r[1:] {
		if !unicode.IsLower(c) {
			return false
		}
	}
	return true
}

type token struct {
	text       string
	start, end int
}

// tokenize splits text into whitespace/punctuation-delimited word tokens
// with byte offsets, for the fuzzy-matching pass.
func tokenize(text string) []token {
	var out []token
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			out = append(out, token{text: text[start:i], start: start, end: i})
			start = -1
		}
	}
	if start != -1 {
		out = append(out, token{text: text[start:], start: start, end: len(text)})
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

// --- City / state gazetteer (anchors ADDRESS detection) -----------------

type cityDictionaryFilter struct{}

func (cityDictionaryFilter) Name() string             { return "city_dictionary" }
func (cityDictionaryFilter) Type() phitype.FilterType { return phitype.Address }
func (cityDictionaryFilter) Priority() int            { return phitype.Priority(phitype.Address) }
func (cityDictionaryFilter) ParallelSafe() bool       { return true }

func (cityDictionaryFilter) Detect(_ context.Context, doc span.Document, vocabs *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	if vocabs == nil || vocabs.Cities == nil {
		return nil, nil
	}
	var out []span.Span
	for _, h := range vocabs.Cities.FindAll(doc.Text) {
		if !isWordBoundaryHit(doc.Text, h.Start, h.End) {
			continue
		}
		hasState := vocabs.States != nil && len(vocabs.States.FindAll(extendedWindow(doc.Text, h.End, 30))) > 0
		confidence := 0.5
		if hasState {
			confidence = 0.75
		}
		s := span.NewFromMatch(doc.Text[h.Start:h.End], h.Start, h.End, phitype.Address, confidence)
		s.Pattern = "city_dictionary"
		s.DictionaryHit = true
		s.Window = wordWindow(doc.Text, h.Start, h.End, contextWindowTokens)
		out = append(out, s)
	}
	return out, nil
}

func extendedWindow(text string, from, length int) string {
	hi := clampInt(from+length, 0, len(text))
	return text[clampInt(from, 0, len(text)):hi]
}
