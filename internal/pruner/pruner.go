// Package pruner implements the Post-Filter Pruner of spec.md §4.5: a
// fixed, ordered chain of independent drop/keep predicates run over the
// resolver's surviving spans. Order only affects which strategy is
// recorded as the reason a span was dropped — a span any strategy would
// drop is dropped regardless of where that strategy sits in the chain.
package pruner

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/clinicalredact/phiredact/internal/calibrator"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// Context carries the read-only inputs every strategy may consult.
type Context struct {
	Document   span.Document
	Vocab      *vocab.Set
	Profile    calibrator.DocumentProfile
	Thresholds calibrator.ThresholdTable
}

// Strategy is one named predicate in the chain. Keep returns true to
// retain the span, false to drop it.
type Strategy struct {
	Name string
	Keep func(s span.Span, c Context) bool
}

// Strategies is the fixed, documented order of spec.md §4.5's twelve
// named drop rules (InvalidPrefix and InvalidSuffix counted separately).
var Strategies = []Strategy{
	{"confidence_threshold", keepConfidenceThreshold},
	{"device_phone_false_positive", keepDevicePhoneFalsePositive},
	{"section_heading", keepSectionHeading},
	{"structure_word", keepStructureWord},
	{"short_name", keepShortName},
	{"invalid_prefix", keepInvalidPrefix},
	{"invalid_suffix", keepInvalidSuffix},
	{"name_line_break", keepNameLineBreak},
	{"medical_phrase", keepMedicalPhrase},
	{"medical_suffix", keepMedicalSuffix},
	{"geographic_term", keepGeographicTerm},
	{"field_label", keepFieldLabel},
}

// Dropped records which strategy eliminated a span, for report
// provenance (spec.md §4.8 "per-span provenance ... decision").
type Dropped struct {
	Span     span.Span
	Strategy string
}

// Result is the pruner's output.
type Result struct {
	Kept    []span.Span
	Dropped []Dropped
}

// Prune runs every span in spans through the strategy chain in order,
// dropping it at the first strategy that rejects it. table may be nil to
// use calibrator.DefaultThresholdTable.
func Prune(doc span.Document, spans []span.Span, vocabs *vocab.Set, table *calibrator.ThresholdTable) Result {
	var t calibrator.ThresholdTable
	if table != nil {
		t = *table
	} else {
		t = calibrator.DefaultThresholdTable()
	}
	c := Context{
		Document:   doc,
		Vocab:      vocabs,
		Profile:    calibrator.ClassifyProfile(doc.Text),
		Thresholds: t,
	}

	kept := make([]span.Span, 0, len(spans))
	var dropped []Dropped
	for _, s := range spans {
		survives := true
		for _, strat := range Strategies {
			if !strat.Keep(s, c) {
				dropped = append(dropped, Dropped{Span: s, Strategy: strat.Name})
				survives = false
				break
			}
		}
		if survives {
			kept = append(kept, s)
		}
	}
	return Result{Kept: kept, Dropped: dropped}
}

// --- ConfidenceThreshold: applies to every filter type -----------------

func keepConfidenceThreshold(s span.Span, c Context) bool {
	return s.Confidence >= c.Thresholds.Threshold(c.Profile, s.FilterType)
}

// --- DevicePhoneFalsePositive --------------------------------------------

var devicePhoneFalsePositivePhrases = []string{"call button", "room:", "bed:"}

func keepDevicePhoneFalsePositive(s span.Span, _ Context) bool {
	if s.FilterType != phitype.Device && s.FilterType != phitype.Phone {
		return true
	}
	haystack := strings.ToLower(s.Text + " " + strings.Join(s.Window, " "))
	for _, phrase := range devicePhoneFalsePositivePhrases {
		if strings.Contains(haystack, phrase) {
			return false
		}
	}
	return true
}

// --- SectionHeading: NAME spans that are ALL CAPS known section headings -

func keepSectionHeading(s span.Span, c Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	if !isAllCaps(s.Text) {
		return true
	}
	return !dictContains(c.Vocab.SectionHeadingsOrNil(), s.Text)
}

// --- StructureWord: NAME spans containing a document-structure word ----

func keepStructureWord(s span.Span, c Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	d := c.Vocab.StructureWordsOrNil()
	if d == nil {
		return true
	}
	for _, word := range strings.Fields(s.Text) {
		if d.Contains(word) {
			return false
		}
	}
	return true
}

// --- ShortName: NAME spans < 5 chars, no comma, confidence < 0.9 -------

func keepShortName(s span.Span, _ Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	if strings.Contains(s.Text, ",") {
		return true
	}
	if s.Confidence >= 0.9 {
		return true
	}
	return runeLen(s.Text) >= 5
}

// --- InvalidPrefix / InvalidSuffix --------------------------------------

// invalidNameBoundaryWords lists words that, leading or trailing a NAME
// candidate, mark it as something other than a person's name (a title,
// an article, or a narrative connective), mirroring spec.md §4.5's
// "configured non-name word" without introducing a new vocabulary file
// category for it.
var invalidNameBoundaryWords = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"the": true, "a": true, "an": true, "patient": true,
	"continued": true, "page": true, "see": true, "noted": true,
	"dear": true, "sincerely": true, "regards": true,
}

func keepInvalidPrefix(s span.Span, _ Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	fields := strings.Fields(s.Text)
	if len(fields) == 0 {
		return true
	}
	return !invalidNameBoundaryWords[strings.ToLower(strings.Trim(fields[0], "."))]
}

func keepInvalidSuffix(s span.Span, _ Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	fields := strings.Fields(s.Text)
	if len(fields) == 0 {
		return true
	}
	return !invalidNameBoundaryWords[strings.ToLower(strings.Trim(fields[len(fields)-1], "."))]
}

// --- NameLineBreak: NAME spans crossing a newline into a field label ---

var fieldLabelFallback = map[string]bool{"dx": true, "mrn": true, "dob": true, "ssn": true, "rx": true}

var lineBreakTailLabel = regexp.MustCompile(`^\s*([A-Za-z ]{1,20}):`)

func keepNameLineBreak(s span.Span, c Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	idx := strings.IndexByte(s.Text, '\n')
	if idx < 0 {
		return true
	}
	tail := s.Text[idx+1:]
	m := lineBreakTailLabel.FindStringSubmatch(tail)
	if m == nil {
		return true
	}
	label := strings.ToLower(strings.TrimSpace(m[1]))
	if d := c.Vocab.FieldLabelsOrNil(); d != nil && d.Contains(label) {
		return false
	}
	return !fieldLabelFallback[label]
}

// --- MedicalPhrase: NAME spans equal to a configured medical phrase ----

// eponymTail matches a possessive suffix immediately following a NAME
// span ("'s disease", "'s syndrome") so an eponym like "Wilson's disease"
// can be recognized even though the dictionary hit that produced the
// span only ever covers the surname itself ("Wilson" — the apostrophe is
// a word boundary, so the filter never emits the phrase as one span).
var eponymTail = regexp.MustCompile(`^'s\s+([A-Za-z]+)`)

// eponymTailWord returns the lower-cased word immediately following s in
// doc via an "'s <word>" construction, or "" if s isn't followed by one.
func eponymTailWord(doc string, s span.Span) string {
	if s.End >= len(doc) {
		return ""
	}
	m := eponymTail.FindStringSubmatch(doc[s.End:])
	if m == nil {
		return ""
	}
	return strings.ToLower(strings.Trim(m[1], ".,;:"))
}

func keepMedicalPhrase(s span.Span, c Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	if dictContains(c.Vocab.MedicalPhrasesOrNil(), s.Text) {
		return false
	}
	if tail := eponymTailWord(c.Document.Text, s); tail != "" {
		phrase := strings.ToLower(s.Text) + "'s " + tail
		if dictContains(c.Vocab.MedicalPhrasesOrNil(), phrase) {
			return false
		}
	}
	return true
}

// --- MedicalSuffix: NAME spans ending with a medical/facility suffix ---

var medicalFacilitySuffixes = []string{"disease", "hospital", "health", "systems", "center", "clinic", "medical"}

func keepMedicalSuffix(s span.Span, c Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	if fields := strings.Fields(s.Text); len(fields) > 0 {
		last := strings.ToLower(strings.Trim(fields[len(fields)-1], "."))
		if isMedicalFacilitySuffix(last) {
			return false
		}
	}
	// The span itself may be just the eponym's surname ("Wilson"), with
	// the word that actually marks it clinical ("disease") sitting just
	// outside the match, e.g. "Wilson's disease" — check there too.
	if tail := eponymTailWord(c.Document.Text, s); isMedicalFacilitySuffix(tail) {
		return false
	}
	return true
}

func isMedicalFacilitySuffix(word string) bool {
	for _, suffix := range medicalFacilitySuffixes {
		if word == suffix {
			return true
		}
	}
	return false
}

// --- GeographicTerm: NAME spans with any word in the geographic list ---

func keepGeographicTerm(s span.Span, c Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	d := c.Vocab.GeographicTermsOrNil()
	if d == nil {
		return true
	}
	for _, word := range strings.Fields(s.Text) {
		if d.Contains(word) {
			return false
		}
	}
	return true
}

// --- FieldLabel: NAME spans equal to a configured field label ----------

func keepFieldLabel(s span.Span, c Context) bool {
	if s.FilterType != phitype.Name {
		return true
	}
	return !dictContains(c.Vocab.FieldLabelsOrNil(), s.Text)
}

// --- shared helpers ------------------------------------------------------

func dictContains(d *vocab.Dictionary, text string) bool {
	return d != nil && d.Contains(text)
}

func isAllCaps(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasLetter = true
		}
	}
	return hasLetter
}

func runeLen(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
