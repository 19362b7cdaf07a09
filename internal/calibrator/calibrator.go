// Package calibrator implements the Confidence Calibrator of spec.md
// §4.6: it adjusts each surviving span's confidence with the clinical
// context boost, a pattern bonus, a length adjustment, and an ambiguity
// penalty, then enforces a document-profile-aware minimum threshold.
package calibrator

import (
	"regexp"
	"strings"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
)

// DocumentProfile classifies the overall structural shape of a document
// (spec.md §4.6), used to pick a per-filter-type confidence floor.
type DocumentProfile string

// The closed set of document profiles.
const (
	ProfileForm      DocumentProfile = "FORM"
	ProfileNarrative DocumentProfile = "NARRATIVE"
	ProfileTable     DocumentProfile = "TABLE"
	ProfileList      DocumentProfile = "LIST"
	ProfileMixed     DocumentProfile = "MIXED"
	ProfileUnknown   DocumentProfile = "UNKNOWN"
)

var (
	labelColonLine = regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9 /]{1,40}:\s*\S`)
	listLine       = regexp.MustCompile(`^\s*([-*•]|\d+[.)])\s+\S`)
	columnarLine   = regexp.MustCompile(`\t|\S\s{2,}\S+\s{2,}\S`)
)

// ClassifyProfile is the small structural analyzer of spec.md §4.6: it
// counts, per non-empty line, which of FORM/LIST/TABLE/NARRATIVE shape it
// matches, and returns the profile covering at least half of the
// classified lines. When no profile reaches half, or no line matches any
// shape, the result is MIXED; a document with no non-empty lines yields
// UNKNOWN.
//
// Equal counts are broken by a fixed FORM > NARRATIVE > TABLE > LIST precedence
// so the result never depends on map iteration order — the engine's
// output must be bit-identical across runs for the same document
// (spec.md §5 "Ordering guarantees").
func ClassifyProfile(text string) DocumentProfile {
	lines := strings.Split(text, "\n")
	var label, list, table, narrative, nonEmpty int
	for _, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		switch {
		case listLine.MatchString(line):
			list++
		case labelColonLine.MatchString(line):
			label++
		case columnarLine.MatchString(line):
			table++
		case len(trimmed) > 60 && strings.ContainsAny(trimmed, ".!?"):
			narrative++
		}
	}
	if nonEmpty == 0 {
		return ProfileUnknown
	}

	type candidate struct {
		profile DocumentProfile
		count   int
	}
	candidates := []candidate{
		{ProfileForm, label},
		{ProfileNarrative, narrative},
		{ProfileTable, table},
		{ProfileList, list},
	}
	total := label + list + table + narrative
	if total == 0 {
		return ProfileMixed
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.count > best.count {
			best = c
		}
	}
	if float64(best.count) < 0.5*float64(total) {
		return ProfileMixed
	}
	return best.profile
}

// ThresholdTable maps (DocumentProfile, FilterType) to a minimum
// confidence (spec.md §4.6 "Thresholds per (profile × filter_type) are
// loaded from configuration; defaults are supplied").
type ThresholdTable struct {
	byProfile map[DocumentProfile]map[phitype.FilterType]float64
	fallback  float64
}

// defaultMinimumConfidence is the floor applied when neither the profile
// nor the filter type has an explicit entry.
const defaultMinimumConfidence = 0.5

// DefaultThresholdTable returns the built-in threshold table. Structured,
// narrow-surface-form types (SSN, credit card, email, DEA, NPI) keep a
// low bar everywhere since their own validators already reject nearly
// every false positive; FORM documents raise the bar for NAME/ADDRESS
// (field-label colons create capitalized-word false positives); TABLE
// documents raise the bar across the generic types (columnar data is
// ambiguous out of context); NARRATIVE documents lower the NAME bar
// slightly, since names in flowing clinical prose carry strong
// contextual support.
func DefaultThresholdTable() ThresholdTable {
	profiles := []DocumentProfile{ProfileForm, ProfileNarrative, ProfileTable, ProfileList, ProfileMixed, ProfileUnknown}
	byProfile := make(map[DocumentProfile]map[phitype.FilterType]float64, len(profiles))
	for _, p := range profiles {
		m := make(map[phitype.FilterType]float64, len(phitype.All()))
		for _, ft := range phitype.All() {
			m[ft] = defaultMinimumConfidence
		}
		byProfile[p] = m
	}

	for _, ft := range []phitype.FilterType{phitype.SSN, phitype.CreditCard, phitype.Email, phitype.DEA, phitype.NPI} {
		for _, p := range profiles {
			byProfile[p][ft] = 0.3
		}
	}

	byProfile[ProfileForm][phitype.Name] = 0.65
	byProfile[ProfileForm][phitype.Address] = 0.6

	byProfile[ProfileNarrative][phitype.Name] = 0.45

	for _, ft := range []phitype.FilterType{phitype.Name, phitype.Date, phitype.Address, phitype.ZipCode} {
		byProfile[ProfileTable][ft] = 0.6
	}

	return ThresholdTable{byProfile: byProfile, fallback: defaultMinimumConfidence}
}

// WithOverride returns a copy of t with profile/filterType's threshold
// set to v, leaving t unmodified — the same copy-on-write shape as
// policy.Policy.Clone, so a config layer can build a custom table from
// the defaults without a shared-mutation hazard.
func (t ThresholdTable) WithOverride(profile DocumentProfile, ft phitype.FilterType, v float64) ThresholdTable {
	out := ThresholdTable{byProfile: make(map[DocumentProfile]map[phitype.FilterType]float64, len(t.byProfile)), fallback: t.fallback}
	for p, m := range t.byProfile {
		cp := make(map[phitype.FilterType]float64, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out.byProfile[p] = cp
	}
	if out.byProfile[profile] == nil {
		out.byProfile[profile] = make(map[phitype.FilterType]float64)
	}
	out.byProfile[profile][ft] = v
	return out
}

// Threshold returns the configured minimum confidence for (profile, ft),
// falling back to the table's default when either is unregistered.
func (t ThresholdTable) Threshold(profile DocumentProfile, ft phitype.FilterType) float64 {
	if m, ok := t.byProfile[profile]; ok {
		if v, ok2 := m[ft]; ok2 {
			return v
		}
	}
	return t.fallback
}

// Adjust applies spec.md §4.6's confidence formula to s and returns a
// copy: confidence + context_boost(position) + pattern_bonus +
// length_adjust − ambiguity_penalty, clamped to [0, 1] by
// span.Span.WithConfidence.
func Adjust(s span.Span, cc *clinicalcontext.Context) span.Span {
	boost := 0.0
	if cc != nil {
		boost = cc.StrongestIn(s.Start, s.End).Boost()
	}
	patternBonus := 0.0
	if s.Pattern != "" {
		patternBonus = 0.10
	}
	lengthAdjust := 0.0
	switch {
	case s.Len() > 20:
		lengthAdjust = 0.05
	case s.Len() < 3:
		lengthAdjust = -0.10
	}
	ambiguityPenalty := 0.05 * float64(len(s.AmbiguousWith))

	adjusted := s.Confidence + boost + patternBonus + lengthAdjust - ambiguityPenalty
	return s.WithConfidence(adjusted)
}

// Result is the calibrator's output: the surviving, confidence-adjusted
// spans, the document profile used to pick thresholds, and the spans
// dropped for falling below their type's minimum.
type Result struct {
	Spans   []span.Span
	Profile DocumentProfile
	Dropped []span.Span
}

// Calibrate adjusts every span in spans and drops any whose adjusted
// confidence falls below threshold(profile, filter_type). A nil table
// uses DefaultThresholdTable.
func Calibrate(doc span.Document, spans []span.Span, cc *clinicalcontext.Context, table *ThresholdTable) Result {
	var t ThresholdTable
	if table != nil {
		t = *table
	} else {
		t = DefaultThresholdTable()
	}
	profile := ClassifyProfile(doc.Text)

	kept := make([]span.Span, 0, len(spans))
	var dropped []span.Span
	for _, s := range spans {
		adjusted := Adjust(s, cc)
		if adjusted.Confidence < t.Threshold(profile, adjusted.FilterType) {
			dropped = append(dropped, adjusted)
			continue
		}
		kept = append(kept, adjusted)
	}
	return Result{Spans: kept, Profile: profile, Dropped: dropped}
}
