// Package report implements the Report Builder of spec.md §4.8: a
// side-effect-free summary of one document's redaction run — totals,
// per-filter counts, per-span provenance, and phase timing — shaped for
// JSON encoding per spec.md §6's "Report format."
package report

import (
	"fmt"
	"time"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/coordinator"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
)

// Decision records what ultimately happened to a detected candidate.
type Decision string

// The two decisions spec.md §6's report format distinguishes.
const (
	DecisionRedacted Decision = "redacted"
	DecisionAllowed  Decision = "allowed"
)

// Position is the byte-offset range of a detection in the input document.
type Position struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Explanation is one entry of spec.md §6's `explanations` list.
type Explanation struct {
	DetectedValue     string   `json:"detected_value"`
	PHIType           string   `json:"phi_type"`
	Severity          string   `json:"severity"`
	MatchedBy         string   `json:"matched_by"`
	PatternMatched    string   `json:"pattern_matched,omitempty"`
	DictionaryHit     bool     `json:"dictionary_hit"`
	ContextIndicators []string `json:"context_indicators"`
	ConfidenceFactors []string `json:"confidence_factors"`
	FinalConfidence   float64  `json:"final_confidence"`
	Decision          Decision `json:"decision"`
	Position          Position `json:"position"`

	// Replacement supplements spec.md §6's field list: audit tooling
	// consuming this report (the external Trust Bundle packaging it
	// names) needs to know what token replaced a redacted value, not
	// just that one did.
	Replacement string `json:"replacement,omitempty"`
}

// Report is the full per-request object of spec.md §6.
type Report struct {
	TotalDetections int            `json:"total_detections"`
	RedactedCount   int            `json:"redacted_count"`
	AllowedCount    int            `json:"allowed_count"`
	ByType          map[string]int `json:"by_type"`
	Explanations    []Explanation  `json:"explanations"`
	Timestamp       string         `json:"timestamp"`
	ExecutionTimeMS int64          `json:"execution_time_ms"`

	FilterErrors []string `json:"filter_errors,omitempty"`
	TimedOut     bool     `json:"timed_out,omitempty"`
}

// Inputs bundles everything the builder needs from one pipeline run.
// Candidates is the full pre-resolution multiset the coordinator
// produced (including spans later dropped or ignored); Applied is the
// final, calibrated, substituted set the applier actually replaced.
type Inputs struct {
	Document     span.Document
	Candidates   []span.Span
	Applied      []span.Span
	Context      *clinicalcontext.Context
	FilterErrors []coordinator.FilterError
	TimedOut     bool
	Elapsed      time.Duration
}

// Build assembles a Report from one pipeline run's Inputs. now is
// injected rather than read from time.Now() internally so callers (and
// their tests) control the stamped timestamp.
func Build(in Inputs, now time.Time) Report {
	appliedIndex := make(map[string]span.Span, len(in.Applied))
	for _, s := range in.Applied {
		appliedIndex[keyOf(s)] = s
	}

	byType := make(map[string]int, len(in.Candidates))
	explanations := make([]Explanation, 0, len(in.Candidates))
	redacted := 0

	for _, s := range in.Candidates {
		byType[string(s.FilterType)]++

		decision := DecisionAllowed
		finalConfidence := s.Confidence
		replacement := ""
		if applied, ok := appliedIndex[keyOf(s)]; ok {
			decision = DecisionRedacted
			redacted++
			finalConfidence = applied.Confidence
			replacement = applied.Replacement
		}

		matchedBy := "pattern"
		if s.DictionaryHit {
			matchedBy = "dictionary"
		}

		explanations = append(explanations, Explanation{
			DetectedValue:     s.Text,
			PHIType:           string(s.FilterType),
			Severity:          string(phitype.SeverityOf(s.FilterType)),
			MatchedBy:         matchedBy,
			PatternMatched:    s.Pattern,
			DictionaryHit:     s.DictionaryHit,
			ContextIndicators: contextIndicators(s, in.Context),
			ConfidenceFactors: confidenceFactors(s, in.Context),
			FinalConfidence:   finalConfidence,
			Decision:          decision,
			Position:          Position{Start: s.Start, End: s.End},
			Replacement:       replacement,
		})
	}

	filterErrs := make([]string, 0, len(in.FilterErrors))
	for _, fe := range in.FilterErrors {
		filterErrs = append(filterErrs, fmt.Sprintf("%s: %v", fe.FilterName, fe.Err))
	}

	return Report{
		TotalDetections: len(in.Candidates),
		RedactedCount:   redacted,
		AllowedCount:    len(in.Candidates) - redacted,
		ByType:          byType,
		Explanations:    explanations,
		Timestamp:       now.UTC().Format(time.RFC3339),
		ExecutionTimeMS: in.Elapsed.Milliseconds(),
		FilterErrors:    filterErrs,
		TimedOut:        in.TimedOut,
	}
}

// keyOf identifies a span by its detection shape (range + type), which
// is invariant across resolution, pruning, and calibration — none of
// those stages change a surviving span's byte range or type, only its
// confidence and Applied/Replacement fields. Two distinct candidates of
// the same type over the exact same byte range are indistinguishable by
// this key; that is an accepted report-granularity limitation, not a
// pipeline correctness issue (the resolver has already arbitrated them
// down to at most one survivor per range).
func keyOf(s span.Span) string {
	return fmt.Sprintf("%d:%d:%s", s.Start, s.End, s.FilterType)
}

// contextIndicators reports the clinical-context strength covering s, if
// any, as a single descriptive string.
func contextIndicators(s span.Span, cc *clinicalcontext.Context) []string {
	if cc == nil {
		return nil
	}
	strength := cc.StrongestIn(s.Start, s.End)
	if strength == clinicalcontext.None {
		return nil
	}
	return []string{"clinical_context:" + strength.String()}
}

// confidenceFactors mirrors calibrator.Adjust's formula (spec.md §4.6)
// for human-readable provenance; it does not recompute or override the
// confidence a span already carries.
func confidenceFactors(s span.Span, cc *clinicalcontext.Context) []string {
	var factors []string
	if cc != nil {
		if boost := cc.StrongestIn(s.Start, s.End).Boost(); boost > 0 {
			factors = append(factors, fmt.Sprintf("context_boost:+%.2f", boost))
		}
	}
	if s.Pattern != "" {
		factors = append(factors, "pattern_bonus:+0.10")
	}
	switch {
	case s.Len() > 20:
		factors = append(factors, "length_adjust:+0.05")
	case s.Len() < 3:
		factors = append(factors, "length_adjust:-0.10")
	}
	if n := len(s.AmbiguousWith); n > 0 {
		factors = append(factors, fmt.Sprintf("ambiguity_penalty:-%.2f", 0.05*float64(n)))
	}
	return factors
}
