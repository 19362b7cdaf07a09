package report

import (
	"errors"
	"testing"
	"time"

	"github.com/clinicalredact/phiredact/internal/coordinator"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
)

func TestBuildCountsRedactedAndAllowed(t *testing.T) {
	kept := span.NewFromMatch("123-45-6789", 0, 11, phitype.SSN, 0.95)
	dropped := span.NewFromMatch("Al", 20, 22, phitype.Name, 0.2)
	appliedKept := kept.WithApplied("[SSN]")

	in := Inputs{
		Document:   span.Document{ID: "d1", Text: "123-45-6789 seen with Al present"},
		Candidates: []span.Span{kept, dropped},
		Applied:    []span.Span{appliedKept},
		Elapsed:    5 * time.Millisecond,
	}

	r := Build(in, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if r.TotalDetections != 2 {
		t.Errorf("TotalDetections = %d, want 2", r.TotalDetections)
	}
	if r.RedactedCount != 1 || r.AllowedCount != 1 {
		t.Errorf("RedactedCount=%d AllowedCount=%d, want 1 and 1", r.RedactedCount, r.AllowedCount)
	}
	if r.ByType["SSN"] != 1 || r.ByType["NAME"] != 1 {
		t.Errorf("ByType = %+v, want one SSN and one NAME", r.ByType)
	}
}

func TestBuildTagsSeverityByPHIType(t *testing.T) {
	ssn := span.NewFromMatch("123-45-6789", 0, 11, phitype.SSN, 0.95)
	date := span.NewFromMatch("01/02/2026", 20, 30, phitype.Date, 0.6)

	in := Inputs{
		Document:   span.Document{ID: "d1", Text: "123-45-6789 seen on 01/02/2026"},
		Candidates: []span.Span{ssn, date},
	}

	r := Build(in, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if r.Explanations[0].Severity != "critical" {
		t.Errorf("SSN severity = %q, want critical", r.Explanations[0].Severity)
	}
	if r.Explanations[1].Severity != "medium" {
		t.Errorf("DATE severity = %q, want medium", r.Explanations[1].Severity)
	}
}

func TestBuildMarksRedactedExplanationWithReplacement(t *testing.T) {
	kept := span.NewFromMatch("123-45-6789", 0, 11, phitype.SSN, 0.95)
	appliedKept := kept.WithApplied("[SSN]")

	in := Inputs{
		Candidates: []span.Span{kept},
		Applied:    []span.Span{appliedKept},
	}
	r := Build(in, time.Now())
	if len(r.Explanations) != 1 {
		t.Fatalf("expected 1 explanation, got %d", len(r.Explanations))
	}
	exp := r.Explanations[0]
	if exp.Decision != DecisionRedacted {
		t.Errorf("Decision = %q, want redacted", exp.Decision)
	}
	if exp.Replacement != "[SSN]" {
		t.Errorf("Replacement = %q, want [SSN]", exp.Replacement)
	}
}

func TestBuildMarksUnappliedSpanAsAllowed(t *testing.T) {
	dropped := span.NewFromMatch("Al", 0, 2, phitype.Name, 0.2)
	r := Build(Inputs{Candidates: []span.Span{dropped}}, time.Now())
	if len(r.Explanations) != 1 {
		t.Fatalf("expected 1 explanation, got %d", len(r.Explanations))
	}
	if r.Explanations[0].Decision != DecisionAllowed {
		t.Errorf("Decision = %q, want allowed", r.Explanations[0].Decision)
	}
}

func TestBuildReportsDictionaryVsPatternMatch(t *testing.T) {
	dictHit := span.NewFromMatch("Springfield", 0, 11, phitype.Address, 0.8)
	dictHit.DictionaryHit = true
	patternHit := span.NewFromMatch("123-45-6789", 20, 31, phitype.SSN, 0.95)
	patternHit.Pattern = "ssn_dashed"

	r := Build(Inputs{Candidates: []span.Span{dictHit, patternHit}}, time.Now())
	byValue := map[string]Explanation{}
	for _, e := range r.Explanations {
		byValue[e.DetectedValue] = e
	}
	if byValue["Springfield"].MatchedBy != "dictionary" {
		t.Errorf("Springfield MatchedBy = %q, want dictionary", byValue["Springfield"].MatchedBy)
	}
	if byValue["123-45-6789"].MatchedBy != "pattern" || byValue["123-45-6789"].PatternMatched != "ssn_dashed" {
		t.Errorf("SSN explanation = %+v, want pattern match ssn_dashed", byValue["123-45-6789"])
	}
}

func TestBuildIncludesFilterErrors(t *testing.T) {
	in := Inputs{
		FilterErrors: []coordinator.FilterError{
			{FilterName: "ssn", Err: errors.New("boom")},
		},
		TimedOut: true,
	}
	r := Build(in, time.Now())
	if len(r.FilterErrors) != 1 {
		t.Fatalf("expected 1 filter error, got %d", len(r.FilterErrors))
	}
	if !r.TimedOut {
		t.Error("expected TimedOut=true to carry through")
	}
}

func TestBuildStampsTimestampAndExecutionTime(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	r := Build(Inputs{Elapsed: 250 * time.Millisecond}, now)
	if r.Timestamp != "2026-03-04T05:06:07Z" {
		t.Errorf("Timestamp = %q, want 2026-03-04T05:06:07Z", r.Timestamp)
	}
	if r.ExecutionTimeMS != 250 {
		t.Errorf("ExecutionTimeMS = %d, want 250", r.ExecutionTimeMS)
	}
}
