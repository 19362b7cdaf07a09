package vocab

import (
	"path/filepath"
	"testing"
)

func TestContainsIsCaseInsensitive(t *testing.T) {
	d := New("first_names", []string{"Alice", "Bob"}, false)
	if !d.Contains("alice") || !d.Contains("ALICE") || !d.Contains("Bob") {
		t.Error("expected case-insensitive containment")
	}
	if d.Contains("Carol") {
		t.Error("Carol should not be present")
	}
}

func TestFindAllLocatesEveryOccurrence(t *testing.T) {
	d := New("cities", []string{"Boston", "Cambridge"}, false)
	text := "Seen in Boston and then Cambridge and Boston again."
	hits := d.FindAll(text)
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d: %+v", len(hits), hits)
	}
	for _, h := range hits {
		got := text[h.Start:h.End]
		if got != "Boston" && got != "Cambridge" {
			t.Errorf("hit slice %q does not match original text at [%d:%d]", got, h.Start, h.End)
		}
	}
}

func TestFindAllEmptyDictionary(t *testing.T) {
	d := New("empty", nil, false)
	if hits := d.FindAll("anything at all"); hits != nil {
		t.Errorf("expected nil hits for an empty dictionary, got %+v", hits)
	}
}

func TestFuzzyMatchAcceptsOneCharacterTypo(t *testing.T) {
	d := New("surnames", []string{"johnson", "smith", "garcia"}, true)
	got, ok := d.FuzzyMatch("johnsen")
	if !ok || got != "johnson" {
		t.Errorf("FuzzyMatch(johnsen) = (%q, %v), want (johnson, true)", got, ok)
	}
}

func TestFuzzyMatchRejectsUnrelatedWord(t *testing.T) {
	d := New("surnames", []string{"johnson", "smith", "garcia"}, true)
	if _, ok := d.FuzzyMatch("automobile"); ok {
		t.Error("expected no fuzzy match for an unrelated word")
	}
}

func TestFuzzyMatchDisabledReturnsFalse(t *testing.T) {
	d := New("surnames", []string{"johnson"}, false)
	if _, ok := d.FuzzyMatch("johnsen"); ok {
		t.Error("fuzzy matching should be unavailable when not built")
	}
}

func TestFuzzyMatchExactHit(t *testing.T) {
	d := New("surnames", []string{"johnson"}, true)
	got, ok := d.FuzzyMatch("johnson")
	if !ok || got != "johnson" {
		t.Errorf("exact term should fuzzy-match itself, got (%q, %v)", got, ok)
	}
}

func TestLoadLinesSkipsBlankAndCommentLines(t *testing.T) {
	terms, err := LoadLines(filepath.Join("testdata", "sample_names.txt"))
	if err != nil {
		t.Fatalf("LoadLines: %v", err)
	}
	want := map[string]bool{"alice": true, "bob": true, "carol": true}
	if len(terms) != len(want) {
		t.Fatalf("expected %d terms, got %d: %+v", len(want), len(terms), terms)
	}
	for _, term := range terms {
		if !want[term] {
			t.Errorf("unexpected term %q loaded", term)
		}
	}
}

func TestLoadLinesMissingFile(t *testing.T) {
	if _, err := LoadLines(filepath.Join("testdata", "does_not_exist.txt")); err == nil {
		t.Error("expected an error for a missing vocabulary file")
	}
}
