package filter

import (
	"context"
	"testing"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/span"
)

func TestContextAwareNameRequiresContext(t *testing.T) {
	f := contextAwareNameFilter{}
	plain := "Morgan walked into the room."
	doc := span.Document{ID: "t", Text: plain}
	out, err := f.Detect(context.Background(), doc, testVocab(), clinicalcontext.Scan(plain))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("context-free text should yield no ContextAwareName hits, got %+v", out)
	}

	clinical := "Patient was admitted and complains of pain. Morgan was seen on exam."
	doc2 := span.Document{ID: "t2", Text: clinical}
	out2, err := f.Detect(context.Background(), doc2, testVocab(), clinicalcontext.Scan(clinical))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	found := false
	for _, s := range out2 {
		if s.Text == "Morgan" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'Morgan' to be flagged inside a strong clinical context, got %+v", out2)
	}
}

func TestContextAwareNameSkipsStructuralTerms(t *testing.T) {
	f := contextAwareNameFilter{}
	text := "Patient was admitted and complains of pain. Continued on next page."
	doc := span.Document{ID: "t", Text: text}
	out, err := f.Detect(context.Background(), doc, testVocab(), clinicalcontext.Scan(text))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, s := range out {
		if s.Text == "Continued" {
			t.Errorf("a known structure word should never be flagged as a name, got %+v", out)
		}
	}
}

func TestRelativeDateRequiresContext(t *testing.T) {
	f := relativeDateFilter{}
	clinical := "Patient was admitted and discharged three days after admission."
	doc := span.Document{ID: "t", Text: clinical}
	out, err := f.Detect(context.Background(), doc, nil, clinicalcontext.Scan(clinical))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(out) == 0 {
		t.Error("expected a relative date hit inside clinical context")
	}

	plain := "We met three days after graduation for coffee."
	doc2 := span.Document{ID: "t2", Text: plain}
	out2, _ := f.Detect(context.Background(), doc2, nil, clinicalcontext.Scan(plain))
	if len(out2) != 0 {
		t.Errorf("expected no relative date hit outside clinical context, got %+v", out2)
	}
}

func TestContextAwareAddressMatchesStreetShape(t *testing.T) {
	f := contextAwareAddressFilter{}
	text := "Patient admitted; resides at 42 Maple Street near the clinic."
	doc := span.Document{ID: "t", Text: text}
	out, err := f.Detect(context.Background(), doc, nil, clinicalcontext.Scan(text))
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one street-shaped address match, got %+v", out)
	}
}
