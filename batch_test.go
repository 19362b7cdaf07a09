package redact

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRedactBatchProcessesEachDocumentIndependently(t *testing.T) {
	e := New(testConfig(), testVocab(), nil, nil)
	docs := []Document{
		{ID: "a", Text: "SSN 123-45-6789 on file."},
		{ID: "b", Text: "no phi here at all."},
		{ID: "c", Text: "SSN 987-65-4321 on file."},
	}

	results := e.RedactBatch(context.Background(), docs)

	if len(results) != len(docs) {
		t.Fatalf("got %d results, want %d", len(results), len(docs))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("doc %d: unexpected error: %v", i, r.Err)
		}
	}
	if !strings.Contains(results[0].Text, "[SSN]") {
		t.Errorf("doc a: expected SSN redacted, got %q", results[0].Text)
	}
	if results[1].Text != docs[1].Text {
		t.Errorf("doc b: expected unchanged text, got %q", results[1].Text)
	}
	if !strings.Contains(results[2].Text, "[SSN]") {
		t.Errorf("doc c: expected SSN redacted, got %q", results[2].Text)
	}
}

func TestRedactBatchEmptyInput(t *testing.T) {
	e := New(testConfig(), testVocab(), nil, nil)
	results := e.RedactBatch(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results for empty input, got %d", len(results))
	}
}

func TestRedactBatchOneFailureDoesNotAbortSiblings(t *testing.T) {
	e := New(testConfig(), testVocab(), nil, nil)
	docs := []Document{
		{ID: "bad", Text: "abc\xff\xfe"},
		{ID: "good", Text: "SSN 123-45-6789 on file."},
	}

	results := e.RedactBatch(context.Background(), docs)

	if results[0].Err == nil {
		t.Error("expected an error for the invalid-UTF8 document")
	}
	if results[1].Err != nil {
		t.Errorf("sibling document should succeed, got error: %v", results[1].Err)
	}
	if !strings.Contains(results[1].Text, "[SSN]") {
		t.Errorf("sibling document should still be redacted, got %q", results[1].Text)
	}
}

func TestRedactBatchCancelledContextSkipsUndispatchedDocuments(t *testing.T) {
	e := New(testConfig(), testVocab(), nil, nil)
	docs := make([]Document, 20)
	for i := range docs {
		docs[i] = Document{ID: "d", Text: "SSN 123-45-6789 on file."}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Give the already-cancelled context a moment to be observed by every
	// worker before any work would otherwise start.
	time.Sleep(time.Millisecond)

	results := e.RedactBatch(ctx, docs)

	sawCancelled := false
	for _, r := range results {
		if r.Err == context.Canceled {
			sawCancelled = true
		}
	}
	if !sawCancelled {
		t.Error("expected at least one document to observe the cancelled context before dispatch")
	}
}
