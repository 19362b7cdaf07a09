package redact

import (
	"time"

	"github.com/clinicalredact/phiredact/internal/report"
	"github.com/clinicalredact/phiredact/internal/span"
)

// Explain derives a fresh explanation_report from spans already produced
// by a prior Redact call, at a different minimum confidence threshold,
// without rerunning detection (spec.md §6 "explain(spans, threshold) ->
// explanation_report"). A span below threshold is reported Allowed even
// if it was originally Applied; nothing here mutates doc or re-detects.
func Explain(doc Document, spans []span.Span, threshold float64) report.Report {
	applied := make([]span.Span, 0, len(spans))
	for _, s := range spans {
		if s.Ignored || s.Confidence < threshold {
			continue
		}
		applied = append(applied, s)
	}

	return report.Build(report.Inputs{
		Document:   doc,
		Candidates: spans,
		Applied:    applied,
	}, time.Now())
}
