// Package redact is the public library surface of the HIPAA Safe Harbor
// redaction engine (spec.md §6): Redact processes one document, RedactBatch
// processes many, and Explain re-derives human-readable decisions from an
// already-detected span set without rerunning detection.
//
// Every exported type here is either a direct re-export of an internal
// value type (Policy, ReplacementStyle) or a thin composition root
// (Engine) that wires the pipeline together: clinical context detection →
// filter fan-out → overlap resolution → false-positive pruning →
// confidence calibration → text application → report building. No stage
// is reimplemented here; this package only sequences internal/ packages
// in the order spec.md §4.4 describes.
package redact

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/clinicalredact/phiredact/internal/applier"
	"github.com/clinicalredact/phiredact/internal/calibrator"
	"github.com/clinicalredact/phiredact/internal/config"
	"github.com/clinicalredact/phiredact/internal/coordinator"
	"github.com/clinicalredact/phiredact/internal/filter"
	"github.com/clinicalredact/phiredact/internal/metrics"
	"github.com/clinicalredact/phiredact/internal/policy"
	"github.com/clinicalredact/phiredact/internal/pruner"
	"github.com/clinicalredact/phiredact/internal/redacterr"
	"github.com/clinicalredact/phiredact/internal/redactlog"
	"github.com/clinicalredact/phiredact/internal/report"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/tokenprovider"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// Policy is the per-request redaction configuration of spec.md §6:
// replacement style, per-type enable/disable and replacement override, and
// the context-filter toggle.
type Policy = policy.Policy

// ReplacementStyle selects the default placeholder shape.
type ReplacementStyle = policy.ReplacementStyle

// The three replacement styles of spec.md §6.
const (
	StyleBrackets  = policy.StyleBrackets
	StyleAsterisks = policy.StyleAsterisks
	StyleEmpty     = policy.StyleEmpty
)

// DefaultPolicy returns a Policy with every known type enabled,
// bracket-style placeholders, and context-aware filters on.
func DefaultPolicy() *Policy { return policy.Default() }

// Document is one unit of text to redact.
type Document = span.Document

// Result is the outcome of redacting one document (spec.md §6
// `redact(text, policy?) -> {text, redaction_count, spans, report,
// elapsed_ms}`).
type Result struct {
	Text           string
	RedactionCount int
	Spans          []span.Span
	Report         report.Report
	ElapsedMS      int64
}

// Engine owns everything that is safe and efficient to share across
// documents and goroutines: the active policy, the calibrated threshold
// table, the loaded vocabulary, an optional consistency token provider,
// and a logger/metrics sink. It holds no per-document state; Redact is
// safe to call concurrently for independent documents (coordinator.Run
// already guarantees this for its own fan-out).
type Engine struct {
	Policy     *Policy
	Thresholds calibrator.ThresholdTable
	Vocab      *vocab.Set
	Provider   tokenprovider.TokenProvider

	Log     *redactlog.Logger
	Metrics *metrics.Metrics

	// Workers bounds per-document filter fan-out; 0 means
	// runtime.GOMAXPROCS(0). See config.Config.Workers.
	Workers int
	// Timeout is the per-document deadline; 0 means no deadline.
	Timeout time.Duration

	coord   *coordinator.Coordinator
	applier *applier.Applier
}

// New builds an Engine from a loaded configuration and vocabulary set.
// log and m may be nil; a nil Metrics disables counter recording, and a
// nil Logger silences the coordinator's per-document log lines.
func New(cfg *config.Config, v *vocab.Set, log *redactlog.Logger, m *metrics.Metrics) *Engine {
	p := cfg.Policy()
	e := &Engine{
		Policy:     p,
		Thresholds: cfg.ThresholdTable(),
		Vocab:      v,
		Log:        log,
		Metrics:    m,
		Workers:    cfg.Workers,
		Timeout:    cfg.Timeout(),
	}
	e.coord = &coordinator.Coordinator{Policy: p, Vocab: v, Filters: filterSet(cfg.OCRTolerant), Log: log, Workers: cfg.Workers}
	e.applier = applier.New(p)
	return e
}

// WithProvider installs a consistency token provider and returns the
// Engine for chaining, e.g. redact.New(cfg, v, log, m).WithProvider(p).
func (e *Engine) WithProvider(p tokenprovider.TokenProvider) *Engine {
	e.Provider = p
	e.applier.Provider = p
	return e
}

// Redact processes one document through the full pipeline: clinical
// context scan, filter fan-out, overlap resolution, false-positive
// pruning, confidence calibration, text application, and report
// building. It never returns a partially redacted Result: when the
// coordinator fails (the per-document deadline), the Result carries only
// a TimedOut Report and ElapsedMS, with no Text or Spans; on any other
// error the returned Result is the zero value.
func (e *Engine) Redact(ctx context.Context, doc Document) (Result, error) {
	start := time.Now()

	if !utf8.ValidString(doc.Text) {
		return Result{}, fmt.Errorf("redact: doc=%s: %w", doc.ID, redacterr.ErrInvalidInput)
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if e.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	coordResult, err := e.coord.Run(runCtx, doc)
	if err != nil {
		if e.Metrics != nil {
			e.Metrics.DocumentsTimedOut.Add(1)
		}
		elapsed := time.Since(start)
		rep := report.Build(report.Inputs{
			Document:     doc,
			Candidates:   coordResult.Spans,
			Context:      coordResult.Context,
			FilterErrors: coordResult.FilterErrors,
			TimedOut:     true,
			Elapsed:      elapsed,
		}, time.Now())
		return Result{Report: rep, ElapsedMS: elapsed.Milliseconds()}, err
	}

	resolved := span.Resolve(coordResult.Spans)
	pruned := pruner.Prune(doc, resolved.Applied, e.Vocab, &e.Thresholds)
	calibrated := calibrator.Calibrate(doc, pruned.Kept, coordResult.Context, &e.Thresholds)

	text, applied, err := e.applier.Apply(runCtx, doc, calibrated.Spans)
	if err != nil {
		return Result{}, err
	}

	elapsed := time.Since(start)
	rep := report.Build(report.Inputs{
		Document:     doc,
		Candidates:   coordResult.Spans,
		Applied:      applied,
		Context:      coordResult.Context,
		FilterErrors: coordResult.FilterErrors,
		Elapsed:      elapsed,
	}, time.Now())

	e.recordMetrics(rep, resolved, pruned, calibrated)

	return Result{
		Text:           text,
		RedactionCount: rep.RedactedCount,
		Spans:          applied,
		Report:         rep,
		ElapsedMS:      elapsed.Milliseconds(),
	}, nil
}

func (e *Engine) recordMetrics(rep report.Report, resolved span.Result, pruned pruner.Result, calibrated calibrator.Result) {
	if e.Metrics == nil {
		return
	}
	e.Metrics.DocumentsProcessed.Add(1)
	e.Metrics.SpansDetected.Add(int64(rep.TotalDetections))
	e.Metrics.SpansRedacted.Add(int64(rep.RedactedCount))
	e.Metrics.SpansAllowed.Add(int64(rep.AllowedCount))
	e.Metrics.SpansDropped.Add(int64(len(resolved.Dropped) + len(pruned.Dropped) + len(calibrated.Dropped)))
	e.Metrics.FilterErrors.Add(int64(len(rep.FilterErrors)))
	e.Metrics.RecordDocumentLatency(time.Duration(rep.ExecutionTimeMS) * time.Millisecond)
}

// filterSet returns the built-in filter set, adding the OCR-tolerant
// variants (spec.md §8 scenario 6) when the policy calls for them.
func filterSet(ocrTolerant bool) []filter.Filter {
	if ocrTolerant {
		return filter.AllTolerant()
	}
	return filter.All()
}
