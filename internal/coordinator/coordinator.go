// Package coordinator implements the Detection Coordinator (spec.md §4.4):
// it runs the clinical context detector once per document, then fans the
// filter set out across a bounded worker pool and merges each filter's
// candidate spans back into a single slice with no shared mutable state
// during execution.
//
// A single filter panic or error never aborts a document: both are
// recovered at this boundary and recorded as a FilterError, matching the
// teacher's pattern of containing failure at one well-known boundary
// (the proxy's per-request handler) rather than letting it propagate.
package coordinator

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/filter"
	"github.com/clinicalredact/phiredact/internal/policy"
	"github.com/clinicalredact/phiredact/internal/redacterr"
	"github.com/clinicalredact/phiredact/internal/redactlog"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// FilterError records a single filter's failure (panic or returned error),
// contained here and surfaced only for reporting (spec.md §7 "Filter
// panics are recovered at the coordinator boundary").
type FilterError struct {
	FilterName string
	Err        error
}

// Result is the coordinator's output: every candidate span any filter
// produced (including Ignored ones from policy-disabled types), the
// clinical context windows used to gate the contextual filter family, and
// any contained per-filter failures.
type Result struct {
	Spans        []span.Span
	FilterErrors []FilterError
	Context      *clinicalcontext.Context
	TimedOut     bool
}

// contextualFilterNames identifies the filter family gated behind
// Policy.ContextFiltersEnabled (spec.md §4.2's ±150-byte context window
// family), so the coordinator can skip invoking them entirely when a
// caller turns context-aware detection off, rather than merely ignoring
// their output downstream.
var contextualFilterNames = map[string]bool{
	"context_aware_name":    true,
	"relative_date":         true,
	"context_aware_address": true,
}

// Coordinator owns the filter set and vocabulary for one engine instance.
// It holds no per-document state; Run is safe to call concurrently for
// independent documents.
type Coordinator struct {
	Policy  *policy.Policy
	Vocab   *vocab.Set
	Filters []filter.Filter
	Log     *redactlog.Logger

	// Workers bounds the fan-out; 0 means runtime.GOMAXPROCS(0).
	Workers int
}

// New builds a Coordinator running the full built-in filter set.
func New(p *policy.Policy, v *vocab.Set, log *redactlog.Logger) *Coordinator {
	return &Coordinator{
		Policy:  p,
		Vocab:   v,
		Filters: filter.All(),
		Log:     log,
	}
}

// Run scans doc once for clinical context, then fans every active filter
// out across a bounded errgroup.Group, merges the results, and marks spans
// from policy-disabled types Ignored (Open Question 1's "disabled filters
// still run, for reporting" decision: filters themselves stay
// policy-agnostic, and this boundary applies the policy).
//
// An empty document short-circuits before any filter runs. ctx's deadline,
// if any, is only checked after every filter has returned (or been
// recovered) and before the merge — a document's own detection pass is
// never aborted mid-flight, matching spec.md §5's "a document's resolver
// and applier run to completion once started."
func (c *Coordinator) Run(ctx context.Context, doc span.Document) (Result, error) {
	if doc.Text == "" {
		return Result{}, nil
	}

	var cc *clinicalcontext.Context
	if c.Policy == nil || c.Policy.ContextFiltersEnabled {
		cc = clinicalcontext.Scan(doc.Text)
	}

	active := c.activeFilters()
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	perFilter := make([][]span.Span, len(active))
	var mu sync.Mutex
	var filterErrs []FilterError

	for i, f := range active {
		i, f := i, f
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					filterErrs = append(filterErrs, FilterError{
						FilterName: f.Name(),
						Err:        fmt.Errorf("%w: panic: %v", redacterr.ErrFilterInternal, r),
					})
					mu.Unlock()
				}
			}()
			spans, ferr := f.Detect(gctx, doc, c.Vocab, cc)
			if ferr != nil {
				mu.Lock()
				filterErrs = append(filterErrs, FilterError{
					FilterName: f.Name(),
					Err:        fmt.Errorf("%w: %s: %v", redacterr.ErrFilterInternal, f.Name(), ferr),
				})
				mu.Unlock()
				return nil // contained: one filter's error never aborts the group
			}
			perFilter[i] = spans
			return nil
		})
	}
	_ = g.Wait() // every goroutine always returns nil; failures are contained above

	select {
	case <-ctx.Done():
		if c.Log != nil {
			c.Log.Warn("coordinator_timeout", fmt.Sprintf("doc=%s", doc.ID))
		}
		return Result{FilterErrors: filterErrs, Context: cc, TimedOut: true},
			fmt.Errorf("doc=%s: %w", doc.ID, redacterr.ErrTimeout)
	default:
	}

	var all []span.Span
	for _, spans := range perFilter {
		all = append(all, spans...)
	}
	c.markDisabled(all)

	if c.Log != nil {
		c.Log.Info("coordinator_run", fmt.Sprintf("doc=%s filters=%d candidates=%d errors=%d", doc.ID, len(active), len(all), len(filterErrs)))
	}

	return Result{Spans: all, FilterErrors: filterErrs, Context: cc}, nil
}

// activeFilters returns the filter set to invoke, excluding the
// contextual family entirely when the policy turns context-aware
// detection off.
func (c *Coordinator) activeFilters() []filter.Filter {
	if c.Policy != nil && !c.Policy.ContextFiltersEnabled {
		out := make([]filter.Filter, 0, len(c.Filters))
		for _, f := range c.Filters {
			if !contextualFilterNames[f.Name()] {
				out = append(out, f)
			}
		}
		return out
	}
	return c.Filters
}

// markDisabled marks every span whose FilterType the policy disables as
// Ignored, in place. A nil policy enables every type.
func (c *Coordinator) markDisabled(spans []span.Span) {
	if c.Policy == nil {
		return
	}
	for i, s := range spans {
		if !c.Policy.Enabled(s.FilterType) {
			spans[i] = s.WithIgnored()
		}
	}
}
