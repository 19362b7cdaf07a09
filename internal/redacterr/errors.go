// Package redacterr defines the structured error kinds of spec.md §7.
//
// Filter-internal errors are contained at the coordinator boundary and
// never reach the caller as a redacterr value — every other kind always
// propagates as one of these, wrapped with context via fmt.Errorf("%w").
package redacterr

import "errors"

// Sentinel errors identifying each kind from spec.md §7. Wrap with
// fmt.Errorf("...: %w", KindX) to attach context while preserving
// errors.Is matchability.
var (
	// ErrInvalidInput: text is not valid UTF-8, or policy references an
	// unknown filter type. Surfaced to the caller.
	ErrInvalidInput = errors.New("redact: invalid input")

	// ErrPolicyNotFound: raised at load time when a referenced policy
	// cannot be located. Surfaced; the request fails before processing.
	ErrPolicyNotFound = errors.New("redact: policy not found")

	// ErrPolicyMalformed: the policy failed structural validation.
	ErrPolicyMalformed = errors.New("redact: policy malformed")

	// ErrDictionaryLoad: a vocabulary file is missing or malformed.
	// Fatal at startup; non-fatal at runtime reload (previous dictionary
	// kept, warning logged by the caller of Reload).
	ErrDictionaryLoad = errors.New("redact: dictionary load failed")

	// ErrFilterInternal: a single filter raised an unexpected error.
	// Contained at the coordinator; recorded in the report, never
	// returned from the top-level Redact call.
	ErrFilterInternal = errors.New("redact: filter internal error")

	// ErrTimeout: per-document deadline exceeded. The document's result
	// is marked failed; no partial redaction is emitted.
	ErrTimeout = errors.New("redact: per-document deadline exceeded")

	// ErrApplierOffset: invariant violation — a surviving span has
	// offsets outside the document. Treated as fatal; diagnostics
	// include the offending span via fmt.Errorf wrapping.
	ErrApplierOffset = errors.New("redact: span offset outside document")
)
