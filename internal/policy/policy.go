// Package policy defines the per-request redaction configuration of
// spec.md §3/§6: which identifier types are active, how each is replaced,
// and whether the context-aware filter family runs at all.
//
// A Policy is read-only once built — it is shared, unmutated, across every
// filter, the pruner, the calibrator, and the applier for the lifetime of
// one Redact/RedactBatch call.
package policy

import (
	"fmt"
	"strings"

	"github.com/clinicalredact/phiredact/internal/phitype"
)

// ReplacementStyle controls the default placeholder shape for types with
// no explicit per-type override.
type ReplacementStyle string

// The three replacement styles of spec.md §6.
const (
	StyleBrackets  ReplacementStyle = "brackets"
	StyleAsterisks ReplacementStyle = "asterisks"
	StyleEmpty     ReplacementStyle = "empty"
)

// IdentifierPolicy is the per-type override of spec.md §6
// ("identifiers[type]: {enabled, replacement}").
type IdentifierPolicy struct {
	Enabled     bool
	Replacement string // empty means "use the style default for this type"
}

// Policy is the full per-request configuration.
type Policy struct {
	ReplacementStyle      ReplacementStyle
	Identifiers           map[phitype.FilterType]IdentifierPolicy
	ContextFiltersEnabled bool
}

// Default returns a Policy with every known type enabled, bracket-style
// placeholders, and context-aware filters on.
func Default() *Policy {
	ids := make(map[phitype.FilterType]IdentifierPolicy, len(phitype.All()))
	for _, t := range phitype.All() {
		ids[t] = IdentifierPolicy{Enabled: true}
	}
	return &Policy{
		ReplacementStyle:      StyleBrackets,
		Identifiers:           ids,
		ContextFiltersEnabled: true,
	}
}

// New builds a Policy from the style plus enabled/disabled type lists of
// spec.md §6. enabledTypes, if non-empty, is the exclusive active set;
// disabledTypes then subtracts from it (or from the full default set if
// enabledTypes is empty). Unknown type strings are rejected by the caller
// (config layer) before reaching here — New itself is permissive so tests
// can exercise edge cases directly.
func New(style ReplacementStyle, enabledTypes, disabledTypes []phitype.FilterType, contextFiltersEnabled bool) *Policy {
	p := Default()
	p.ReplacementStyle = style
	p.ContextFiltersEnabled = contextFiltersEnabled

	if len(enabledTypes) > 0 {
		for t := range p.Identifiers {
			p.Identifiers[t] = IdentifierPolicy{Enabled: false}
		}
		for _, t := range enabledTypes {
			ip := p.Identifiers[t]
			ip.Enabled = true
			p.Identifiers[t] = ip
		}
	}
	for _, t := range disabledTypes {
		ip := p.Identifiers[t]
		ip.Enabled = false
		p.Identifiers[t] = ip
	}
	return p
}

// Enabled reports whether t is active under this policy. An unregistered
// type is treated as disabled.
func (p *Policy) Enabled(t phitype.FilterType) bool {
	ip, ok := p.Identifiers[t]
	return ok && ip.Enabled
}

// SetIdentifier installs an explicit per-type override, e.g. a custom
// replacement string.
func (p *Policy) SetIdentifier(t phitype.FilterType, ip IdentifierPolicy) {
	if p.Identifiers == nil {
		p.Identifiers = make(map[phitype.FilterType]IdentifierPolicy)
	}
	p.Identifiers[t] = ip
}

// bracketLabelOverrides renames a FilterType's default bracket-style label
// where the literal type name would read oddly as a placeholder — spec.md
// §8 scenario 5 expects an AGE_90_PLUS span to render as "[AGE]", not the
// mechanical "[AGE-90-PLUS]" strings.ReplaceAll would otherwise produce.
// This only changes the bracket-style label; an explicit per-type
// Replacement override or a non-bracket style still take precedence.
var bracketLabelOverrides = map[phitype.FilterType]string{
	phitype.Age90Plus: "AGE",
}

// Replacement returns the placeholder string for t, honoring an explicit
// per-type override before falling back to the policy's default style.
func (p *Policy) Replacement(t phitype.FilterType) string {
	if ip, ok := p.Identifiers[t]; ok && ip.Replacement != "" {
		return ip.Replacement
	}
	switch p.ReplacementStyle {
	case StyleAsterisks:
		return "****"
	case StyleEmpty:
		return ""
	default:
		label, ok := bracketLabelOverrides[t]
		if !ok {
			label = strings.ReplaceAll(string(t), "_", "-")
		}
		return fmt.Sprintf("[%s]", label)
	}
}

// Clone returns a deep copy so callers can derive a variant policy (spec.md
// §8 "Policy monotonicity" tests) without mutating a shared instance.
func (p *Policy) Clone() *Policy {
	ids := make(map[phitype.FilterType]IdentifierPolicy, len(p.Identifiers))
	for k, v := range p.Identifiers {
		ids[k] = v
	}
	return &Policy{
		ReplacementStyle:      p.ReplacementStyle,
		Identifiers:           ids,
		ContextFiltersEnabled: p.ContextFiltersEnabled,
	}
}
