package policy

import (
	"testing"

	"github.com/clinicalredact/phiredact/internal/phitype"
)

func TestDefaultReplacementFormat(t *testing.T) {
	p := Default()
	if got := p.Replacement(phitype.SSN); got != "[SSN]" {
		t.Errorf("Replacement(SSN) = %q, want [SSN]", got)
	}
	if got := p.Replacement(phitype.HealthPlan); got != "[HEALTH-PLAN]" {
		t.Errorf("Replacement(HEALTH_PLAN) = %q, want [HEALTH-PLAN]", got)
	}
}

func TestDefaultReplacementAgeOverride(t *testing.T) {
	p := Default()
	if got := p.Replacement(phitype.Age90Plus); got != "[AGE]" {
		t.Errorf("Replacement(AGE_90_PLUS) = %q, want [AGE]", got)
	}
}

func TestReplacementStyles(t *testing.T) {
	p := Default()
	p.ReplacementStyle = StyleAsterisks
	if got := p.Replacement(phitype.Name); got != "****" {
		t.Errorf("asterisks style = %q, want ****", got)
	}
	p.ReplacementStyle = StyleEmpty
	if got := p.Replacement(phitype.Name); got != "" {
		t.Errorf("empty style = %q, want empty string", got)
	}
}

func TestPerTypeOverrideWins(t *testing.T) {
	p := Default()
	p.SetIdentifier(phitype.Name, IdentifierPolicy{Enabled: true, Replacement: "XXXX"})
	if got := p.Replacement(phitype.Name); got != "XXXX" {
		t.Errorf("override Replacement = %q, want XXXX", got)
	}
}

func TestEnabledTypesRestrictsActiveSet(t *testing.T) {
	p := New(StyleBrackets, []phitype.FilterType{phitype.SSN}, nil, true)
	if !p.Enabled(phitype.SSN) {
		t.Error("SSN should be enabled")
	}
	if p.Enabled(phitype.Name) {
		t.Error("NAME should be disabled when not in enabledTypes")
	}
}

func TestDisabledTypesSubtracts(t *testing.T) {
	p := New(StyleBrackets, nil, []phitype.FilterType{phitype.Name}, true)
	if p.Enabled(phitype.Name) {
		t.Error("NAME should be disabled")
	}
	if !p.Enabled(phitype.SSN) {
		t.Error("SSN should remain enabled")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := Default()
	clone := p.Clone()
	clone.SetIdentifier(phitype.Name, IdentifierPolicy{Enabled: false})
	if !p.Enabled(phitype.Name) {
		t.Error("mutating the clone should not affect the original")
	}
}

func TestUnregisteredTypeDisabled(t *testing.T) {
	p := Default()
	if p.Enabled(phitype.FilterType("NOT_REAL")) {
		t.Error("unregistered type should be treated as disabled")
	}
}
