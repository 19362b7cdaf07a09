package phitype

import "testing"

func TestSpecificityTiers(t *testing.T) {
	if Specificity(SSN) != SpecificityStructured {
		t.Errorf("SSN should be structured")
	}
	if Specificity(Name) != SpecificityGeneric {
		t.Errorf("NAME should be generic")
	}
	if Specificity(Custom) != SpecificityCatchAll {
		t.Errorf("CUSTOM should be catch-all")
	}
	if Specificity(FilterType("unregistered")) != SpecificityCatchAll {
		t.Errorf("unregistered types should default to catch-all")
	}
}

func TestNameOutranksCustom(t *testing.T) {
	if Specificity(Name) <= Specificity(Custom) {
		t.Errorf("NAME (generic) must outrank CUSTOM (catch-all)")
	}
}

func TestPriorityMonotonicWithinStructuredTier(t *testing.T) {
	if Priority(SSN) <= Priority(Phone) {
		t.Errorf("SSN should have higher priority than PHONE within the structured tier")
	}
}

func TestSeverityOfTiersKnownTypes(t *testing.T) {
	if SeverityOf(MRN) != SeverityCritical {
		t.Errorf("MRN severity = %q, want critical", SeverityOf(MRN))
	}
	if SeverityOf(DEA) != SeverityHigh {
		t.Errorf("DEA severity = %q, want high", SeverityOf(DEA))
	}
	if SeverityOf(Date) != SeverityMedium {
		t.Errorf("DATE severity = %q, want medium", SeverityOf(Date))
	}
}

func TestSeverityOfDefaultsToMediumForUnregisteredType(t *testing.T) {
	if SeverityOf(FilterType("unregistered")) != SeverityMedium {
		t.Error("an unregistered type should default to medium severity")
	}
}

func TestValidRejectsUnknown(t *testing.T) {
	if Valid(FilterType("NOT_A_TYPE")) {
		t.Error("unregistered type should not be valid")
	}
	if !Valid(SSN) {
		t.Error("SSN should be valid")
	}
}

func TestAllCoversEveryPriorityEntry(t *testing.T) {
	all := All()
	seen := make(map[FilterType]bool, len(all))
	for _, ft := range all {
		seen[ft] = true
	}
	for ft := range priorityTable {
		if !seen[ft] {
			t.Errorf("All() missing %s", ft)
		}
	}
}
