package filter

import (
	"context"
	"testing"

	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
)

func detectText(t *testing.T, f Filter, text string) []span.Span {
	t.Helper()
	doc := span.Document{ID: "t", Text: text}
	out, err := f.Detect(context.Background(), doc, nil, nil)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return out
}

func TestSSNValidAndInvalidAreas(t *testing.T) {
	f := ssnFilter{}
	if got := detectText(t, f, "SSN: 123-45-6789."); len(got) != 1 {
		t.Fatalf("expected 1 valid SSN, got %d", len(got))
	}
	for _, bad := range []string{"000-45-6789", "666-45-6789", "945-45-6789", "123-00-6789", "123-45-0000"} {
		if got := detectText(t, f, "SSN: "+bad+"."); len(got) != 0 {
			t.Errorf("expected %q to be rejected, got %+v", bad, got)
		}
	}
}

func TestSSNAcceptsVariousSeparators(t *testing.T) {
	f := ssnFilter{}
	for _, s := range []string{"123-45-6789", "123.45.6789", "123 45 6789", "123456789"} {
		if got := detectText(t, f, s); len(got) != 1 {
			t.Errorf("expected separator variant %q to match, got %d", s, len(got))
		}
	}
}

func TestPhoneRejectsSubAreaCode(t *testing.T) {
	f := phoneFaxFilter{}
	if got := detectText(t, f, "area code 100-555-1234 invalid"); len(got) != 0 {
		t.Errorf("area codes below 200 should be rejected, got %+v", got)
	}
}

func TestPhoneAcceptsStandardFormats(t *testing.T) {
	f := phoneFaxFilter{}
	for _, s := range []string{"(617) 555-0199", "617-555-0199", "+1 617 555 0199", "617.555.0199"} {
		got := detectText(t, f, "Call "+s+" now")
		if len(got) != 1 || got[0].FilterType != phitype.Phone {
			t.Errorf("expected a PHONE match for %q, got %+v", s, got)
		}
	}
}

func TestPhoneTaggedAsFaxNearKeyword(t *testing.T) {
	f := phoneFaxFilter{}
	got := detectText(t, f, "Fax: 617-555-0199")
	if len(got) != 1 || got[0].FilterType != phitype.Fax {
		t.Errorf("expected a FAX match near the word 'Fax', got %+v", got)
	}
}

func TestPhoneDoesNotMatchShortDeviceReadout(t *testing.T) {
	f := phoneFaxFilter{}
	if got := detectText(t, f, "Call Button: 555"); len(got) != 0 {
		t.Errorf("a bare 3-digit readout should never match the 10-digit phone pattern, got %+v", got)
	}
}

func TestEmailMatchesStandardAddress(t *testing.T) {
	f := emailFilter{}
	got := detectText(t, f, "contact jane.doe@example.com for info")
	if len(got) != 1 || got[0].Text != "jane.doe@example.com" {
		t.Errorf("expected one email match, got %+v", got)
	}
}

func TestZipMatchesFiveAndNineDigit(t *testing.T) {
	f := zipFilter{}
	if got := detectText(t, f, "zip 02139"); len(got) != 1 {
		t.Errorf("expected 5-digit ZIP match, got %+v", got)
	}
	if got := detectText(t, f, "zip 02139-1234"); len(got) != 1 || got[0].Text != "02139-1234" {
		t.Errorf("expected ZIP+4 match, got %+v", got)
	}
}

func TestCreditCardRequiresLuhn(t *testing.T) {
	f := creditCardFilter{}
	if got := detectText(t, f, "card 4111 1111 1111 1111"); len(got) != 1 {
		t.Errorf("expected valid Luhn test card to match, got %+v", got)
	}
	if got := detectText(t, f, "card 4111 1111 1111 1112"); len(got) != 0 {
		t.Errorf("expected Luhn-invalid card to be rejected, got %+v", got)
	}
}

func TestDEAChecksum(t *testing.T) {
	f := deaFilter{}
	// AB1234563: odd digits 1+3+5=9, even digits 2+4+6=12 => 9+24=33,
	// so the check digit (last) must be 3.
	if got := detectText(t, f, "DEA AB1234563 on file"); len(got) != 1 {
		t.Errorf("expected a valid DEA checksum to match, got %+v", got)
	}
	if got := detectText(t, f, "DEA AB1234569 on file"); len(got) != 0 {
		t.Errorf("expected an invalid DEA checksum to be rejected, got %+v", got)
	}
}

func TestNPIRequiresContextKeyword(t *testing.T) {
	f := npiFilter{}
	if got := detectText(t, f, "just a number 1234567890 here"); len(got) != 0 {
		t.Errorf("a bare 10-digit number without 'NPI' nearby should not match, got %+v", got)
	}
	if got := detectText(t, f, "NPI: 1234567890"); len(got) != 1 {
		t.Errorf("expected an NPI-labeled number to match, got %+v", got)
	}
}

func TestIPv4ValidatesOctetRange(t *testing.T) {
	f := ipv4Filter{}
	if got := detectText(t, f, "server at 192.168.1.10 ready"); len(got) != 1 {
		t.Errorf("expected valid IPv4 to match, got %+v", got)
	}
	if got := detectText(t, f, "server at 999.168.1.10 ready"); len(got) != 0 {
		t.Errorf("expected out-of-range octet to be rejected, got %+v", got)
	}
}

func TestIPv6MatchesCanonicalForm(t *testing.T) {
	f := ipv6Filter{}
	got := detectText(t, f, "address 2001:0db8:85a3:0000:0000:8a2e:0370:7334 noted")
	if len(got) != 1 {
		t.Errorf("expected one IPv6 match, got %+v", got)
	}
}

func TestURLRequiresSchemeOrWellFormedHost(t *testing.T) {
	f := urlFilter{}
	if got := detectText(t, f, "visit https://example.com/path for info"); len(got) != 1 {
		t.Errorf("expected scheme-prefixed URL to match, got %+v", got)
	}
	if got := detectText(t, f, "visit www.example.com for info"); len(got) != 1 {
		t.Errorf("expected www-prefixed host to match, got %+v", got)
	}
}

func TestDateFormats(t *testing.T) {
	f := dateFilter{}
	cases := []string{"2024-03-14", "03/14/2024", "14 March 2024"}
	for _, c := range cases {
		if got := detectText(t, f, "Seen on "+c+" for follow-up"); len(got) != 1 {
			t.Errorf("expected date %q to match, got %+v", c, got)
		}
	}
}

func TestDateRejectsImpossibleMonthDay(t *testing.T) {
	f := dateFilter{}
	if got := detectText(t, f, "seen on 2024-13-40 noted"); len(got) != 0 {
		t.Errorf("impossible ISO date should be rejected, got %+v", got)
	}
	if got := detectText(t, f, "seen on 32 March 2024 noted"); len(got) != 0 {
		t.Errorf("impossible day-of-month should be rejected, got %+v", got)
	}
}

func TestAgeNinetyPlusAlwaysFlagged(t *testing.T) {
	f := ageFilter{}
	if got := detectText(t, f, "a 94-year-old patient"); len(got) != 1 {
		t.Errorf("expected age 94 to be flagged, got %+v", got)
	}
	if got := detectText(t, f, "Age: 91 on file"); len(got) != 1 {
		t.Errorf("expected 'Age: 91' to be flagged, got %+v", got)
	}
}

func TestAgeUnderNinetyNotFlaggedAlone(t *testing.T) {
	f := ageFilter{}
	if got := detectText(t, f, "a 45-year-old patient"); len(got) != 0 {
		t.Errorf("ages under 90 should not be redacted on their own, got %+v", got)
	}
}
