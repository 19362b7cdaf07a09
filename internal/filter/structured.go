package filter

import (
	"context"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// structuredFilters returns the regex/DFA filter family of spec.md §4.2.
func structuredFilters() []Filter {
	return []Filter{
		ssnFilter{},
		phoneFaxFilter{},
		emailFilter{},
		zipFilter{},
		creditCardFilter{},
		npiFilter{},
		deaFilter{},
		mrnFilter{},
		ipv4Filter{},
		ipv6Filter{},
		urlFilter{},
		dateFilter{},
		ageFilter{},
	}
}

func emit(out *[]span.Span, doc span.Document, start, end int, ft phitype.FilterType, confidence float64, pattern string) {
	s := span.NewFromMatch(doc.Text[start:end], start, end, ft, confidence)
	s.Pattern = pattern
	s.Window = wordWindow(doc.Text, start, end, contextWindowTokens)
	*out = append(*out, s)
}

// --- SSN -------------------------------------------------------------

var ssnPattern = regexp.MustCompile(`\b(\d{3})[- .]?(\d{2})[- .]?(\d{4})\b`)

type ssnFilter struct{}

func (ssnFilter) Name() string                { return "ssn" }
func (ssnFilter) Type() phitype.FilterType    { return phitype.SSN }
func (ssnFilter) Priority() int               { return phitype.Priority(phitype.SSN) }
func (ssnFilter) ParallelSafe() bool          { return true }
func (ssnFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range ssnPattern.FindAllStringSubmatchIndex(doc.Text, -1) {
		area := doc.Text[m[2]:m[3]]
		group := doc.Text[m[4]:m[5]]
		serial := doc.Text[m[6]:m[7]]
		if !validSSNArea(area) || group == "00" || serial == "0000" {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.SSN, 0.9, "ssn_pattern")
	}
	return out, nil
}

func validSSNArea(area string) bool {
	if area == "000" || area == "666" {
		return false
	}
	return area[0] != '9'
}

// --- Phone / Fax -------------------------------------------------------

var phonePattern = regexp.MustCompile(`\b(?:\+?1[-. ]?)?\(?([2-9]\d{2})\)?[-. ]?(\d{3})[-. ]?(\d{4})\b`)

type phoneFaxFilter struct{}

func (phoneFaxFilter) Name() string             { return "phone_fax" }
func (phoneFaxFilter) Type() phitype.FilterType { return phitype.Phone }
func (phoneFaxFilter) Priority() int            { return phitype.Priority(phitype.Phone) }
func (phoneFaxFilter) ParallelSafe() bool       { return true }
func (phoneFaxFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range phonePattern.FindAllStringIndex(doc.Text, -1) {
		ft := phitype.Phone
		pattern := "phone_pattern"
		if nearbyKeyword(doc.Text, m[0], m[1], 25, "fax") {
			ft = phitype.Fax
			pattern = "fax_pattern"
		}
		emit(&out, doc, m[0], m[1], ft, 0.85, pattern)
	}
	return out, nil
}

// nearbyKeyword reports whether keyword appears case-insensitively within
// radius bytes before start or after end.
func nearbyKeyword(text string, start, end, radius int, keyword string) bool {
	lo := clampInt(start-radius, 0, len(text))
	hi := clampInt(end+radius, 0, len(text))
	return strings.Contains(strings.ToLower(text[lo:hi]), keyword)
}

// --- Email ---------------------------------------------------------

var emailPattern = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)

type emailFilter struct{}

func (emailFilter) Name() string             { return "email" }
func (emailFilter) Type() phitype.FilterType { return phitype.Email }
func (emailFilter) Priority() int            { return phitype.Priority(phitype.Email) }
func (emailFilter) ParallelSafe() bool       { return true }
func (emailFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range emailPattern.FindAllStringIndex(doc.Text, -1) {
		emit(&out, doc, m[0], m[1], phitype.Email, 0.95, "email_pattern")
	}
	return out, nil
}

// --- ZIP code --------------------------------------------------------

var zipPattern = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

type zipFilter struct{}

func (zipFilter) Name() string             { return "zip" }
func (zipFilter) Type() phitype.FilterType { return phitype.ZipCode }
func (zipFilter) Priority() int            { return phitype.Priority(phitype.ZipCode) }
func (zipFilter) ParallelSafe() bool       { return true }
func (zipFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	// ZIP overlapping a structured PHONE match (e.g. the last four digits
	// of "555-123-4567") is resolved downstream: PHONE outranks ZIPCODE
	// in both priority and specificity, and the resolver's containment
	// rule lets the longer, higher-ranked phone span win without any
	// special-casing here (spec.md §4.2's "must not be the last 4 digits
	// of a phone number already captured" boundary case).
	var out []span.Span
	for _, m := range zipPattern.FindAllStringIndex(doc.Text, -1) {
		emit(&out, doc, m[0], m[1], phitype.ZipCode, 0.6, "zip_pattern")
	}
	return out, nil
}

// --- Credit card (Luhn) ----------------------------------------------

var creditCardPattern = regexp.MustCompile(`\b(?:\d[ -]?){13,19}\b`)

type creditCardFilter struct{}

func (creditCardFilter) Name() string             { return "credit_card" }
func (creditCardFilter) Type() phitype.FilterType { return phitype.CreditCard }
func (creditCardFilter) Priority() int            { return phitype.Priority(phitype.CreditCard) }
func (creditCardFilter) ParallelSafe() bool       { return true }
func (creditCardFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range creditCardPattern.FindAllStringIndex(doc.Text, -1) {
		raw := doc.Text[m[0]:m[1]]
		digits := stripNonDigits(raw)
		if len(digits) < 13 || len(digits) > 19 || !luhnValid(digits) {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.CreditCard, 0.9, "credit_card_luhn")
	}
	return out, nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func luhnValid(digits string) bool {
	sum := 0
	alt := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if alt {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		alt = !alt
	}
	return sum%10 == 0
}

// --- NPI (context-keyword gated) --------------------------------------

var npiPattern = regexp.MustCompile(`\b\d{10}\b`)

type npiFilter struct{}

func (npiFilter) Name() string             { return "npi" }
func (npiFilter) Type() phitype.FilterType { return phitype.NPI }
func (npiFilter) Priority() int            { return phitype.Priority(phitype.NPI) }
func (npiFilter) ParallelSafe() bool       { return true }
func (npiFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range npiPattern.FindAllStringIndex(doc.Text, -1) {
		if !nearbyKeyword(doc.Text, m[0], m[1], 20, "npi") {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.NPI, 0.85, "npi_context_gated")
	}
	return out, nil
}

// --- MRN (context-keyword gated) --------------------------------------

var mrnPattern = regexp.MustCompile(`\b\d{6,10}\b`)

type mrnFilter struct{}

func (mrnFilter) Name() string             { return "mrn" }
func (mrnFilter) Type() phitype.FilterType { return phitype.MRN }
func (mrnFilter) Priority() int            { return phitype.Priority(phitype.MRN) }
func (mrnFilter) ParallelSafe() bool       { return true }
func (mrnFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range mrnPattern.FindAllStringIndex(doc.Text, -1) {
		if !nearbyKeyword(doc.Text, m[0], m[1], 20, "mrn") && !nearbyKeyword(doc.Text, m[0], m[1], 20, "medical record") {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.MRN, 0.85, "mrn_context_gated")
	}
	return out, nil
}

// --- DEA number (checksum validated) -----------------------------------

var deaPattern = regexp.MustCompile(`\b([A-Z]{2}\d{7})\b`)

type deaFilter struct{}

func (deaFilter) Name() string             { return "dea" }
func (deaFilter) Type() phitype.FilterType { return phitype.DEA }
func (deaFilter) Priority() int            { return phitype.Priority(phitype.DEA) }
func (deaFilter) ParallelSafe() bool       { return true }
func (deaFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range deaPattern.FindAllStringIndex(doc.Text, -1) {
		code := doc.Text[m[0]:m[1]]
		if !deaChecksumValid(code) {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.DEA, 0.9, "dea_checksum")
	}
	return out, nil
}

// deaChecksumValid implements the standard DEA registration number
// validator: sum digits 1,3,5 plus twice the sum of digits 2,4,6; the
// last digit of that total must equal digit 7.
func deaChecksumValid(code string) bool {
	if len(code) != 9 {
		return false
	}
	digits := code[2:]
	if len(digits) != 7 {
		return false
	}
	odd := int(digits[0]-'0') + int(digits[2]-'0') + int(digits[4]-'0')
	even := int(digits[1]-'0') + int(digits[3]-'0') + int(digits[5]-'0')
	total := odd + 2*even
	check := int(digits[6] - '0')
	return total%10 == check
}

// --- IPv4 / IPv6 --------------------------------------------------------

var ipv4Pattern = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

type ipv4Filter struct{}

func (ipv4Filter) Name() string             { return "ipv4" }
func (ipv4Filter) Type() phitype.FilterType { return phitype.IP }
func (ipv4Filter) Priority() int            { return phitype.Priority(phitype.IP) }
func (ipv4Filter) ParallelSafe() bool       { return true }
func (ipv4Filter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range ipv4Pattern.FindAllStringIndex(doc.Text, -1) {
		candidate := doc.Text[m[0]:m[1]]
		ip := net.ParseIP(candidate)
		if ip == nil || ip.To4() == nil {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.IP, 0.85, "ipv4_pattern")
	}
	return out, nil
}

var ipv6Candidate = regexp.MustCompile(`\b[0-9a-fA-F:]{2,45}\b`)

type ipv6Filter struct{}

func (ipv6Filter) Name() string             { return "ipv6" }
func (ipv6Filter) Type() phitype.FilterType { return phitype.IP }
func (ipv6Filter) Priority() int            { return phitype.Priority(phitype.IP) }
func (ipv6Filter) ParallelSafe() bool       { return true }
func (ipv6Filter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range ipv6Candidate.FindAllStringIndex(doc.Text, -1) {
		candidate := doc.Text[m[0]:m[1]]
		if !strings.Contains(candidate, ":") {
			continue
		}
		ip := net.ParseIP(candidate)
		if ip == nil || ip.To4() != nil {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.IP, 0.85, "ipv6_pattern")
	}
	return out, nil
}

// --- URL ---------------------------------------------------------------

var urlPattern = regexp.MustCompile(`\b(?:https?|ftp)://[^\s<>"']+|\bwww\.[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}[^\s<>"']*`)

type urlFilter struct{}

func (urlFilter) Name() string             { return "url" }
func (urlFilter) Type() phitype.FilterType { return phitype.URL }
func (urlFilter) Priority() int            { return phitype.Priority(phitype.URL) }
func (urlFilter) ParallelSafe() bool       { return true }
func (urlFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range urlPattern.FindAllStringIndex(doc.Text, -1) {
		candidate := doc.Text[m[0]:m[1]]
		toCheck := candidate
		if !strings.Contains(candidate, "://") {
			toCheck = "http://" + candidate
		}
		u, err := url.Parse(toCheck)
		if err != nil || u.Host == "" {
			continue
		}
		emit(&out, doc, m[0], m[1], phitype.URL, 0.8, "url_pattern")
	}
	return out, nil
}

// --- Date ---------------------------------------------------------------

var (
	isoDatePattern   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	usDatePattern    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)
	textualDateMonth = regexp.MustCompile(`\b\d{1,2} (January|February|March|April|May|June|July|August|September|October|November|December) \d{4}\b`)
)

type dateFilter struct{}

func (dateFilter) Name() string             { return "date" }
func (dateFilter) Type() phitype.FilterType { return phitype.Date }
func (dateFilter) Priority() int            { return phitype.Priority(phitype.Date) }
func (dateFilter) ParallelSafe() bool       { return true }
func (dateFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range isoDatePattern.FindAllStringIndex(doc.Text, -1) {
		if _, err := time.Parse("2006-01-02", doc.Text[m[0]:m[1]]); err == nil {
			emit(&out, doc, m[0], m[1], phitype.Date, 0.9, "date_iso")
		}
	}
	for _, m := range usDatePattern.FindAllStringIndex(doc.Text, -1) {
		raw := doc.Text[m[0]:m[1]]
		if validUSDate(raw) {
			emit(&out, doc, m[0], m[1], phitype.Date, 0.85, "date_us_slash")
		}
	}
	for _, m := range textualDateMonth.FindAllStringIndex(doc.Text, -1) {
		if _, err := time.Parse("2 January 2006", doc.Text[m[0]:m[1]]); err == nil {
			emit(&out, doc, m[0], m[1], phitype.Date, 0.85, "date_textual")
		}
	}
	return out, nil
}

func validUSDate(raw string) bool {
	parts := strings.Split(raw, "/")
	if len(parts) != 3 {
		return false
	}
	layout := "1/2/2006"
	if len(parts[2]) == 2 {
		layout = "1/2/06"
	}
	_, err := time.Parse(layout, raw)
	return err == nil
}

// --- Age (>= 90 always PHI; younger ages are not identifiers alone) ----

var (
	ageYearOldPattern = regexp.MustCompile(`\b(\d{1,3})[- ](?:year|yr)s?[- ]old\b`)
	ageLabelPattern   = regexp.MustCompile(`(?i)\bage[:\s]+(\d{1,3})\b`)
)

type ageFilter struct{}

func (ageFilter) Name() string             { return "age" }
func (ageFilter) Type() phitype.FilterType { return phitype.Age90Plus }
func (ageFilter) Priority() int            { return phitype.Priority(phitype.Age90Plus) }
func (ageFilter) ParallelSafe() bool       { return true }
func (ageFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, pat := range []*regexp.Regexp{ageYearOldPattern, ageLabelPattern} {
		for _, m := range pat.FindAllStringSubmatchIndex(doc.Text, -1) {
			ageVal, err := strconv.Atoi(doc.Text[m[2]:m[3]])
			if err != nil {
				continue
			}
			// Safe Harbor: ages under 90 are not, by themselves, PHI
			// (spec.md §4.2); only the 90-plus bucket is redacted here.
			if ageVal < 90 {
				continue
			}
			emit(&out, doc, m[0], m[1], phitype.Age90Plus, 0.9, "age_90_plus")
		}
	}
	return out, nil
}
