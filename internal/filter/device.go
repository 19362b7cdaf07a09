package filter

import (
	"context"
	"regexp"

	"github.com/clinicalredact/phiredact/internal/clinicalcontext"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/vocab"
)

// deviceFilters covers the remaining Safe Harbor structured identifiers
// that are neither classic contact-detail patterns nor dictionary
// lookups: device/biometric/vehicle identifiers. Grounded on the fixed
// identifier-category patterns in
// other_examples/296b737c_..._bridge-pkg-pii-hipaa.go.go, which encodes
// the same DEVICE_ID / VIN / BIOMETRIC categories this Safe Harbor
// engine redacts.
func deviceFilters() []Filter {
	return []Filter{
		deviceIDFilter{},
		vehicleFilter{},
		biometricFilter{},
	}
}

// --- Device identifiers (serial numbers on medical equipment) ----------

var deviceIDPattern = regexp.MustCompile(`(?i)\b(?:device|serial)[ #:]*([A-Z0-9]{6,20})\b`)

type deviceIDFilter struct{}

func (deviceIDFilter) Name() string             { return "device_id" }
func (deviceIDFilter) Type() phitype.FilterType { return phitype.Device }
func (deviceIDFilter) Priority() int            { return phitype.Priority(phitype.Device) }
func (deviceIDFilter) ParallelSafe() bool       { return true }

func (deviceIDFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range deviceIDPattern.FindAllStringSubmatchIndex(doc.Text, -1) {
		emit(&out, doc, m[2], m[3], phitype.Device, 0.7, "device_id_pattern")
	}
	return out, nil
}

// --- Vehicle identification numbers (VIN: 17 alphanumeric, no I/O/Q) ---

var vinPattern = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)

type vehicleFilter struct{}

func (vehicleFilter) Name() string             { return "vehicle_vin" }
func (vehicleFilter) Type() phitype.FilterType { return phitype.Vehicle }
func (vehicleFilter) Priority() int            { return phitype.Priority(phitype.Vehicle) }
func (vehicleFilter) ParallelSafe() bool       { return true }

func (vehicleFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range vinPattern.FindAllStringIndex(doc.Text, -1) {
		emit(&out, doc, m[0], m[1], phitype.Vehicle, 0.75, "vin_pattern")
	}
	return out, nil
}

// --- Biometric identifiers (explicit labeled values only) --------------

var biometricPattern = regexp.MustCompile(`(?i)\b(?:fingerprint|retina(?:l)? scan|voiceprint|iris scan)(?:[ #:]*id\b)?[ #:]*([A-Za-z0-9-]{4,32})\b`)

type biometricFilter struct{}

func (biometricFilter) Name() string             { return "biometric" }
func (biometricFilter) Type() phitype.FilterType { return phitype.Biometric }
func (biometricFilter) Priority() int            { return phitype.Priority(phitype.Biometric) }
func (biometricFilter) ParallelSafe() bool       { return true }

func (biometricFilter) Detect(_ context.Context, doc span.Document, _ *vocab.Set, _ *clinicalcontext.Context) ([]span.Span, error) {
	var out []span.Span
	for _, m := range biometricPattern.FindAllStringIndex(doc.Text, -1) {
		emit(&out, doc, m[0], m[1], phitype.Biometric, 0.7, "biometric_label_pattern")
	}
	return out, nil
}
