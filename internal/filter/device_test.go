package filter

import "testing"

func TestDeviceIDPattern(t *testing.T) {
	f := deviceIDFilter{}
	got := detectText(t, f, "Device: INS4492X77 implanted")
	if len(got) != 1 || got[0].Text != "INS4492X77" {
		t.Errorf("expected device id capture, got %+v", got)
	}
}

func TestVehicleVINPattern(t *testing.T) {
	f := vehicleFilter{}
	got := detectText(t, f, "VIN 1HGCM82633A004352 on record")
	if len(got) != 1 {
		t.Errorf("expected one VIN match, got %+v", got)
	}
}

func TestBiometricLabelPattern(t *testing.T) {
	f := biometricFilter{}
	got := detectText(t, f, "fingerprint ID: FX881122 captured")
	if len(got) != 1 {
		t.Errorf("expected one biometric match, got %+v", got)
	}
}

func TestBiometricPatternRequiresLabel(t *testing.T) {
	f := biometricFilter{}
	if got := detectText(t, f, "the patient's finger was injured"); len(got) != 0 {
		t.Errorf("unlabeled text should not match the biometric pattern, got %+v", got)
	}
}
