package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/clinicalredact/phiredact/internal/phitype"
)

func TestDefaults(t *testing.T) {
	cfg := defaults()

	if cfg.ReplacementStyle != "brackets" {
		t.Errorf("ReplacementStyle: got %s, want brackets", cfg.ReplacementStyle)
	}
	if !cfg.ContextFiltersEnabled {
		t.Error("ContextFiltersEnabled should default to true")
	}
	if cfg.OCRTolerant {
		t.Error("OCRTolerant should default to false")
	}
	if cfg.VocabDir != "vocab" {
		t.Errorf("VocabDir: got %s, want vocab", cfg.VocabDir)
	}
	if cfg.TokenCacheSize != 10000 {
		t.Errorf("TokenCacheSize: got %d, want 10000", cfg.TokenCacheSize)
	}
	if cfg.PerDocumentTimeout != 5000 {
		t.Errorf("PerDocumentTimeout: got %d, want 5000", cfg.PerDocumentTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: got %s, want info", cfg.LogLevel)
	}
}

func TestTimeoutConvertsMillisecondsToDuration(t *testing.T) {
	cfg := defaults()
	cfg.PerDocumentTimeout = 2500
	if got := cfg.Timeout(); got != 2500*time.Millisecond {
		t.Errorf("Timeout() = %v, want 2.5s", got)
	}
}

func TestTimeoutZeroMeansNoDeadline(t *testing.T) {
	cfg := defaults()
	cfg.PerDocumentTimeout = 0
	if got := cfg.Timeout(); got != 0 {
		t.Errorf("Timeout() = %v, want 0", got)
	}
}

func TestPolicyAppliesEnabledAndDisabledTypes(t *testing.T) {
	cfg := defaults()
	cfg.EnabledTypes = []string{"ssn", "name"}
	cfg.DisabledTypes = []string{"name"}

	p := cfg.Policy()
	if !p.Enabled(phitype.SSN) {
		t.Error("SSN should be enabled")
	}
	if p.Enabled(phitype.Name) {
		t.Error("NAME should be disabled (in both enabled and disabled lists, disabled wins)")
	}
	if p.Enabled(phitype.Email) {
		t.Error("EMAIL should be disabled (not in the exclusive enabled set)")
	}
}

func TestPolicyIgnoresUnknownTypeNames(t *testing.T) {
	cfg := defaults()
	cfg.EnabledTypes = []string{"not_a_real_type"}
	p := cfg.Policy()
	if p.Enabled(phitype.SSN) {
		t.Error("an unknown enabled-type name should not leave every other type enabled")
	}
}

func TestPolicyAppliesPerTypeReplacementOverride(t *testing.T) {
	cfg := defaults()
	cfg.PerTypeReplacements = map[string]string{"SSN": "***-**-****"}
	p := cfg.Policy()
	if got := p.Replacement(phitype.SSN); got != "***-**-****" {
		t.Errorf("Replacement(SSN) = %q, want ***-**-****", got)
	}
}

func TestThresholdTableAppliesOverride(t *testing.T) {
	cfg := defaults()
	cfg.ThresholdOverrides = map[string]float64{"FORM:NAME": 0.9}
	table := cfg.ThresholdTable()
	if got := table.Threshold("FORM", phitype.Name); got != 0.9 {
		t.Errorf("Threshold(FORM, NAME) = %f, want 0.9", got)
	}
}

func TestThresholdTableIgnoresMalformedKey(t *testing.T) {
	cfg := defaults()
	cfg.ThresholdOverrides = map[string]float64{"not-a-valid-key": 0.9}
	// Should not panic; defaults remain in effect.
	_ = cfg.ThresholdTable()
}

func TestLoadEnv_ReplacementStyle(t *testing.T) {
	t.Setenv("REDACT_REPLACEMENT_STYLE", "asterisks")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.ReplacementStyle != "asterisks" {
		t.Errorf("ReplacementStyle: got %s, want asterisks", cfg.ReplacementStyle)
	}
}

func TestLoadEnv_EnabledTypes(t *testing.T) {
	t.Setenv("REDACT_ENABLED_TYPES", "SSN,NAME,EMAIL")
	cfg := defaults()
	loadEnv(cfg)
	if len(cfg.EnabledTypes) != 3 {
		t.Errorf("EnabledTypes: got %v, want 3 entries", cfg.EnabledTypes)
	}
}

func TestLoadEnv_DisableContextFilters(t *testing.T) {
	t.Setenv("REDACT_CONTEXT_FILTERS_ENABLED", "false")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.ContextFiltersEnabled {
		t.Error("ContextFiltersEnabled should be false")
	}
}

func TestLoadEnv_OCRTolerant(t *testing.T) {
	t.Setenv("REDACT_OCR_TOLERANT", "true")
	cfg := defaults()
	loadEnv(cfg)
	if !cfg.OCRTolerant {
		t.Error("OCRTolerant should be true")
	}
}

func TestLoadEnv_Workers(t *testing.T) {
	t.Setenv("REDACT_WORKERS", "4")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.Workers != 4 {
		t.Errorf("Workers: got %d, want 4", cfg.Workers)
	}
}

func TestLoadEnv_WorkersZeroIgnored(t *testing.T) {
	t.Setenv("REDACT_WORKERS", "0")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.Workers != 0 {
		t.Errorf("Workers: got %d, want 0 (explicit zero env value ignored, default kept)", cfg.Workers)
	}
}

func TestLoadEnv_InvalidTimeout_Ignored(t *testing.T) {
	t.Setenv("REDACT_PER_DOCUMENT_TIMEOUT_MS", "not-a-number")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.PerDocumentTimeout != 5000 {
		t.Errorf("PerDocumentTimeout: got %d, want 5000 (invalid env should be ignored)", cfg.PerDocumentTimeout)
	}
}

func TestLoadEnv_LogLevel(t *testing.T) {
	t.Setenv("REDACT_LOG_LEVEL", "debug")
	cfg := defaults()
	loadEnv(cfg)
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %s, want debug", cfg.LogLevel)
	}
}

func TestLoadFile_ValidJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	if err != nil {
		t.Fatal(err)
	}

	data, marshalErr := json.Marshal(map[string]any{
		"vocabDir":           "/etc/redact/vocab",
		"perDocumentTimeout": 9999,
		"ocrTolerant":        true,
	})
	if marshalErr != nil {
		t.Fatal(marshalErr)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := defaults()
	loadFile(cfg, f.Name())

	if cfg.VocabDir != "/etc/redact/vocab" {
		t.Errorf("VocabDir: got %s", cfg.VocabDir)
	}
	if cfg.PerDocumentTimeout != 9999 {
		t.Errorf("PerDocumentTimeout: got %d, want 9999", cfg.PerDocumentTimeout)
	}
	if !cfg.OCRTolerant {
		t.Error("OCRTolerant should be true after file load")
	}
}

func TestLoadFile_Missing_IsNoOp(t *testing.T) {
	cfg := defaults()
	loadFile(cfg, "/nonexistent/path/config.json")
	if cfg.VocabDir != "vocab" {
		t.Errorf("VocabDir changed unexpectedly: %s", cfg.VocabDir)
	}
}

func TestLoadFile_InvalidJSON_PreservesDefaults(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "config-bad-*.json")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{this is not json}"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	cfg := defaults()
	loadFile(cfg, f.Name())
	if cfg.VocabDir != "vocab" {
		t.Errorf("VocabDir changed on bad JSON: %s", cfg.VocabDir)
	}
}

func TestLoad_ReturnsNonNil(t *testing.T) {
	cfg := Load()
	if cfg == nil {
		t.Fatal("Load() returned nil")
	}
	if cfg.TokenCacheSize <= 0 {
		t.Errorf("TokenCacheSize should be positive, got %d", cfg.TokenCacheSize)
	}
}
