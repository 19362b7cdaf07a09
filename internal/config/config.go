// Package config loads and holds all redaction engine configuration.
// Settings are layered: defaults → redact-config.json → environment
// variables (env vars win) — the same three-tier shape the teacher's
// proxy config used, retargeted from proxy/TLS/upstream settings to
// redaction policy, vocabulary, worker, and cache settings.
package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clinicalredact/phiredact/internal/calibrator"
	"github.com/clinicalredact/phiredact/internal/phitype"
	"github.com/clinicalredact/phiredact/internal/policy"
)

// Config holds the full engine configuration.
type Config struct {
	ReplacementStyle      string   `json:"replacementStyle"` // "brackets" | "asterisks" | "empty"
	EnabledTypes          []string `json:"enabledTypes"`     // empty means "every known type"
	DisabledTypes         []string `json:"disabledTypes"`
	ContextFiltersEnabled bool     `json:"contextFiltersEnabled"`
	OCRTolerant           bool     `json:"ocrTolerant"`

	// PerTypeReplacements overrides the style default for specific types,
	// e.g. {"SSN": "***-**-****"}.
	PerTypeReplacements map[string]string `json:"perTypeReplacements"`

	// ThresholdOverrides overrides DefaultThresholdTable entries, keyed
	// "PROFILE:FILTER_TYPE" -> minimum confidence, e.g. "FORM:NAME": 0.7.
	ThresholdOverrides map[string]float64 `json:"thresholdOverrides"`

	VocabDir       string `json:"vocabDir"`
	TokenCacheFile string `json:"tokenCacheFile"` // path to bbolt persistent cache; empty = in-memory only
	TokenCacheSize int    `json:"tokenCacheSize"` // S3-FIFO capacity; 0 = no provider cache wired

	Workers            int `json:"workers"`            // 0 = runtime.GOMAXPROCS(0)
	PerDocumentTimeout int `json:"perDocumentTimeout"` // milliseconds; 0 = no deadline

	LogLevel string `json:"logLevel"`
}

// Load returns config with defaults overridden by redact-config.json and
// environment variables, in that order.
func Load() *Config {
	cfg := defaults()
	loadFile(cfg, "redact-config.json")
	loadEnv(cfg)
	return cfg
}

func defaults() *Config {
	return &Config{
		ReplacementStyle:      "brackets",
		ContextFiltersEnabled: true,
		OCRTolerant:           false,
		VocabDir:              "vocab",
		TokenCacheFile:        "",
		TokenCacheSize:        10000,
		Workers:               0,
		PerDocumentTimeout:    5000,
		LogLevel:              "info",
	}
}

// Timeout returns PerDocumentTimeout as a time.Duration, or 0 (no
// deadline) when unset.
func (c *Config) Timeout() time.Duration {
	if c.PerDocumentTimeout <= 0 {
		return 0
	}
	return time.Duration(c.PerDocumentTimeout) * time.Millisecond
}

// Policy builds a policy.Policy from the enabled/disabled type lists and
// per-type replacement overrides. An unrecognized type name is skipped
// rather than treated as fatal, since Load has no caller-supplied
// failure channel; a caller that wants hard validation failure should
// check phitype.Valid over its own raw type list before calling Load.
// A non-empty EnabledTypes list that names no known type enables no type.
func (c *Config) Policy() *policy.Policy {
	style := policy.StyleBrackets
	switch c.ReplacementStyle {
	case "asterisks":
		style = policy.StyleAsterisks
	case "empty":
		style = policy.StyleEmpty
	}

	enabled := parseTypes(c.EnabledTypes)
	p := policy.New(style, enabled, parseTypes(c.DisabledTypes), c.ContextFiltersEnabled)
	if len(c.EnabledTypes) > 0 && len(enabled) == 0 {
		for ft, ip := range p.Identifiers {
			ip.Enabled = false
			p.Identifiers[ft] = ip
		}
	}
	for name, replacement := range c.PerTypeReplacements {
		ft := phitype.FilterType(strings.ToUpper(name))
		if !phitype.Valid(ft) {
			continue
		}
		ip := p.Identifiers[ft]
		ip.Replacement = replacement
		p.SetIdentifier(ft, ip)
	}
	return p
}

// ThresholdTable builds a calibrator.ThresholdTable from the built-in
// defaults plus ThresholdOverrides.
func (c *Config) ThresholdTable() calibrator.ThresholdTable {
	t := calibrator.DefaultThresholdTable()
	for key, v := range c.ThresholdOverrides {
		parts := strings.SplitN(key, ":", 2)
		if len(parts) != 2 {
			continue
		}
		profile := calibrator.DocumentProfile(strings.ToUpper(parts[0]))
		ft := phitype.FilterType(strings.ToUpper(parts[1]))
		if !phitype.Valid(ft) {
			continue
		}
		t = t.WithOverride(profile, ft, v)
	}
	return t
}

func parseTypes(names []string) []phitype.FilterType {
	out := make([]phitype.FilterType, 0, len(names))
	for _, n := range names {
		ft := phitype.FilterType(strings.ToUpper(n))
		if phitype.Valid(ft) {
			out = append(out, ft)
		}
	}
	return out
}

func loadFile(cfg *Config, path string) {
	data, err := os.ReadFile(path) //nolint:gosec // controlled config file path, not user input
	if err != nil {
		return // file is optional
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Printf("[CONFIG] Warning: could not parse %s: %v", path, err)
	} else {
		log.Printf("[CONFIG] Loaded %s", path)
	}
}

func loadEnv(cfg *Config) {
	if v := os.Getenv("REDACT_REPLACEMENT_STYLE"); v != "" {
		cfg.ReplacementStyle = v
	}
	if v := os.Getenv("REDACT_ENABLED_TYPES"); v != "" {
		cfg.EnabledTypes = strings.Split(v, ",")
	}
	if v := os.Getenv("REDACT_DISABLED_TYPES"); v != "" {
		cfg.DisabledTypes = strings.Split(v, ",")
	}
	if v := os.Getenv("REDACT_CONTEXT_FILTERS_ENABLED"); v == "false" {
		cfg.ContextFiltersEnabled = false
	}
	if v := os.Getenv("REDACT_OCR_TOLERANT"); v == "true" {
		cfg.OCRTolerant = true
	}
	if v := os.Getenv("REDACT_VOCAB_DIR"); v != "" {
		cfg.VocabDir = v
	}
	if v := os.Getenv("REDACT_TOKEN_CACHE_FILE"); v != "" {
		cfg.TokenCacheFile = v
	}
	if v := os.Getenv("REDACT_TOKEN_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TokenCacheSize = n
		}
	}
	if v := os.Getenv("REDACT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("REDACT_PER_DOCUMENT_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.PerDocumentTimeout = n
		}
	}
	if v := os.Getenv("REDACT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}
