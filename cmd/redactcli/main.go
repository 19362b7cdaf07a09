// Command redactcli is a thin demonstration binary for the redaction
// engine. It reads one text file, runs it through redact.Engine.Redact,
// and prints the redacted text plus a JSON report to stdout.
//
// It opens no network listener — the engine's core text pipeline has no
// I/O of its own beyond loading vocabulary and an optional token cache
// file at startup.
//
// Usage:
//
//	redactcli -in document.txt
//	redactcli -in document.txt -report-only
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/clinicalredact/phiredact/internal/config"
	"github.com/clinicalredact/phiredact/internal/metrics"
	"github.com/clinicalredact/phiredact/internal/redactlog"
	"github.com/clinicalredact/phiredact/internal/span"
	"github.com/clinicalredact/phiredact/internal/tokencache"
	"github.com/clinicalredact/phiredact/internal/tokenprovider"
	"github.com/clinicalredact/phiredact/internal/vocab"

	"github.com/clinicalredact/phiredact"
)

func main() {
	inPath := flag.String("in", "", "path to the text file to redact")
	reportOnly := flag.Bool("report-only", false, "print only the JSON report, not the redacted text")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "redactcli: -in is required")
		os.Exit(2)
	}

	cfg := config.Load()
	printBanner(cfg)

	logger := redactlog.New("REDACT", cfg.LogLevel)
	m := metrics.New()

	v, err := vocab.LoadSet(cfg.VocabDir)
	if err != nil {
		log.Fatalf("[REDACT] vocabulary load failed: %v", err)
	}

	text, err := os.ReadFile(*inPath) //nolint:gosec // operator-supplied CLI path
	if err != nil {
		log.Fatalf("[REDACT] could not read %s: %v", *inPath, err)
	}

	engine := redact.New(cfg, v, logger, m)
	if cfg.TokenCacheSize > 0 {
		engine = engine.WithProvider(buildProvider(cfg))
	}

	doc := span.Document{ID: *inPath, Text: string(text)}
	result, err := engine.Redact(context.Background(), doc)
	if err != nil {
		log.Fatalf("[REDACT] redaction failed: %v", err)
	}

	if !*reportOnly {
		fmt.Println(result.Text)
		fmt.Println("---")
	}

	out, err := json.MarshalIndent(result.Report, "", "  ")
	if err != nil {
		log.Fatalf("[REDACT] report encode failed: %v", err)
	}
	fmt.Println(string(out))
}

func buildProvider(cfg *config.Config) tokenprovider.TokenProvider {
	var backing tokencache.PersistentCache = tokencache.NewMemory()
	if cfg.TokenCacheFile != "" {
		bolt, err := tokencache.NewBolt(cfg.TokenCacheFile)
		if err != nil {
			log.Printf("[REDACT] token cache file unavailable, falling back to memory-only: %v", err)
		} else {
			backing = bolt
		}
	}
	cached := tokencache.NewS3FIFO(backing, cfg.TokenCacheSize)
	return tokencache.NewProvider(cached)
}

func printBanner(cfg *config.Config) {
	fmt.Printf(`
╔══════════════════════════════════════════════════════╗
║          PHI Redaction Engine  (Go)                   ║
╚══════════════════════════════════════════════════════╝
  Replacement style   : %s
  Context filters      : %v
  OCR-tolerant mode     : %v
  Vocabulary directory  : %s
  Token cache size     : %d
  Per-document timeout : %dms
`, cfg.ReplacementStyle, cfg.ContextFiltersEnabled, cfg.OCRTolerant,
		cfg.VocabDir, cfg.TokenCacheSize, cfg.PerDocumentTimeout)
}
