// Package vocab implements the static, read-mostly lookup structures of
// spec.md §3/§6: case-folded term sets for names, places, and clinical
// vocabulary, loaded once at startup and shared read-only by every filter
// for the lifetime of the process.
//
// A Dictionary exposes three lookup strategies over the same term set:
// an O(1) exact case-folded hash check, a single Aho-Corasick automaton
// pass that finds every occurrence of every term in one linear scan of a
// document, and a deletion-neighborhood fuzzy index for near-miss terms
// (OCR noise, minor misspellings).
package vocab

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// Hit is one occurrence of a dictionary term found in a document by
// FindAll.
type Hit struct {
	Term  string // the dictionary entry that matched, case-folded
	Start int
	End   int
}

// Dictionary is a read-only, process-lifetime set of terms (spec.md §3
// "Dictionary: a set of case-folded terms plus optional deletion-
// neighborhood index for fuzzy lookup").
type Dictionary struct {
	name  string
	exact map[string]struct{}
	trie  *ahocorasick.Trie
	fuzzy *deletionIndex
	terms []string
}

// New builds a Dictionary from terms. Terms are case-folded; duplicates
// and blank lines are ignored. fuzzyEnabled controls whether the
// deletion-neighborhood index is built — it costs O(n * L) index entries
// for n terms of average length L, so callers skip it for large
// gazetteers (e.g. cities) where fuzzy lookup isn't required.
func New(name string, terms []string, fuzzyEnabled bool) *Dictionary {
	d := &Dictionary{
		name:  name,
		exact: make(map[string]struct{}, len(terms)),
	}
	seen := make(map[string]struct{}, len(terms))
	patterns := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		folded := strings.ToLower(t)
		d.exact[folded] = struct{}{}
		if _, ok := seen[folded]; ok {
			continue
		}
		seen[folded] = struct{}{}
		d.terms = append(d.terms, folded)
		patterns = append(patterns, folded)
	}

	if len(patterns) > 0 {
		d.trie = ahocorasick.NewTrieBuilder().AddStrings(patterns).Build()
	}
	if fuzzyEnabled {
		d.fuzzy = newDeletionIndex(d.terms, 2)
	}
	return d
}

// Name returns the dictionary's configured identity (e.g. "first_names").
func (d *Dictionary) Name() string { return d.name }

// Size returns the number of distinct terms.
func (d *Dictionary) Size() int { return len(d.terms) }

// Contains reports an exact, case-insensitive membership check.
func (d *Dictionary) Contains(term string) bool {
	_, ok := d.exact[strings.ToLower(strings.TrimSpace(term))]
	return ok
}

// FindAll scans text once with the Aho-Corasick automaton and returns
// every occurrence of every dictionary term, in document order. The scan
// is case-folded: text is lower-cased once up front, so returned offsets
// stay valid against the original (case is not length-preserving only
// for a handful of non-ASCII scripts, which this redaction engine does
// not target).
func (d *Dictionary) FindAll(text string) []Hit {
	if d.trie == nil {
		return nil
	}
	folded := strings.ToLower(text)
	matches := d.trie.MatchString(folded)
	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		start := int(m.Pos())
		end := start + len(m.Pattern())
		hits = append(hits, Hit{Term: m.Pattern(), Start: start, End: end})
	}
	return hits
}

// FuzzyMatch looks up word against the deletion-neighborhood index,
// confirming candidates with an exact edit-distance bound and a
// Jaro-Winkler similarity floor, per spec.md §4.2 ("Name dictionary: ...
// deletion neighborhood up to edit distance 2; Jaro-Winkler ≥ 0.88
// required"). It returns the best-scoring matching term and true, or
// ("", false) if nothing clears both gates.
func (d *Dictionary) FuzzyMatch(word string) (string, bool) {
	if d.fuzzy == nil {
		return "", false
	}
	return d.fuzzy.match(strings.ToLower(strings.TrimSpace(word)))
}

// LoadLines reads a vocabulary file: one term per line, blank lines and
// lines starting with '#' ignored (spec.md §6 "Vocabulary files: plain
// text, one term per line, case-insensitive").
func LoadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab: load %s: %w", path, err)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab: scan %s: %w", path, err)
	}
	return terms, nil
}
