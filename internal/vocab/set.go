package vocab

import "path/filepath"

// Set bundles every named vocabulary the filter family consults
// (spec.md §6 "Separate files for first names, surnames, cities, states,
// field labels, medical phrases, structure words, geographic terms,
// section headings"). A Set is built once at startup and shared
// read-only by every filter and pruner strategy for the process
// lifetime.
type Set struct {
	FirstNames      *Dictionary
	Surnames        *Dictionary
	Cities          *Dictionary
	States          *Dictionary
	FieldLabels     *Dictionary
	MedicalPhrases  *Dictionary
	StructureWords  *Dictionary
	GeographicTerms *Dictionary
	SectionHeadings *Dictionary
}

// fileSpec names the vocabulary file backing one Set field and whether
// its dictionary needs the (more expensive) fuzzy index built.
type fileSpec struct {
	field string
	file  string
	fuzzy bool
}

var setFiles = []fileSpec{
	{"FirstNames", "first_names.txt", true},
	{"Surnames", "surnames.txt", true},
	{"Cities", "cities.txt", false},
	{"States", "states.txt", false},
	{"FieldLabels", "field_labels.txt", false},
	{"MedicalPhrases", "medical_phrases.txt", false},
	{"StructureWords", "structure_words.txt", false},
	{"GeographicTerms", "geographic_terms.txt", false},
	{"SectionHeadings", "section_headings.txt", false},
}

// LoadSet loads every vocabulary file in dir into a Set, one file per
// field named by setFiles. A missing or malformed file is a startup-fatal
// condition per spec.md §7 DictionaryLoad; LoadSet returns the first
// error encountered and lets the caller decide how to treat it (fatal at
// startup, logged-and-kept-previous at reload).
func LoadSet(dir string) (*Set, error) {
	s := &Set{}
	for _, spec := range setFiles {
		terms, err := LoadLines(filepath.Join(dir, spec.file))
		if err != nil {
			return nil, err
		}
		d := New(spec.field, terms, spec.fuzzy)
		switch spec.field {
		case "FirstNames":
			s.FirstNames = d
		case "Surnames":
			s.Surnames = d
		case "Cities":
			s.Cities = d
		case "States":
			s.States = d
		case "FieldLabels":
			s.FieldLabels = d
		case "MedicalPhrases":
			s.MedicalPhrases = d
		case "StructureWords":
			s.StructureWords = d
		case "GeographicTerms":
			s.GeographicTerms = d
		case "SectionHeadings":
			s.SectionHeadings = d
		}
	}
	return s, nil
}

// The *OrNil accessors let callers that hold a possibly-nil *Set (a
// pruner strategy running with no vocabulary configured, say) fetch one
// named dictionary without a repeated "if vocabs != nil" guard at every
// call site.
func (s *Set) FirstNamesOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.FirstNames
}

func (s *Set) SurnamesOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.Surnames
}

func (s *Set) CitiesOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.Cities
}

func (s *Set) StatesOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.States
}

func (s *Set) FieldLabelsOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.FieldLabels
}

func (s *Set) MedicalPhrasesOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.MedicalPhrases
}

func (s *Set) StructureWordsOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.StructureWords
}

func (s *Set) GeographicTermsOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.GeographicTerms
}

func (s *Set) SectionHeadingsOrNil() *Dictionary {
	if s == nil {
		return nil
	}
	return s.SectionHeadings
}

// NewSetForTesting builds a Set directly from in-memory term lists,
// skipping the filesystem, for use by package tests that don't want to
// depend on testdata/vocab layout.
func NewSetForTesting(firstNames, surnames, cities, states, fieldLabels, medicalPhrases, structureWords, geographicTerms, sectionHeadings []string) *Set {
	return &Set{
		FirstNames:      New("FirstNames", firstNames, true),
		Surnames:        New("Surnames", surnames, true),
		Cities:          New("Cities", cities, false),
		States:          New("States", states, false),
		FieldLabels:     New("FieldLabels", fieldLabels, false),
		MedicalPhrases:  New("MedicalPhrases", medicalPhrases, false),
		StructureWords:  New("StructureWords", structureWords, false),
		GeographicTerms: New("GeographicTerms", geographicTerms, false),
		SectionHeadings: New("SectionHeadings", sectionHeadings, false),
	}
}
