package models

import "fmt"

// Corpus identifies one of the legal text collections the engine searches.
// Each corpus has its own similarity threshold and result cap.
type Corpus string

const (
	CorpusStatute     Corpus = "statute"
	CorpusCaseLaw     Corpus = "case_law"
	CorpusMethodology Corpus = "methodology"
)

// AllCorpora lists every corpus in stable order.
var AllCorpora = []Corpus{CorpusStatute, CorpusCaseLaw, CorpusMethodology}

// Valid reports whether c is a known corpus.
func (c Corpus) Valid() bool {
	switch c {
	case CorpusStatute, CorpusCaseLaw, CorpusMethodology:
		return true
	}
	return false
}

func (c Corpus) String() string {
	return string(c)
}

// ParseCorpus converts a string tag into a Corpus.
func ParseCorpus(s string) (Corpus, error) {
	c := Corpus(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown corpus: %q", s)
	}
	return c, nil
}
