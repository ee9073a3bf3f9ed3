package models

// CorpusConfig controls one corpus's contribution to a search.
type CorpusConfig struct {
	Enabled             bool    `json:"enabled"`
	MaxResults          int     `json:"max_results"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
}

// SearchConfig enumerates the per-corpus settings plus the global cap.
// The corpora are fixed fields rather than a keyed map so that an
// unsupported corpus cannot be configured.
type SearchConfig struct {
	Statutes        CorpusConfig `json:"statutes"`
	CaseLaw         CorpusConfig `json:"case_law"`
	Methodology     CorpusConfig `json:"methodology"`
	MaxTotalResults int          `json:"max_total_results"`
}

// DefaultSearchConfig returns the production retrieval settings.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Statutes:        CorpusConfig{Enabled: true, MaxResults: 5, SimilarityThreshold: 0.72},
		CaseLaw:         CorpusConfig{Enabled: true, MaxResults: 5, SimilarityThreshold: 0.70},
		Methodology:     CorpusConfig{Enabled: true, MaxResults: 3, SimilarityThreshold: 0.65},
		MaxTotalResults: 10,
	}
}

// ForCorpus returns the settings that apply to the given corpus.
func (c SearchConfig) ForCorpus(corpus Corpus) CorpusConfig {
	switch corpus {
	case CorpusStatute:
		return c.Statutes
	case CorpusCaseLaw:
		return c.CaseLaw
	case CorpusMethodology:
		return c.Methodology
	}
	return CorpusConfig{}
}
