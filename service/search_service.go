package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sachalbs/mouselaw-prod-sub000/models"
	"github.com/sachalbs/mouselaw-prod-sub000/repository"
)

// ErrEmptyQuery is returned when the search query is blank.
var ErrEmptyQuery = errors.New("search query is empty")

const excerptLength = 300

// SearchStore is the read side of the entity store used at query time.
// *repository.LegalEntityRepository implements it.
type SearchStore interface {
	SearchSimilar(ctx context.Context, corpus models.Corpus, embedding []float64, threshold float64, limit int) ([]repository.SimilarityMatch, error)
	FindByIdentifier(ctx context.Context, corpus models.Corpus, identifier string) ([]models.LegalEntity, error)
}

// Embedder produces a fixed-dimensionality vector for a text.
// *embedding.Client implements it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Limiter serializes access to the embedding endpoint.
// *embedding.RateLimiter implements it.
type Limiter interface {
	WaitTurn(ctx context.Context) error
	ReportThrottled(ctx context.Context) (time.Duration, error)
	ReportSuccess()
}

// SearchService answers a free-text legal question with a ranked,
// deduplicated list of sources drawn from every enabled corpus.
type SearchService struct {
	store    SearchStore
	embedder Embedder
	limiter  Limiter
	logger   *slog.Logger
}

// SearchServiceOption is a functional option for SearchService
type SearchServiceOption func(*SearchService)

// SearchWithStore sets the entity store
func SearchWithStore(store SearchStore) SearchServiceOption {
	return func(s *SearchService) {
		s.store = store
	}
}

// SearchWithEmbedder sets the embedding client
func SearchWithEmbedder(embedder Embedder) SearchServiceOption {
	return func(s *SearchService) {
		s.embedder = embedder
	}
}

// SearchWithLimiter sets the shared rate limiter
func SearchWithLimiter(limiter Limiter) SearchServiceOption {
	return func(s *SearchService) {
		s.limiter = limiter
	}
}

// SearchWithLogger sets the logger
func SearchWithLogger(logger *slog.Logger) SearchServiceOption {
	return func(s *SearchService) {
		s.logger = logger
	}
}

// NewSearchService creates a new search service
func NewSearchService(opts ...SearchServiceOption) *SearchService {
	s := &SearchService{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search classifies the query, runs the exact and similarity legs over
// every enabled corpus and fuses the results. Per-corpus failures
// degrade that corpus to zero results instead of failing the request:
// the caller sees a partial (possibly empty) source list, never a
// search-leg error.
func (s *SearchService) Search(ctx context.Context, query string, cfg models.SearchConfig) ([]models.SearchResult, error) {
	if s.store == nil {
		return nil, errors.New("entity store not set")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	identifiers := ExtractIdentifiers(query)

	// The original query always goes through semantic search too: an
	// identifier-anchored question still benefits from its context.
	queryVector := s.embedQuery(ctx, query)

	var resultSets [][]models.SearchResult
	for _, corpus := range models.AllCorpora {
		corpusCfg := cfg.ForCorpus(corpus)
		if !corpusCfg.Enabled {
			continue
		}

		set := s.searchCorpus(ctx, corpus, corpusCfg, identifiers, queryVector)
		resultSets = append(resultSets, set)
	}

	return FuseResults(resultSets, cfg.MaxTotalResults), nil
}

// embedQuery produces the query vector, or nil when embedding fails —
// the search then degrades to exact lookups only.
func (s *SearchService) embedQuery(ctx context.Context, query string) []float64 {
	if s.embedder == nil {
		return nil
	}

	if s.limiter != nil {
		if err := s.limiter.WaitTurn(ctx); err != nil {
			s.logger.Warn("query embedding skipped", "error", err)
			return nil
		}
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.logger.Warn("failed to embed query, semantic search skipped", "error", err)
		return nil
	}
	if s.limiter != nil {
		s.limiter.ReportSuccess()
	}

	return vector
}

// searchCorpus runs the exact and similarity legs for one corpus. Exact
// hits are always included regardless of the similarity threshold.
func (s *SearchService) searchCorpus(
	ctx context.Context,
	corpus models.Corpus,
	cfg models.CorpusConfig,
	identifiers []ExtractedIdentifier,
	queryVector []float64,
) []models.SearchResult {
	var results []models.SearchResult

	for _, id := range identifiers {
		entities, err := s.store.FindByIdentifier(ctx, corpus, id.Identifier)
		if err != nil {
			s.logger.Warn("exact lookup failed", "corpus", corpus, "identifier", id.Identifier, "error", err)
			continue
		}
		for _, e := range entities {
			results = append(results, models.SearchResult{
				EntityID:   e.ID,
				Corpus:     e.Corpus,
				Identifier: e.Identifier,
				Title:      e.Title,
				Excerpt:    excerpt(e.Content),
				Score:      1.0,
				MatchKind:  models.MatchExact,
			})
		}
	}

	if queryVector != nil {
		matches, err := s.store.SearchSimilar(ctx, corpus, queryVector, cfg.SimilarityThreshold, cfg.MaxResults)
		if err != nil {
			s.logger.Warn("similarity search failed", "corpus", corpus, "error", err)
			return results
		}
		for _, m := range matches {
			results = append(results, models.SearchResult{
				EntityID:   m.Entity.ID,
				Corpus:     m.Entity.Corpus,
				Identifier: m.Entity.Identifier,
				Title:      m.Entity.Title,
				Excerpt:    excerpt(m.Entity.Content),
				Score:      m.Similarity,
				MatchKind:  models.MatchSemantic,
			})
		}
	}

	return results
}

// excerpt returns the leading part of an entity's content for display.
func excerpt(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= excerptLength {
		return content
	}
	runes := []rune(content)
	return strings.TrimSpace(string(runes[:excerptLength])) + "…"
}
