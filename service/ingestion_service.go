package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sachalbs/mouselaw-prod-sub000/embedding"
	"github.com/sachalbs/mouselaw-prod-sub000/models"
	"github.com/sachalbs/mouselaw-prod-sub000/repository"

	"github.com/google/uuid"
)

const (
	// DefaultBatchSize is the number of pending entities selected per batch.
	DefaultBatchSize = 50
	// DefaultTransientRetries bounds retries of network/5xx failures per entity.
	DefaultTransientRetries = 3
	// DefaultTransientDelay is the fixed pause between transient retries.
	DefaultTransientDelay = time.Second
)

// IngestionStore is the store surface the pipeline needs.
// *repository.LegalEntityRepository implements it.
type IngestionStore interface {
	ListPending(ctx context.Context, corpus models.Corpus, after repository.PendingCursor, limit int) ([]models.LegalEntity, error)
	UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float64) error
	CountByCorpus(ctx context.Context, corpus models.Corpus) (repository.CorpusCounts, error)
}

// IngestionResult summarizes one pipeline run.
type IngestionResult struct {
	Embedded int
	Failed   int
	Skipped  int
}

// IngestionPipeline embeds every pending entity of a corpus, one
// rate-limited API call at a time. Vectors are persisted per entity, so
// a crash mid-batch leaves only unfinished entities pending and a rerun
// picks up exactly where the previous run stopped: the pipeline's
// selection query (embedding IS NULL) is the resume mechanism, there is
// no checkpoint file.
type IngestionPipeline struct {
	store            IngestionStore
	embedder         Embedder
	limiter          Limiter
	batchSize        int
	transientRetries int
	transientDelay   time.Duration
	logger           *slog.Logger
}

// IngestionOption is a functional option for IngestionPipeline
type IngestionOption func(*IngestionPipeline)

// IngestionWithStore sets the entity store
func IngestionWithStore(store IngestionStore) IngestionOption {
	return func(p *IngestionPipeline) {
		p.store = store
	}
}

// IngestionWithEmbedder sets the embedding client
func IngestionWithEmbedder(embedder Embedder) IngestionOption {
	return func(p *IngestionPipeline) {
		p.embedder = embedder
	}
}

// IngestionWithLimiter sets the shared rate limiter
func IngestionWithLimiter(limiter Limiter) IngestionOption {
	return func(p *IngestionPipeline) {
		p.limiter = limiter
	}
}

// IngestionWithBatchSize sets the batch size
func IngestionWithBatchSize(n int) IngestionOption {
	return func(p *IngestionPipeline) {
		p.batchSize = n
	}
}

// IngestionWithTransientRetries sets the per-entity retry budget and delay
func IngestionWithTransientRetries(n int, delay time.Duration) IngestionOption {
	return func(p *IngestionPipeline) {
		p.transientRetries = n
		p.transientDelay = delay
	}
}

// IngestionWithLogger sets the logger
func IngestionWithLogger(logger *slog.Logger) IngestionOption {
	return func(p *IngestionPipeline) {
		p.logger = logger
	}
}

// NewIngestionPipeline creates a new ingestion pipeline
func NewIngestionPipeline(opts ...IngestionOption) *IngestionPipeline {
	p := &IngestionPipeline{
		batchSize:        DefaultBatchSize,
		transientRetries: DefaultTransientRetries,
		transientDelay:   DefaultTransientDelay,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run embeds all pending entities of one corpus. Failed entities are
// left pending for the next run; a credential rejection aborts the run
// since no further call can succeed. The returned counts are valid even
// when an error is returned.
func (p *IngestionPipeline) Run(ctx context.Context, corpus models.Corpus) (IngestionResult, error) {
	var result IngestionResult
	if p.store == nil {
		return result, errors.New("entity store not set")
	}
	if p.embedder == nil {
		return result, errors.New("embedding client not set")
	}
	if p.limiter == nil {
		return result, errors.New("rate limiter not set")
	}

	var cursor repository.PendingCursor
	batchNum := 0
	for {
		batch, err := p.store.ListPending(ctx, corpus, cursor, p.batchSize)
		if err != nil {
			return result, fmt.Errorf("failed to list pending entities: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		batchNum++

		for i := range batch {
			entity := &batch[i]
			cursor = repository.PendingCursor{Scope: entity.Scope, Identifier: entity.Identifier}

			if strings.TrimSpace(entity.Content) == "" {
				result.Skipped++
				p.logger.Warn("skipping entity with empty content",
					"corpus", corpus, "identifier", entity.Identifier)
				continue
			}

			vector, err := p.embedEntity(ctx, entity)
			if err != nil {
				if errors.Is(err, embedding.ErrAuth) || ctx.Err() != nil {
					return result, err
				}
				result.Failed++
				p.logger.Warn("entity left pending after retries",
					"corpus", corpus, "identifier", entity.Identifier, "error", err)
				continue
			}

			normalizeVector(vector)
			if err := p.store.UpdateEmbedding(ctx, entity.ID, vector); err != nil {
				result.Failed++
				p.logger.Warn("failed to persist embedding",
					"corpus", corpus, "identifier", entity.Identifier, "error", err)
				continue
			}
			result.Embedded++
		}

		p.logger.Info("ingestion checkpoint",
			"corpus", corpus,
			"batch", batchNum,
			"embedded", result.Embedded,
			"failed", result.Failed,
			"skipped", result.Skipped,
		)
	}

	if counts, err := p.store.CountByCorpus(ctx, corpus); err == nil {
		p.logger.Info("ingestion run complete",
			"corpus", corpus,
			"embedded_total", counts.Embedded,
			"pending_total", counts.Pending,
		)
	}

	return result, nil
}

// embedEntity calls the embedding API for one entity through the shared
// limiter. Throttling retries the same entity indefinitely with
// increasing backoff; transient failures retry a bounded number of
// times with a fixed delay before the entity is given up on.
func (p *IngestionPipeline) embedEntity(ctx context.Context, entity *models.LegalEntity) ([]float64, error) {
	text := EnrichedText(entity)

	attempts := 0
	for {
		if err := p.limiter.WaitTurn(ctx); err != nil {
			return nil, err
		}

		vector, err := p.embedder.Embed(ctx, text)
		if err == nil {
			p.limiter.ReportSuccess()
			return vector, nil
		}

		if errors.Is(err, embedding.ErrRateLimited) {
			delay, werr := p.limiter.ReportThrottled(ctx)
			if werr != nil {
				return nil, werr
			}
			p.logger.Debug("throttled by embedding provider",
				"identifier", entity.Identifier, "backoff", delay)
			continue
		}

		if errors.Is(err, embedding.ErrTransient) {
			attempts++
			if attempts >= p.transientRetries {
				return nil, err
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.transientDelay):
			}
			continue
		}

		// Auth errors and context cancellation propagate unchanged.
		return nil, err
	}
}

// EnrichedText builds the canonical embedding input for an entity:
// corpus-specific metadata tags followed by the raw content. The tags
// disambiguate short or context-free texts and measurably improve
// retrieval quality over embedding the bare content.
func EnrichedText(e *models.LegalEntity) string {
	var builder strings.Builder

	switch e.Corpus {
	case models.CorpusStatute:
		if e.Scope != "" {
			builder.WriteString(fmt.Sprintf("[STATUTE: %s art. %s]\n", e.Scope, e.Identifier))
		} else {
			builder.WriteString(fmt.Sprintf("[STATUTE: art. %s]\n", e.Identifier))
		}
	case models.CorpusCaseLaw:
		builder.WriteString(fmt.Sprintf("[DECISION: %s]\n", e.Identifier))
		if e.Date != nil {
			builder.WriteString(fmt.Sprintf("[DATE: %s]\n", e.Date.Format("2006-01-02")))
		}
	case models.CorpusMethodology:
		builder.WriteString(fmt.Sprintf("[METHODOLOGY: %s]\n", e.Identifier))
	}

	if e.Title != "" {
		builder.WriteString(fmt.Sprintf("[TITLE: %s]\n", e.Title))
	}
	if e.Category != "" {
		builder.WriteString(fmt.Sprintf("[CATEGORY: %s]\n", e.Category))
	}

	builder.WriteString("\n")
	builder.WriteString(e.Content)

	return builder.String()
}

// normalizeVector scales the vector to unit length before storage.
func normalizeVector(vector []float64) {
	var sumSq float64
	for _, v := range vector {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}

	norm := math.Sqrt(sumSq)
	for i := range vector {
		vector[i] /= norm
	}
}
