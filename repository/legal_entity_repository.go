package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sachalbs/mouselaw-prod-sub000/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateEntity means an entity with the same (corpus, scope,
// identifier) already exists.
var ErrDuplicateEntity = errors.New("entity already exists")

// SimilarityMatch pairs an entity with its cosine similarity to a query.
type SimilarityMatch struct {
	Entity     models.LegalEntity
	Similarity float64
}

// PendingCursor is the keyset position of the last entity returned by
// ListPending, so the next page resumes after it.
type PendingCursor struct {
	Scope      string
	Identifier string
}

// CorpusCounts reports how many entities of a corpus are embedded vs pending.
type CorpusCounts struct {
	Embedded int64
	Pending  int64
}

// LegalEntityRepository handles database operations for legal entities
type LegalEntityRepository struct {
	db *pgxpool.Pool
}

// NewLegalEntityRepository creates a new legal entity repository
func NewLegalEntityRepository(db *pgxpool.Pool) *LegalEntityRepository {
	return &LegalEntityRepository{db: db}
}

// formatVector formats an embedding vector as a string for pgx
func formatVector(embedding []float64) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(embedding))
	for _, v := range embedding {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// SearchSimilar performs a nearest-neighbor query over one corpus.
// Only entities strictly above the similarity threshold are returned,
// ordered by cosine similarity descending, capped at limit.
func (r *LegalEntityRepository) SearchSimilar(
	ctx context.Context,
	corpus models.Corpus,
	embedding []float64,
	threshold float64,
	limit int,
) ([]SimilarityMatch, error) {
	if len(embedding) != models.EmbeddingDimensions {
		return nil, fmt.Errorf("embedding must be %d dimensions, got %d", models.EmbeddingDimensions, len(embedding))
	}

	vectorStr := formatVector(embedding)

	query := `
		SELECT
			id,
			corpus,
			scope,
			identifier,
			COALESCE(title, ''),
			COALESCE(category, ''),
			entity_date,
			content,
			1 - (embedding <=> $1::vector) AS similarity
		FROM legal_entities
		WHERE
			corpus = $2
			AND embedding IS NOT NULL
			AND 1 - (embedding <=> $1::vector) > $3
		ORDER BY
			embedding <=> $1::vector
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, vectorStr, corpus, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar entities: %w", err)
	}
	defer rows.Close()

	var matches []SimilarityMatch
	for rows.Next() {
		var m SimilarityMatch
		err := rows.Scan(
			&m.Entity.ID,
			&m.Entity.Corpus,
			&m.Entity.Scope,
			&m.Entity.Identifier,
			&m.Entity.Title,
			&m.Entity.Category,
			&m.Entity.Date,
			&m.Entity.Content,
			&m.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan similarity match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similarity matches: %w", err)
	}

	return matches, nil
}

// FindByIdentifier looks up entities by exact identifier within one
// corpus. Statute identifiers can exist in several codes, so more than
// one row may come back.
func (r *LegalEntityRepository) FindByIdentifier(
	ctx context.Context,
	corpus models.Corpus,
	identifier string,
) ([]models.LegalEntity, error) {
	query := `
		SELECT id, corpus, scope, identifier, COALESCE(title, ''), COALESCE(category, ''), entity_date, content
		FROM legal_entities
		WHERE corpus = $1 AND UPPER(identifier) = UPPER($2)
		ORDER BY scope, identifier`

	rows, err := r.db.Query(ctx, query, corpus, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities by identifier: %w", err)
	}
	defer rows.Close()

	var entities []models.LegalEntity
	for rows.Next() {
		var e models.LegalEntity
		err := rows.Scan(&e.ID, &e.Corpus, &e.Scope, &e.Identifier, &e.Title, &e.Category, &e.Date, &e.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}

	return entities, nil
}

// ListPending returns up to limit entities of one corpus that still have
// no embedding, ordered by (scope, identifier) and resuming after the
// cursor. The stable ordering is what makes ingestion runs reproducible.
func (r *LegalEntityRepository) ListPending(
	ctx context.Context,
	corpus models.Corpus,
	after PendingCursor,
	limit int,
) ([]models.LegalEntity, error) {
	query := `
		SELECT id, corpus, scope, identifier, COALESCE(title, ''), COALESCE(category, ''), entity_date, content
		FROM legal_entities
		WHERE
			corpus = $1
			AND embedding IS NULL
			AND (scope, identifier) > ($2, $3)
		ORDER BY scope, identifier
		LIMIT $4`

	rows, err := r.db.Query(ctx, query, corpus, after.Scope, after.Identifier, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending entities: %w", err)
	}
	defer rows.Close()

	var entities []models.LegalEntity
	for rows.Next() {
		var e models.LegalEntity
		err := rows.Scan(&e.ID, &e.Corpus, &e.Scope, &e.Identifier, &e.Title, &e.Category, &e.Date, &e.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending entity: %w", err)
		}
		entities = append(entities, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending entities: %w", err)
	}

	return entities, nil
}

// UpdateEmbedding writes the vector for a single entity. Each entity is
// persisted individually so an interrupted batch leaves only unfinished
// entities pending.
func (r *LegalEntityRepository) UpdateEmbedding(
	ctx context.Context,
	id uuid.UUID,
	embedding []float64,
) error {
	if len(embedding) != models.EmbeddingDimensions {
		return fmt.Errorf("embedding must be %d dimensions, got %d", models.EmbeddingDimensions, len(embedding))
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE legal_entities SET embedding = $2::vector WHERE id = $1`,
		id, formatVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entity %s not found", id)
	}

	return nil
}

// Create inserts a new entity with a null embedding (pending ingestion).
func (r *LegalEntityRepository) Create(ctx context.Context, entity *models.LegalEntity) error {
	query := `
		INSERT INTO legal_entities (
			id, corpus, scope, identifier, title, category, entity_date, content
		) VALUES (
			$1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8
		)`

	_, err := r.db.Exec(ctx, query,
		entity.ID, entity.Corpus, entity.Scope, entity.Identifier,
		entity.Title, entity.Category, entity.Date, entity.Content,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s/%s/%s", ErrDuplicateEntity, entity.Corpus, entity.Scope, entity.Identifier)
		}
		return fmt.Errorf("failed to insert entity: %w", err)
	}

	return nil
}

// CountByCorpus reports embedded vs pending totals for checkpoints.
func (r *LegalEntityRepository) CountByCorpus(ctx context.Context, corpus models.Corpus) (CorpusCounts, error) {
	var counts CorpusCounts
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE embedding IS NOT NULL),
			COUNT(*) FILTER (WHERE embedding IS NULL)
		FROM legal_entities
		WHERE corpus = $1`, corpus,
	).Scan(&counts.Embedded, &counts.Pending)
	if err != nil {
		return CorpusCounts{}, fmt.Errorf("failed to count entities: %w", err)
	}

	return counts, nil
}
