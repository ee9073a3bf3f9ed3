package models

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingDimensions is the dimensionality of every stored vector.
// Entities are either fully embedded at this length or pending (nil).
const EmbeddingDimensions = 1024

// LegalEntity represents one unit of legal text from the knowledge base:
// a statute article, a case-law decision or a methodology resource.
type LegalEntity struct {
	ID         uuid.UUID  `json:"id"`
	Corpus     Corpus     `json:"corpus"`
	Scope      string     `json:"scope,omitempty"` // e.g. "code_civil" for statute articles
	Identifier string     `json:"identifier"`      // article number, appeal number, resource slug
	Title      string     `json:"title,omitempty"`
	Category   string     `json:"category,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Content    string     `json:"content"`
	Embedding  []float64  `json:"-"` // nil means pending ingestion
}

// Embedded reports whether the entity already carries a vector.
func (e *LegalEntity) Embedded() bool {
	return len(e.Embedding) > 0
}
