package models

import "github.com/google/uuid"

// MatchKind tells how a search result was produced.
type MatchKind string

const (
	// MatchExact is an identifier lookup hit, always scored 1.0.
	MatchExact MatchKind = "exact"
	// MatchSemantic is a vector similarity hit, scored in (threshold, 1.0].
	MatchSemantic MatchKind = "semantic"
)

// SearchResult is one ranked source returned by the retrieval engine.
type SearchResult struct {
	EntityID   uuid.UUID `json:"entity_id"`
	Corpus     Corpus    `json:"corpus"`
	Identifier string    `json:"identifier"`
	Title      string    `json:"title,omitempty"`
	Excerpt    string    `json:"excerpt,omitempty"`
	Score      float64   `json:"score"`
	MatchKind  MatchKind `json:"match_kind"`
}
