package service

import (
	"testing"

	"github.com/sachalbs/mouselaw-prod-sub000/models"

	"github.com/stretchr/testify/assert"
)

func TestExtractIdentifiers(t *testing.T) {
	statute := func(id string) ExtractedIdentifier {
		return ExtractedIdentifier{Corpus: models.CorpusStatute, Identifier: id}
	}
	decision := func(id string) ExtractedIdentifier {
		return ExtractedIdentifier{Corpus: models.CorpusCaseLaw, Identifier: id}
	}

	tests := []struct {
		name  string
		query string
		want  []ExtractedIdentifier
	}{
		{
			name:  "plain article number",
			query: "que dit l'article 1240 du code civil ?",
			want:  []ExtractedIdentifier{statute("1240")},
		},
		{
			name:  "abbreviated with book letter",
			query: "art. L121-1 du code de la consommation",
			want:  []ExtractedIdentifier{statute("L121-1")},
		},
		{
			name:  "book letter with dot and space",
			query: "Article R. 621-1",
			want:  []ExtractedIdentifier{statute("R621-1")},
		},
		{
			name:  "article list with et",
			query: "articles 1240 et 1241 du code civil",
			want:  []ExtractedIdentifier{statute("1240"), statute("1241")},
		},
		{
			name:  "article list with commas",
			query: "articles 1382, 1383 et 1384",
			want:  []ExtractedIdentifier{statute("1382"), statute("1383"), statute("1384")},
		},
		{
			name:  "appeal number",
			query: "le pourvoi n° 21-19.778 de la chambre commerciale",
			want:  []ExtractedIdentifier{decision("21-19.778")},
		},
		{
			name:  "mixed statute and case law",
			query: "l'article 1240 et la décision 21-19.778",
			want:  []ExtractedIdentifier{statute("1240"), decision("21-19.778")},
		},
		{
			name:  "duplicates collapse",
			query: "article 1240, encore l'article 1240",
			want:  []ExtractedIdentifier{statute("1240")},
		},
		{
			name:  "semantic only",
			query: "la responsabilité du fait des choses",
			want:  nil,
		},
		{
			name:  "articles without a number",
			query: "les 30 articles du chapitre",
			want:  nil,
		},
		{
			name:  "empty query",
			query: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractIdentifiers(tt.query)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalArticleUppercasesBookLetter(t *testing.T) {
	assert.Equal(t, "L121-1", canonicalArticle("l", "121-1"))
	assert.Equal(t, "1240", canonicalArticle("", "1240"))
}
