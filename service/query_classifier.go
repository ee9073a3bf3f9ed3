package service

import (
	"regexp"
	"strings"

	"github.com/sachalbs/mouselaw-prod-sub000/models"
)

// ExtractedIdentifier is an entity identifier pulled out of a free-text
// query, normalized to the canonical format stored in that corpus.
type ExtractedIdentifier struct {
	Corpus     models.Corpus
	Identifier string
}

var (
	// "article 1240", "art. L121-1", "l'article R. 621-1", "articles 1240 et 1241"
	statuteArticlePattern = regexp.MustCompile(`(?i)\bart(?:icles?)?\.?\s+(?:([lrd])\.?\s*)?(\d{1,5}(?:-\d{1,4})*)`)
	// numéro de pourvoi: "21-19.778"
	appealNumberPattern = regexp.MustCompile(`\b(\d{2}-\d{2}\.\d{3})\b`)
	// trailing "et 1241" / ", 1242" after an article reference
	articleListPattern = regexp.MustCompile(`(?i)^\s*(?:et|ou|,)\s+(?:([lrd])\.?\s*)?(\d{1,5}(?:-\d{1,4})*)`)
)

// ExtractIdentifiers scans a query for explicit entity identifiers:
// statute article numbers and case-law appeal numbers. Malformed or
// ambiguous tokens are dropped silently; classification never fails, a
// query without identifiers is simply semantic-only. The query text
// itself is always passed to semantic search regardless of the outcome.
func ExtractIdentifiers(query string) []ExtractedIdentifier {
	var found []ExtractedIdentifier
	seen := make(map[ExtractedIdentifier]bool)

	add := func(id ExtractedIdentifier) {
		if id.Identifier == "" || seen[id] {
			return
		}
		seen[id] = true
		found = append(found, id)
	}

	for _, loc := range statuteArticlePattern.FindAllStringSubmatchIndex(query, -1) {
		m := statuteArticlePattern.FindStringSubmatch(query[loc[0]:loc[1]])
		add(ExtractedIdentifier{
			Corpus:     models.CorpusStatute,
			Identifier: canonicalArticle(m[1], m[2]),
		})

		// "articles 1240 et 1241" carries more numbers after the match.
		rest := query[loc[1]:]
		for {
			lm := articleListPattern.FindStringSubmatch(rest)
			if lm == nil {
				break
			}
			add(ExtractedIdentifier{
				Corpus:     models.CorpusStatute,
				Identifier: canonicalArticle(lm[1], lm[2]),
			})
			rest = rest[len(lm[0]):]
		}
	}

	for _, m := range appealNumberPattern.FindAllStringSubmatch(query, -1) {
		add(ExtractedIdentifier{
			Corpus:     models.CorpusCaseLaw,
			Identifier: m[1],
		})
	}

	return found
}

// canonicalArticle builds the stored identifier form: an optional
// uppercase book letter glued to the number, e.g. "L121-1" or "1240".
func canonicalArticle(letter, number string) string {
	return strings.ToUpper(letter) + number
}
