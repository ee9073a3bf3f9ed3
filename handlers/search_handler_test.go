package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sachalbs/mouselaw-prod-sub000/models"
	"github.com/sachalbs/mouselaw-prod-sub000/repository"
	"github.com/sachalbs/mouselaw-prod-sub000/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	matches       map[models.Corpus][]repository.SimilarityMatch
	gotThresholds map[models.Corpus]float64
}

func (s *stubStore) SearchSimilar(ctx context.Context, corpus models.Corpus, embedding []float64, threshold float64, limit int) ([]repository.SimilarityMatch, error) {
	if s.gotThresholds != nil {
		s.gotThresholds[corpus] = threshold
	}
	return s.matches[corpus], nil
}

func (s *stubStore) FindByIdentifier(ctx context.Context, corpus models.Corpus, identifier string) ([]models.LegalEntity, error) {
	return nil, nil
}

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1, 0.2}, nil
}

func newTestRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewSearchService(
		service.SearchWithStore(store),
		service.SearchWithEmbedder(stubEmbedder{}),
	)
	r := gin.New()
	r.POST("/api/search", NewSearchHandler(svc).Search)
	return r
}

func doSearch(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchEndpointReturnsResults(t *testing.T) {
	store := &stubStore{
		matches: map[models.Corpus][]repository.SimilarityMatch{
			models.CorpusStatute: {
				{
					Entity: models.LegalEntity{
						ID:         uuid.New(),
						Corpus:     models.CorpusStatute,
						Identifier: "1240",
						Content:    "Tout fait quelconque...",
					},
					Similarity: 0.85,
				},
			},
		},
	}

	w := doSearch(t, newTestRouter(store), `{"query":"responsabilité délictuelle"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                  `json:"success"`
		Count   int                   `json:"count"`
		Results []models.SearchResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "1240", resp.Results[0].Identifier)
}

func TestSearchEndpointRejectsInvalidJSON(t *testing.T) {
	w := doSearch(t, newTestRouter(&stubStore{}), `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")
}

func TestSearchEndpointRejectsEmptyQuery(t *testing.T) {
	w := doSearch(t, newTestRouter(&stubStore{}), `{"query":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMPTY_QUERY")
}

func TestSearchEndpointFillsPartialConfig(t *testing.T) {
	store := &stubStore{gotThresholds: make(map[models.Corpus]float64)}
	router := newTestRouter(store)

	// Only toggles corpora; thresholds and caps come from the defaults.
	w := doSearch(t, router, `{"query":"prescription","config":{"statutes":{"enabled":true},"case_law":{"enabled":false},"methodology":{"enabled":false}}}`)
	require.Equal(t, http.StatusOK, w.Code)

	defaults := models.DefaultSearchConfig()
	assert.Equal(t, defaults.Statutes.SimilarityThreshold, store.gotThresholds[models.CorpusStatute])
	_, caseLawQueried := store.gotThresholds[models.CorpusCaseLaw]
	assert.False(t, caseLawQueried)
}

func TestNormalizeConfigKeepsExplicitValues(t *testing.T) {
	cfg := normalizeConfig(models.SearchConfig{
		Statutes: models.CorpusConfig{Enabled: true, MaxResults: 2, SimilarityThreshold: 0.9},
	})

	assert.Equal(t, 2, cfg.Statutes.MaxResults)
	assert.Equal(t, 0.9, cfg.Statutes.SimilarityThreshold)

	defaults := models.DefaultSearchConfig()
	assert.Equal(t, defaults.CaseLaw.MaxResults, cfg.CaseLaw.MaxResults)
	assert.Equal(t, defaults.MaxTotalResults, cfg.MaxTotalResults)
}
