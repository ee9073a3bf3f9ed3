package handlers

import (
	"errors"
	"net/http"

	"github.com/sachalbs/mouselaw-prod-sub000/models"
	"github.com/sachalbs/mouselaw-prod-sub000/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles HTTP requests for source retrieval
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// SearchRequest is the POST /api/search body. Config is optional; when
// omitted the production defaults apply.
type SearchRequest struct {
	Query  string               `json:"query"`
	Config *models.SearchConfig `json:"config,omitempty"`
}

// Search handles POST /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Request body must be valid JSON with a query field",
			},
		})
		return
	}

	cfg := models.DefaultSearchConfig()
	if req.Config != nil {
		cfg = normalizeConfig(*req.Config)
	}

	results, err := h.searchService.Search(c.Request.Context(), req.Query, cfg)
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_QUERY",
					"message": "Query must not be empty",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SEARCH_FAILED",
				"message": "Search could not be executed",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(results),
		"results": results,
	})
}

// normalizeConfig fills omitted numeric fields from the defaults so a
// caller can toggle corpora without restating every threshold and cap.
func normalizeConfig(cfg models.SearchConfig) models.SearchConfig {
	defaults := models.DefaultSearchConfig()

	fill := func(c models.CorpusConfig, d models.CorpusConfig) models.CorpusConfig {
		if c.MaxResults <= 0 {
			c.MaxResults = d.MaxResults
		}
		if c.SimilarityThreshold <= 0 {
			c.SimilarityThreshold = d.SimilarityThreshold
		}
		return c
	}

	cfg.Statutes = fill(cfg.Statutes, defaults.Statutes)
	cfg.CaseLaw = fill(cfg.CaseLaw, defaults.CaseLaw)
	cfg.Methodology = fill(cfg.Methodology, defaults.Methodology)
	if cfg.MaxTotalResults <= 0 {
		cfg.MaxTotalResults = defaults.MaxTotalResults
	}

	return cfg
}
