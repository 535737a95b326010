package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/auth"
)

// Hit is one search result with its relevance score
type Hit struct {
	Score float64         `json:"score"`
	Doc   RegistrationDoc `json:"doc"`
}

// SearchRegistrations runs a free-text query over indexed registrations,
// optionally narrowed to one hackathon.
func (ix *Indexer) SearchRegistrations(ctx context.Context, query, hackathonID string, size int) ([]Hit, error) {
	must := []map[string]any{
		{"multi_match": map[string]any{
			"query":  query,
			"fields": []string{"name", "email", "skills"},
		}},
	}
	if hackathonID != "" {
		must = append(must, map[string]any{
			"term": map[string]any{"hackathon_id": hackathonID},
		})
	}
	body, err := json.Marshal(map[string]any{
		"size":  size,
		"query": map[string]any{"bool": map[string]any{"must": must}},
	})
	if err != nil {
		return nil, err
	}

	res, err := ix.client.Search(
		ix.client.Search.WithContext(ctx),
		ix.client.Search.WithIndex(IdxRegistrations),
		ix.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search registrations: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search registrations: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64         `json:"_score"`
				Source RegistrationDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]Hit, len(parsed.Hits.Hits))
	for i, h := range parsed.Hits.Hits {
		hits[i] = Hit{Score: h.Score, Doc: h.Source}
	}
	return hits, nil
}

// Handler exposes the organizer search endpoint
type Handler struct {
	indexer *Indexer
	logger  *zap.Logger
}

// NewHandler creates a search handler
func NewHandler(indexer *Indexer, logger *zap.Logger) *Handler {
	return &Handler{indexer: indexer, logger: logger}
}

// RegisterRoutes registers search routes. Safe to call with a nil
// indexer; the endpoint then reports search as unavailable.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/search/registrations", auth.RequireOrganizer(), h.searchRegistrations)
}

func (h *Handler) searchRegistrations(c *gin.Context) {
	if h.indexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	hits, err := h.indexer.SearchRegistrations(c.Request.Context(), query, c.Query("hackathon_id"), 50)
	if err != nil {
		h.logger.Error("registration search failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "search backend unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits, "count": len(hits)})
}
