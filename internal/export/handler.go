package export

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/auth"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/httpapi"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/stats"
)

// Handler serves dashboard snapshots as downloadable files. It lives
// here rather than next to the stats handler because the writers in
// this package already depend on the stats types.
type Handler struct {
	stats  *stats.Service
	logger *zap.Logger
}

// NewHandler creates an export handler
func NewHandler(stats *stats.Service, logger *zap.Logger) *Handler {
	return &Handler{stats: stats, logger: logger}
}

// RegisterRoutes registers snapshot export routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stats/export", auth.RequireOrganizer(), h.exportCSV)
}

// exportCSV handles GET /api/v1/stats/export with the same scope and
// filter parameters as GET /stats
func (h *Handler) exportCSV(c *gin.Context) {
	scope, err := stats.ScopeFromRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.stats.Stats(c.Request.Context(), scope, stats.FilterFromQuery(c))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteSnapshotCSV(&buf, snap); err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=stats.csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
