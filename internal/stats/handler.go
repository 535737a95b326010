package stats

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/auth"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/httpapi"
)

// Handler serves derived dashboard statistics
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a stats handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers dashboard routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/stats", auth.RequireOrganizer(), h.stats)
}

// stats handles GET /api/v1/stats?hackathon_id=&status=&q=&skills=a,b
func (h *Handler) stats(c *gin.Context) {
	scope, err := ScopeFromRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.service.Stats(c.Request.Context(), scope, FilterFromQuery(c))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// FilterFromQuery reads the shared status/q/skills query parameters
func FilterFromQuery(c *gin.Context) Filter {
	filter := Filter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
	}
	if skills := c.Query("skills"); skills != "" {
		filter.Skills = strings.Split(skills, ",")
	}
	return filter
}

// ScopeFromRequest builds the stats scope: one hackathon when
// requested, otherwise every hackathon the caller organizes
func ScopeFromRequest(c *gin.Context) (entities.Scope, error) {
	if raw := c.Query("hackathon_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return entities.Scope{}, err
		}
		return entities.Scope{HackathonID: &id}, nil
	}
	organizerID := auth.UserID(c)
	return entities.Scope{OrganizerID: &organizerID}, nil
}
