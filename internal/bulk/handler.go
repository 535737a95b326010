package bulk

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/auth"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/httpapi"
)

// Handler exposes bulk operations to organizer dashboards
type Handler struct {
	coordinator *Coordinator
	logger      *zap.Logger
}

// NewHandler creates a bulk handler
func NewHandler(coordinator *Coordinator, logger *zap.Logger) *Handler {
	return &Handler{coordinator: coordinator, logger: logger}
}

// RegisterRoutes registers the bulk endpoint; all bulk operations
// require organizer access
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/bulk", auth.RequireOrganizer(), h.apply)
}

type applyRequest struct {
	Kind        TargetKind  `json:"kind"`
	IDs         []uuid.UUID `json:"ids"`
	Action      Action      `json:"action"`
	HackathonID *uuid.UUID  `json:"hackathon_id,omitempty"`
}

func (h *Handler) apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// the organizer's own snapshot covers the same rows as any
	// addressed hackathon, so both scopes go stale together
	organizerID := auth.UserID(c)
	scopes := []entities.Scope{{OrganizerID: &organizerID}}
	if req.HackathonID != nil {
		scopes = append(scopes, entities.Scope{HackathonID: req.HackathonID})
	}

	result, err := h.coordinator.ApplyBulkAction(c.Request.Context(), req.Kind, req.IDs, req.Action, scopes...)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}

	if result.Action == ActionExport {
		c.Header("Content-Disposition", "attachment; filename="+result.Filename)
		c.Data(http.StatusOK, result.ContentType, result.File)
		return
	}
	c.JSON(http.StatusOK, result)
}
