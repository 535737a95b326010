package progress

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/httpapi"
)

// Handler exposes derived progress views and task completion
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a progress handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers progress routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/hackathons/:id/progress", h.report)
	router.POST("/tasks/:id/complete", h.completeTask)
}

func (h *Handler) report(c *gin.Context) {
	hackathonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid hackathon id"})
		return
	}
	report, err := h.service.Report(c.Request.Context(), hackathonID)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type completeTaskRequest struct {
	SubmissionID *uuid.UUID `json:"submission_id,omitempty"`
}

func (h *Handler) completeTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	var req completeTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.service.CompleteTask(c.Request.Context(), taskID, req.SubmissionID)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}
