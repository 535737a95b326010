package review

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/auth"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/httpapi"
)

// Handler exposes the submission review lifecycle over HTTP
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a review handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers submission routes; review operations require
// organizer access
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	subs := router.Group("/submissions")
	{
		subs.POST("", h.saveDraft)
		subs.POST("/:id/submit", h.submit)
		subs.GET("/:id", h.get)
		subs.POST("/:id/begin-review", auth.RequireOrganizer(), h.beginReview)
		subs.POST("/:id/review", auth.RequireOrganizer(), h.recordReview)
		subs.GET("/:id/history", auth.RequireOrganizer(), h.history)
	}
}

// submissionView adds the reviewer-facing qualification label on top of
// the raw stored enumerations; storage never holds the display synonym
type submissionView struct {
	*entities.Submission
	QualificationLabel string `json:"qualification_label,omitempty"`
}

func presentSubmission(sub *entities.Submission) submissionView {
	view := submissionView{Submission: sub}
	switch sub.Qualification {
	case entities.QualificationQualified:
		view.QualificationLabel = "Evaluated"
	case entities.QualificationUnqualified:
		view.QualificationLabel = "Not Qualified"
	}
	return view
}

type saveDraftRequest struct {
	TeamID    uuid.UUID         `json:"team_id"`
	PhaseID   uuid.UUID         `json:"phase_id"`
	Responses map[string]string `json:"responses"`
}

func (h *Handler) saveDraft(c *gin.Context) {
	var req saveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sub, err := h.service.SaveDraft(c.Request.Context(), req.TeamID, req.PhaseID, req.Responses)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentSubmission(sub))
}

func (h *Handler) submit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}
	sub, err := h.service.Submit(c.Request.Context(), id)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentSubmission(sub))
}

func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}
	sub, err := h.service.repo.GetSubmission(c.Request.Context(), id)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentSubmission(sub))
}

func (h *Handler) beginReview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}
	sub, err := h.service.BeginReview(c.Request.Context(), id)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentSubmission(sub))
}

func (h *Handler) recordReview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}
	var input ReviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	input.ReviewerID = auth.UserID(c)

	sub, err := h.service.RecordReview(c.Request.Context(), id, input)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, presentSubmission(sub))
}

func (h *Handler) history(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid submission id"})
		return
	}
	records, err := h.service.ReviewHistory(c.Request.Context(), id)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
