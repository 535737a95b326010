package verification

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/httpapi"
)

// Handler exposes the verification gate over HTTP. The organizer guard
// and the user id accessor are injected at wiring time because the auth
// middleware itself depends on this package.
type Handler struct {
	service *Service
	guard   gin.HandlerFunc
	userID  func(*gin.Context) uuid.UUID
	logger  *zap.Logger
}

// NewHandler creates a verification handler
func NewHandler(service *Service, guard gin.HandlerFunc, userID func(*gin.Context) uuid.UUID, logger *zap.Logger) *Handler {
	return &Handler{service: service, guard: guard, userID: userID, logger: logger}
}

// RegisterRoutes registers verification routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	v := router.Group("/verification")
	{
		v.POST("", h.submit)
		v.GET("/status", h.status)
		v.PUT("/:id/review", h.guard, h.review)
	}
}

type submitRequest struct {
	Proof ProofRef `json:"proof"`
}

func (h *Handler) submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.SubmitVerification(c.Request.Context(), h.userID(c), req.Proof)
	if err != nil {
		if errors.Is(err, ErrAlreadyPending) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) status(c *gin.Context) {
	decision, err := h.service.Access(c.Request.Context(), h.userID(c))
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

type reviewRequest struct {
	Approve  bool   `json:"approve"`
	Feedback string `json:"feedback"`
}

func (h *Handler) review(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.ReviewVerification(c.Request.Context(), requestID, req.Approve, req.Feedback)
	if err != nil {
		httpapi.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
