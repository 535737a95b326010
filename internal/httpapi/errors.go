package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"
)

// RespondError maps the core error taxonomy onto HTTP statuses.
// ValidationError -> 400, NotFound -> 404, InvalidTransition and
// ConcurrentModification -> 409, anything else -> 500.
func RespondError(c *gin.Context, err error) {
	var validation *apperrors.ValidationError
	var transition *apperrors.InvalidTransition
	var notFound *apperrors.NotFound
	var concurrent *apperrors.ConcurrentModification

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &concurrent):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
