package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/verification"
)

const (
	contextUserID   = "auth.user_id"
	contextDecision = "auth.decision"
)

// Middleware authenticates bearer tokens and attaches a freshly
// evaluated AccessDecision to every request. The decision is always
// recomputed from the verification gate, never cached across requests.
type Middleware struct {
	secret   []byte
	verifier *verification.Service
	logger   *zap.Logger
}

// NewMiddleware creates the auth middleware
func NewMiddleware(secret string, verifier *verification.Service, logger *zap.Logger) *Middleware {
	return &Middleware{secret: []byte(secret), verifier: verifier, logger: logger}
}

// Authenticate validates the bearer token and stores the user identity
// plus the current access decision on the request context
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}
		userID, err := uuid.Parse(subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		decision, err := m.verifier.Access(c.Request.Context(), userID)
		if err != nil {
			m.logger.Error("failed to evaluate access", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "access evaluation failed"})
			return
		}

		c.Set(contextUserID, userID)
		c.Set(contextDecision, decision)
		c.Next()
	}
}

// RequireOrganizer aborts requests whose access decision is not Granted
func RequireOrganizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := Decision(c)
		if !decision.Granted() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":    "organizer access required",
				"decision": decision,
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id from the request context
func UserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(contextUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// Decision returns the access decision attached to the request context
func Decision(c *gin.Context) verification.AccessDecision {
	if v, ok := c.Get(contextDecision); ok {
		if d, ok := v.(verification.AccessDecision); ok {
			return d
		}
	}
	return verification.AccessDecision{Decision: verification.DecisionDenied, Reason: verification.ReasonNotSubmitted}
}
