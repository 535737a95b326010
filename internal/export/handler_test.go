package export

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/stats"
)

// fixedRepo serves one static collection regardless of scope
type fixedRepo struct {
	regs  []entities.Registration
	teams []entities.Team
	subs  []entities.Submission
}

func (r *fixedRepo) ListRegistrations(context.Context, entities.Scope) ([]entities.Registration, error) {
	return r.regs, nil
}

func (r *fixedRepo) ListTeams(context.Context, entities.Scope) ([]entities.Team, error) {
	return r.teams, nil
}

func (r *fixedRepo) ListSubmissions(context.Context, entities.Scope) ([]entities.Submission, error) {
	return r.subs, nil
}

func TestSnapshotExportEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hackathonID := uuid.New()
	repo := &fixedRepo{
		regs: []entities.Registration{
			{ID: uuid.New(), HackathonID: hackathonID, Status: entities.RegistrationApproved},
			{ID: uuid.New(), HackathonID: hackathonID, Status: entities.RegistrationPending},
		},
	}
	service := stats.NewService(repo, stats.NewSnapshotCache(time.Minute), zap.NewNop())
	handler := NewHandler(service, zap.NewNop())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/stats/export?hackathon_id="+hackathonID.String(), nil)
	handler.exportCSV(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "stats.csv")

	rows, err := csv.NewReader(w.Body).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"metric", "value"}, rows[0])
	assert.Contains(t, rows, []string{"total", "2"})
	assert.Contains(t, rows, []string{"active", "1"})
	assert.Contains(t, rows, []string{"pending", "1"})
}

func TestSnapshotExportRejectsBadScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := stats.NewService(&fixedRepo{}, stats.NewSnapshotCache(time.Minute), zap.NewNop())
	handler := NewHandler(service, zap.NewNop())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/stats/export?hackathon_id=not-a-uuid", nil)
	handler.exportCSV(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
