package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/stats"
)

func TestWriteRegistrationsCSV(t *testing.T) {
	teamID := uuid.New()
	reg := entities.Registration{
		ID:     uuid.New(),
		Name:   "Alice Chen",
		Email:  "alice@example.com",
		Status: entities.RegistrationApproved,
		TeamID: &teamID,
	}
	reg.SetSkills([]string{"go", "sql"})
	loner := entities.Registration{ID: uuid.New(), Name: "Grace Lee", Status: entities.RegistrationPending}

	var buf bytes.Buffer
	err := WriteRegistrationsCSV(&buf, []entities.Registration{reg, loner}, map[uuid.UUID]string{teamID: "Gophers"})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, registrationColumns, rows[0])
	assert.Equal(t, "Alice Chen", rows[1][1])
	assert.Equal(t, "Gophers", rows[1][4])
	assert.Equal(t, "go;sql", rows[1][5])
	assert.Equal(t, "", rows[2][4], "participants without a team render empty")
}

func TestWriteTeamsCSV(t *testing.T) {
	teamID := uuid.New()
	team := entities.Team{
		ID:     teamID,
		Name:   "Gophers",
		Status: entities.TeamComplete,
		Members: []entities.Registration{
			{ID: uuid.New(), TeamID: &teamID},
			{ID: uuid.New(), TeamID: &teamID},
		},
	}

	var buf bytes.Buffer
	err := WriteTeamsCSV(&buf, []entities.Team{team})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "complete", rows[1][2])
	assert.Equal(t, "2", rows[1][3])
}

func TestWriteSnapshotCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSnapshotCSV(&buf, stats.Snapshot{Total: 10, Active: 6, AverageScore: 85})
	require.NoError(t, err)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "10"}, rows[1])
	assert.Equal(t, []string{"average_score", "85.00"}, rows[8])
}
