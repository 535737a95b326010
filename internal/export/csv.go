package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/stats"
)

var registrationColumns = []string{"id", "name", "email", "status", "team", "skills", "created_at"}
var teamColumns = []string{"id", "name", "status", "members"}

// WriteRegistrationsCSV serializes a registration selection. teamNames
// resolves team ids to display names; unknown teams render empty.
func WriteRegistrationsCSV(w io.Writer, regs []entities.Registration, teamNames map[uuid.UUID]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(registrationColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, reg := range regs {
		team := ""
		if reg.TeamID != nil {
			team = teamNames[*reg.TeamID]
		}
		record := []string{
			reg.ID.String(),
			reg.Name,
			reg.Email,
			string(reg.Status),
			team,
			strings.Join(reg.SkillList(), ";"),
			reg.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTeamsCSV serializes a team selection
func WriteTeamsCSV(w io.Writer, teams []entities.Team) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(teamColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, team := range teams {
		record := []string{
			team.ID.String(),
			team.Name,
			string(team.Status),
			strconv.Itoa(len(team.Members)),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSnapshotCSV serializes a stats snapshot as metric/value rows
func WriteSnapshotCSV(w io.Writer, snap stats.Snapshot) error {
	writer := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value"},
		{"total", strconv.Itoa(snap.Total)},
		{"active", strconv.Itoa(snap.Active)},
		{"pending", strconv.Itoa(snap.Pending)},
		{"rejected", strconv.Itoa(snap.Rejected)},
		{"total_teams", strconv.Itoa(snap.TotalTeams)},
		{"total_hackathons", strconv.Itoa(snap.TotalHackathons)},
		{"teams_with_submission", strconv.Itoa(snap.TeamsWithSubmission)},
		{"average_score", strconv.FormatFloat(snap.AverageScore, 'f', 2, 64)},
		{"team_placement_rate", strconv.FormatFloat(snap.TeamPlacementRate, 'f', 4, 64)},
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
