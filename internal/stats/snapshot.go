package stats

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
)

// Collections is the consistent entity snapshot stats derive from
type Collections struct {
	Registrations []entities.Registration
	Teams         []entities.Team
	Submissions   []entities.Submission
}

// Filter narrows the registrations counted by a snapshot. A zero
// filter means no restriction. Query is a case-insensitive substring
// match OR-joined over name, email, team name and skills; Skills keep
// participants holding at least one selected skill; both AND against
// Status.
type Filter struct {
	Status string
	Query  string
	Skills []string
}

// Snapshot is a deterministically derived aggregate view. Recomputing
// from the same collections and filter always yields the same values.
type Snapshot struct {
	Total               int       `json:"total"`
	Active              int       `json:"active"`
	Pending             int       `json:"pending"`
	Rejected            int       `json:"rejected"`
	TotalTeams          int       `json:"total_teams"`
	TotalHackathons     int       `json:"total_hackathons"`
	TeamsWithSubmission int       `json:"teams_with_submission"`
	AverageScore        float64   `json:"average_score"`
	TeamPlacementRate   float64   `json:"team_placement_rate"`
	ComputedAt          time.Time `json:"computed_at"`
}

/// ComputeStats derives a snapshot from current entity state. Pure: no
// caching, no incremental counters, no hidden inputs beyond the clock
// stamp on the result.
func ComputeStats(c Collections, f Filter) Snapshot {
	teamNames := make(map[uuid.UUID]string, len(c.Teams))
	for _, t := range c.Teams {
		teamNames[t.ID] = t.Name
	}

	snap := Snapshot{ComputedAt: time.Now()}
	hackathons := make(map[uuid.UUID]bool)

	for _, reg := range c.Registrations {
		if !matches(reg, f, teamNames) {
			continue
		}
		snap.Total++
		hackathons[reg.HackathonID] = true
		switch reg.Status {
		case entities.RegistrationApproved:
			snap.Active++
		case entities.RegistrationPending:
			snap.Pending++
		case entities.RegistrationRejected:
			snap.Rejected++
		}
	}
	snap.TotalHackathons = len(hackathons)
	snap.TotalTeams = len(c.Teams)

	teamsWithSubmission := make(map[uuid.UUID]bool)
	scoreSum, scored := 0, 0
	for _, sub := range c.Submissions {
		if sub.Status != entities.SubmissionDraft {
			teamsWithSubmission[sub.TeamID] = true
		}
		if sub.Status == entities.SubmissionEvaluated && sub.Score != nil {
			scoreSum += *sub.Score
			scored++
		}
	}
	snap.TeamsWithSubmission = len(teamsWithSubmission)
	if scored > 0 {
		snap.AverageScore = float64(scoreSum) / float64(scored)
	}
	if snap.Active > 0 {
		snap.TeamPlacementRate = float64(snap.TeamsWithSubmission) / float64(snap.Active)
	}
	return snap
}

func matches(reg entities.Registration, f Filter, teamNames map[uuid.UUID]string) bool {
	if f.Status != "" && string(reg.Status) != f.Status {
		return false
	}
	if len(f.Skills) > 0 && !hasAnySkill(reg.SkillList(), f.Skills) {
		return false
	}
	if f.Query != "" && !matchesQuery(reg, strings.ToLower(f.Query), teamNames) {
		return false
	}
	return true
}

func hasAnySkill(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func matchesQuery(reg entities.Registration, query string, teamNames map[uuid.UUID]string) bool {
	if strings.Contains(strings.ToLower(reg.Name), query) ||
		strings.Contains(strings.ToLower(reg.Email), query) {
		return true
	}
	if reg.TeamID != nil {
		if name, ok := teamNames[*reg.TeamID]; ok && strings.Contains(strings.ToLower(name), query) {
			return true
		}
	}
	for _, skill := range reg.SkillList() {
		if strings.Contains(strings.ToLower(skill), query) {
			return true
		}
	}
	return false
}
