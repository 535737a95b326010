package progress

import (
	"sort"
	"time"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
)

// PhaseStatus derives a phase's status from its time window. Derived
// everywhere from this one function so dashboards cannot drift; the
// result is monotonic in now.
func PhaseStatus(p entities.Phase, now time.Time) entities.PhaseStatus {
	switch {
	case now.Before(p.StartAt):
		return entities.PhaseUpcoming
	case now.Before(p.EndAt):
		return entities.PhaseActive
	default:
		return entities.PhaseCompleted
	}
}

// CurrentPhase returns the phase with the lowest order that is active;
// if none is active it falls through to the highest-order phase whose
// window has passed. Nil when the hackathon has not started.
func CurrentPhase(phases []entities.Phase, now time.Time) *entities.Phase {
	ordered := sortedByOrder(phases)

	for i := range ordered {
		if PhaseStatus(ordered[i], now) == entities.PhaseActive {
			return &ordered[i]
		}
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		if PhaseStatus(ordered[i], now) == entities.PhaseCompleted {
			return &ordered[i]
		}
	}
	return nil
}

// HackathonStatus derives event status from the phase windows
func HackathonStatus(phases []entities.Phase, now time.Time) entities.HackathonStatus {
	if len(phases) == 0 {
		return entities.HackathonUpcoming
	}
	upcoming, completed := 0, 0
	for _, p := range phases {
		switch PhaseStatus(p, now) {
		case entities.PhaseUpcoming:
			upcoming++
		case entities.PhaseCompleted:
			completed++
		}
	}
	switch {
	case upcoming == len(phases):
		return entities.HackathonUpcoming
	case completed == len(phases):
		return entities.HackathonFinished
	default:
		return entities.HackathonRunning
	}
}

// PhaseProgress is the completed-task ratio for one phase, 0 when the
// phase has no tasks
func PhaseProgress(p entities.Phase) float64 {
	if len(p.Tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range p.Tasks {
		if t.Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(p.Tasks))
}

// OverallProgress blends phase and task completion: each phase carries
// equal weight, a temporally completed phase counts fully, the active
// phase contributes its task ratio. Always derived, never stored.
func OverallProgress(phases []entities.Phase, now time.Time) float64 {
	if len(phases) == 0 {
		return 0
	}
	var sum float64
	for _, p := range phases {
		switch PhaseStatus(p, now) {
		case entities.PhaseCompleted:
			sum += 1
		case entities.PhaseActive:
			sum += PhaseProgress(p)
		}
	}
	return sum / float64(len(phases))
}

func sortedByOrder(phases []entities.Phase) []entities.Phase {
	ordered := make([]entities.Phase, len(phases))
	copy(ordered, phases)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	return ordered
}
