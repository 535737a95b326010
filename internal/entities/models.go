package entities

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RegistrationStatus is the organizer-controlled participant status
type RegistrationStatus string

const (
	RegistrationPending  RegistrationStatus = "pending"
	RegistrationApproved RegistrationStatus = "approved"
	RegistrationRejected RegistrationStatus = "rejected"
)

// TeamStatus is derived from round-submission existence and may be
// overridden through bulk organizer actions
type TeamStatus string

const (
	TeamIncomplete TeamStatus = "incomplete"
	TeamActive     TeamStatus = "active"
	TeamComplete   TeamStatus = "complete"
)

// SubmissionStatus is the review lifecycle state
type SubmissionStatus string

const (
	SubmissionDraft       SubmissionStatus = "draft"
	SubmissionSubmitted   SubmissionStatus = "submitted"
	SubmissionUnderReview SubmissionStatus = "under_review"
	SubmissionEvaluated   SubmissionStatus = "evaluated"
)

// Qualification is the judge outcome, distinct from the lifecycle status
type Qualification string

const (
	QualificationUnset       Qualification = "unset"
	QualificationQualified   Qualification = "qualified"
	QualificationUnqualified Qualification = "unqualified"
)

// VerificationStatus is the stored state of an organizer verification request
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationRejected VerificationStatus = "rejected"
)

// PhaseStatus is derived from the phase time window, never stored
type PhaseStatus string

const (
	PhaseUpcoming  PhaseStatus = "upcoming"
	PhaseActive    PhaseStatus = "active"
	PhaseCompleted PhaseStatus = "completed"
)

// HackathonStatus is derived from the phase windows, never stored
type HackathonStatus string

const (
	HackathonUpcoming HackathonStatus = "upcoming"
	HackathonRunning  HackathonStatus = "running"
	HackathonFinished HackathonStatus = "finished"
)

// Hackathon represents an event with ordered phases
type Hackathon struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	OrganizerID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organizer_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Phases      []Phase        `gorm:"foreignKey:HackathonID" json:"phases,omitempty"`
}

// Phase is a time-boxed round. Order is unique and strictly increasing
// within a hackathon; status is always derived from the time window.
type Phase struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HackathonID uuid.UUID `gorm:"type:uuid;not null;index" json:"hackathon_id"`
	Name        string    `gorm:"not null" json:"name"`
	Order       int       `gorm:"column:phase_order;not null;uniqueIndex:uniq_hackathon_phase_order,composite:hackathon_id" json:"order"`
	StartAt     time.Time `gorm:"not null" json:"start_at"`
	EndAt       time.Time `gorm:"not null" json:"end_at"`
	Tasks       []Task    `gorm:"foreignKey:PhaseID" json:"tasks,omitempty"`
}

// Task is a unit of required or optional work within a phase.
// Completed implies a completion timestamp or, for submission-type
// tasks, a linked submission.
type Task struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PhaseID            uuid.UUID  `gorm:"type:uuid;not null;index" json:"phase_id"`
	Title              string     `gorm:"not null" json:"title"`
	Required           bool       `gorm:"default:false" json:"required"`
	RequiresSubmission bool       `gorm:"default:false" json:"requires_submission"`
	Completed          bool       `gorm:"default:false" json:"completed"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	SubmissionID       *uuid.UUID `gorm:"type:uuid" json:"submission_id,omitempty"`
}

// Registration is a participant record for one hackathon
type Registration struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HackathonID uuid.UUID          `gorm:"type:uuid;not null;index" json:"hackathon_id"`
	TeamID      *uuid.UUID         `gorm:"type:uuid;index" json:"team_id,omitempty"`
	Name        string             `gorm:"not null" json:"name"`
	Email       string             `gorm:"not null;index" json:"email"`
	Skills      datatypes.JSON     `json:"skills"` // []string
	Status      RegistrationStatus `gorm:"not null;default:'pending'" json:"status"`
	Version     int                `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// SkillList decodes the Skills JSON column
func (r *Registration) SkillList() []string {
	var skills []string
	if len(r.Skills) == 0 {
		return skills
	}
	_ = json.Unmarshal(r.Skills, &skills)
	return skills
}

// SetSkills encodes skills into the JSON column
func (r *Registration) SetSkills(skills []string) {
	data, _ := json.Marshal(skills)
	r.Skills = datatypes.JSON(data)
}

// Team groups registrations within one hackathon
type Team struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	HackathonID uuid.UUID      `gorm:"type:uuid;not null;index" json:"hackathon_id"`
	Name        string         `gorm:"not null" json:"name"`
	Status      TeamStatus     `gorm:"not null;default:'incomplete'" json:"status"`
	Version     int            `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Members     []Registration `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// Submission is a team's round response, subject to review
type Submission struct {
	ID             uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TeamID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uniq_team_phase" json:"team_id"`
	PhaseID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:uniq_team_phase" json:"phase_id"`
	Responses      datatypes.JSON   `json:"responses"` // map[string]string
	Status         SubmissionStatus `gorm:"not null;default:'draft'" json:"status"`
	Qualification  Qualification    `gorm:"not null;default:'unset'" json:"qualification"`
	Score          *int             `json:"score,omitempty"`
	AwardType      *string          `json:"award_type,omitempty"`
	AwardTitle     *string          `json:"award_title,omitempty"`
	ReviewComments *string          `json:"review_comments,omitempty"`
	SubmittedAt    *time.Time       `json:"submitted_at,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	Version        int              `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// ResponseMap decodes the Responses JSON column
func (s *Submission) ResponseMap() map[string]string {
	responses := make(map[string]string)
	if len(s.Responses) == 0 {
		return responses
	}
	_ = json.Unmarshal(s.Responses, &responses)
	return responses
}

// SetResponses encodes field responses into the JSON column
func (s *Submission) SetResponses(responses map[string]string) {
	data, _ := json.Marshal(responses)
	s.Responses = datatypes.JSON(data)
}

// VerificationRequest is a user's application for organizer privileges.
// A rejected request that is re-submitted is marked superseded and kept
// for audit; the gate only ever sees the latest request per user.
type VerificationRequest struct {
	ID           uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	Status       VerificationStatus `gorm:"not null;default:'pending'" json:"status"`
	Feedback     *string            `json:"feedback,omitempty"`
	ProofFileRef string             `gorm:"not null" json:"proof_file_ref"`
	ProofMIME    string             `gorm:"not null" json:"proof_mime"`
	ProofSize    int64              `gorm:"not null" json:"proof_size"`
	Superseded   bool               `gorm:"not null;default:false" json:"-"`
	Version      int                `gorm:"not null;default:0" json:"-"`
	SubmittedAt  time.Time          `json:"submitted_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ReviewRecord is an immutable history entry appended on every recorded
// review; the submission row keeps only the latest view
type ReviewRecord struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SubmissionID uuid.UUID     `gorm:"type:uuid;not null;index" json:"submission_id"`
	ReviewerID   uuid.UUID     `gorm:"type:uuid;not null" json:"reviewer_id"`
	Score        *int          `json:"score,omitempty"`
	Qualification Qualification `gorm:"not null" json:"qualification"`
	Comments     *string       `json:"comments,omitempty"`
	AwardType    *string       `json:"award_type,omitempty"`
	AwardTitle   *string       `json:"award_title,omitempty"`
	ReviewedAt   time.Time     `json:"reviewed_at"`
}

// Notification is an outbox row recorded once per state transition
type Notification struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Kind       string         `gorm:"not null;index" json:"kind"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id,omitempty"`
	EntityType string         `gorm:"not null" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null" json:"entity_id"`
	Payload    datatypes.JSON `json:"payload"`
	CreatedAt  time.Time      `json:"created_at"`
}

// StatsSnapshot is a persisted dashboard snapshot keyed by scope. The
// scheduled worker refreshes rows and API processes read them when
// their in-memory cache misses.
type StatsSnapshot struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ScopeKey   string         `gorm:"not null;uniqueIndex" json:"scope_key"`
	Data       datatypes.JSON `gorm:"not null" json:"data"`
	ComputedAt time.Time      `gorm:"not null" json:"computed_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
