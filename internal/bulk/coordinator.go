package bulk

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/export"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/metrics"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/notifications"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/apperrors"
	"hackforge/hackathon-portal/hackathon-portal-backend/pkg/workflows"
)

// TargetKind selects the entity collection a bulk action applies to
type TargetKind string

const (
	KindRegistrations TargetKind = "registrations"
	KindTeams         TargetKind = "teams"
)

// ActionType enumerates supported bulk actions
type ActionType string

const (
	ActionChangeStatus   ActionType = "change_status"
	ActionExport         ActionType = "export"
	ActionDelete         ActionType = "delete"
	ActionComposeMessage ActionType = "compose_message"
)

// Action describes one bulk operation
type Action struct {
	Type         ActionType `json:"type"`
	TargetStatus string     `json:"target_status,omitempty"` // change_status
	Format       string     `json:"format,omitempty"`        // export: csv or xlsx
	Confirmed    bool       `json:"confirmed,omitempty"`     // delete
	Subject      string     `json:"subject,omitempty"`       // compose_message
	Body         string     `json:"body,omitempty"`          // compose_message
}

// Result reports a completed bulk operation. File is set only for
// export actions.
type Result struct {
	Action      ActionType `json:"action"`
	Kind        TargetKind `json:"kind"`
	Applied     int        `json:"applied"`
	File        []byte     `json:"-"`
	ContentType string     `json:"-"`
	Filename    string     `json:"filename,omitempty"`
}

// Store is the persistence surface the coordinator reads and mutates
type Store interface {
	GetRegistration(ctx context.Context, id uuid.UUID) (*entities.Registration, error)
	PutRegistration(ctx context.Context, reg *entities.Registration) error
	DeleteRegistration(ctx context.Context, id uuid.UUID) error
	GetTeam(ctx context.Context, id uuid.UUID) (*entities.Team, error)
	PutTeam(ctx context.Context, team *entities.Team) error
	DeleteTeam(ctx context.Context, id uuid.UUID) error
}

// TxRunner executes fn against a transactional store so a batch commits
// or rolls back as one unit
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// Invalidator refreshes derived statistics after a batch; called once
// per affected scope, never per item
type Invalidator interface {
	Invalidate(ctx context.Context, scope entities.Scope)
}

// Notifier is the fire-and-forget notification collaborator
type Notifier interface {
	Notify(ctx context.Context, msg notifications.Message)
}

// SearchSink mirrors registration changes into the search index. A nil
// sink disables mirroring.
type SearchSink interface {
	IndexRegistration(ctx context.Context, reg *entities.Registration)
	RemoveRegistration(ctx context.Context, id string)
}

// Coordinator applies a single action to a set of selected entities as
// one logical group. Every target is validated before any mutation; a
// single invalid target rejects the whole batch.
type Coordinator struct {
	store       Store
	tx          TxRunner
	stats       Invalidator
	notifier    Notifier
	search      SearchSink
	regMachine  *workflows.StateMachine
	teamMachine *workflows.StateMachine
	logger      *zap.Logger
}

// WithSearch attaches a search mirror for registration mutations
func (c *Coordinator) WithSearch(sink SearchSink) *Coordinator {
	c.search = sink
	return c
}

// NewCoordinator creates a bulk coordinator
func NewCoordinator(store Store, tx TxRunner, stats Invalidator, notifier Notifier, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		store:       store,
		tx:          tx,
		stats:       stats,
		notifier:    notifier,
		regMachine:  workflows.NewRegistrationMachine(),
		teamMachine: workflows.NewTeamMachine(),
		logger:      logger,
	}
}

// ApplyBulkAction validates and applies one action to all selected ids.
// scopes names every stats cache slice a mutation can stale: callers
// pass the hackathon scope when one was addressed plus their own
// organizer scope, since both snapshots cover the affected rows.
func (c *Coordinator) ApplyBulkAction(ctx context.Context, kind TargetKind, ids []uuid.UUID, action Action, scopes ...entities.Scope) (*Result, error) {
	if err := c.validateAction(kind, ids, action); err != nil {
		metrics.BulkOperations.WithLabelValues(string(action.Type), "rejected").Inc()
		return nil, err
	}

	var result *Result
	var err error
	switch kind {
	case KindRegistrations:
		result, err = c.applyToRegistrations(ctx, ids, action)
	case KindTeams:
		result, err = c.applyToTeams(ctx, ids, action)
	default:
		err = apperrors.NewValidation("kind", fmt.Sprintf("unsupported target kind %q", kind))
	}
	if err != nil {
		metrics.BulkOperations.WithLabelValues(string(action.Type), "rejected").Inc()
		return nil, err
	}

	// one invalidation per affected scope, never per item
	if mutates(action.Type) {
		for _, scope := range scopes {
			c.stats.Invalidate(ctx, scope)
		}
	}
	metrics.BulkOperations.WithLabelValues(string(action.Type), "applied").Inc()
	c.logger.Info("bulk action applied",
		zap.String("action", string(action.Type)),
		zap.String("kind", string(kind)),
		zap.Int("targets", len(ids)))
	return result, nil
}

func (c *Coordinator) validateAction(kind TargetKind, ids []uuid.UUID, action Action) error {
	if len(ids) == 0 {
		return apperrors.NewValidation("ids", "at least one target is required")
	}
	switch action.Type {
	case ActionChangeStatus:
		if action.TargetStatus == "" {
			return apperrors.NewValidation("target_status", "target status is required")
		}
	case ActionExport:
		if action.Format != "csv" && action.Format != "xlsx" {
			return apperrors.NewValidation("format", "format must be csv or xlsx")
		}
	case ActionDelete:
		if !action.Confirmed {
			return apperrors.NewValidation("confirmed", "delete requires explicit confirmation")
		}
	case ActionComposeMessage:
		if strings.TrimSpace(action.Subject) == "" || strings.TrimSpace(action.Body) == "" {
			return apperrors.NewValidation("subject", "subject and body are required")
		}
	default:
		return apperrors.NewValidation("type", fmt.Sprintf("unsupported action %q", action.Type))
	}
	return nil
}

func (c *Coordinator) applyToRegistrations(ctx context.Context, ids []uuid.UUID, action Action) (*Result, error) {
	regs := make([]*entities.Registration, 0, len(ids))
	for _, id := range ids {
		reg, err := c.store.GetRegistration(ctx, id)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}

	// validate the whole selection before touching anything
	if action.Type == ActionChangeStatus {
		for _, reg := range regs {
			if err := c.regMachine.Transition(string(reg.Status), action.TargetStatus); err != nil {
				return nil, err
			}
		}
	}

	result := &Result{Action: action.Type, Kind: KindRegistrations, Applied: len(regs)}
	switch action.Type {
	case ActionChangeStatus:
		err := c.tx.InTx(ctx, func(tx Store) error {
			for _, reg := range regs {
				reg.Status = entities.RegistrationStatus(action.TargetStatus)
				if err := tx.PutRegistration(ctx, reg); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		c.mirrorRegistrations(ctx, regs)
	case ActionDelete:
		err := c.tx.InTx(ctx, func(tx Store) error {
			for _, reg := range regs {
				if err := tx.DeleteRegistration(ctx, reg.ID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if c.search != nil {
			for _, reg := range regs {
				c.search.RemoveRegistration(ctx, reg.ID.String())
			}
		}
	case ActionExport:
		file, contentType, err := c.exportRegistrations(ctx, regs, action.Format)
		if err != nil {
			return nil, err
		}
		result.File = file
		result.ContentType = contentType
		result.Filename = "registrations." + action.Format
	case ActionComposeMessage:
		c.composeMessages(ctx, "registration", idsOfRegistrations(regs), action)
	}
	return result, nil
}

func (c *Coordinator) applyToTeams(ctx context.Context, ids []uuid.UUID, action Action) (*Result, error) {
	teams := make([]*entities.Team, 0, len(ids))
	for _, id := range ids {
		team, err := c.store.GetTeam(ctx, id)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}

	if action.Type == ActionChangeStatus {
		for _, team := range teams {
			if err := c.teamMachine.Transition(string(team.Status), action.TargetStatus); err != nil {
				return nil, err
			}
		}
	}

	result := &Result{Action: action.Type, Kind: KindTeams, Applied: len(teams)}
	switch action.Type {
	case ActionChangeStatus:
		err := c.tx.InTx(ctx, func(tx Store) error {
			for _, team := range teams {
				team.Status = entities.TeamStatus(action.TargetStatus)
				if err := tx.PutTeam(ctx, team); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	case ActionDelete:
		err := c.tx.InTx(ctx, func(tx Store) error {
			for _, team := range teams {
				if err := tx.DeleteTeam(ctx, team.ID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	case ActionExport:
		file, contentType, err := exportTeams(teams, action.Format)
		if err != nil {
			return nil, err
		}
		result.File = file
		result.ContentType = contentType
		result.Filename = "teams." + action.Format
	case ActionComposeMessage:
		c.composeMessages(ctx, "team", idsOfTeams(teams), action)
	}
	return result, nil
}

func (c *Coordinator) exportRegistrations(ctx context.Context, regs []*entities.Registration, format string) ([]byte, string, error) {
	teamNames := make(map[uuid.UUID]string)
	for _, reg := range regs {
		if reg.TeamID == nil {
			continue
		}
		if _, ok := teamNames[*reg.TeamID]; ok {
			continue
		}
		team, err := c.store.GetTeam(ctx, *reg.TeamID)
		if err != nil {
			continue // detached team references render empty
		}
		teamNames[team.ID] = team.Name
	}

	values := make([]entities.Registration, len(regs))
	for i, reg := range regs {
		values[i] = *reg
	}

	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := export.WriteRegistrationsCSV(&buf, values, teamNames); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		if err := export.WriteRegistrationsExcel(&buf, values, teamNames); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	}
}

func exportTeams(teams []*entities.Team, format string) ([]byte, string, error) {
	values := make([]entities.Team, len(teams))
	for i, team := range teams {
		values[i] = *team
	}

	var buf bytes.Buffer
	switch format {
	case "csv":
		if err := export.WriteTeamsCSV(&buf, values); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil
	default:
		if err := export.WriteTeamsExcel(&buf, values); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	}
}

func (c *Coordinator) composeMessages(ctx context.Context, entityType string, ids []uuid.UUID, action Action) {
	for _, id := range ids {
		c.notifier.Notify(ctx, notifications.Message{
			Kind:       notifications.KindBulkMessage,
			EntityType: entityType,
			EntityID:   id,
			Payload: map[string]any{
				"subject": action.Subject,
				"body":    action.Body,
			},
		})
	}
}

func (c *Coordinator) mirrorRegistrations(ctx context.Context, regs []*entities.Registration) {
	if c.search == nil {
		return
	}
	for _, reg := range regs {
		c.search.IndexRegistration(ctx, reg)
	}
}

func mutates(t ActionType) bool {
	return t == ActionChangeStatus || t == ActionDelete
}

func idsOfRegistrations(regs []*entities.Registration) []uuid.UUID {
	ids := make([]uuid.UUID, len(regs))
	for i, reg := range regs {
		ids[i] = reg.ID
	}
	return ids
}

func idsOfTeams(teams []*entities.Team) []uuid.UUID {
	ids := make([]uuid.UUID, len(teams))
	for i, team := range teams {
		ids[i] = team.ID
	}
	return ids
}
