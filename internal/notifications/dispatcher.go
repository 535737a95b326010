package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/metrics"
)

// Message kinds emitted by the core. Dispatch happens at most once per
// state transition and is never retried.
const (
	KindVerificationDecided = "verification.decided"
	KindVerificationPending = "verification.pending"
	KindReviewCompleted     = "review.completed"
	KindBulkMessage         = "bulk.message"
)

// Message is a notification event pushed to connected dashboards
type Message struct {
	Kind       string         `json:"kind"`
	UserID     *uuid.UUID     `json:"user_id,omitempty"`
	EntityType string         `json:"entity_type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	Payload    map[string]any `json:"payload,omitempty"`
	SentAt     time.Time      `json:"sent_at"`
}

// OutboxStore persists one row per dispatched notification
type OutboxStore interface {
	CreateNotification(ctx context.Context, n *entities.Notification) error
}

// Broadcaster pushes a message to connected clients
type Broadcaster interface {
	Broadcast(msg Message)
}

// Dispatcher is the fire-and-forget notification collaborator. Delivery
// failures are logged, never surfaced to the mutating operation.
type Dispatcher struct {
	outbox OutboxStore
	hub    Broadcaster
	logger *zap.Logger
}

// NewDispatcher creates a dispatcher. hub may be nil when no dashboard
// push channel is configured.
func NewDispatcher(outbox OutboxStore, hub Broadcaster, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{outbox: outbox, hub: hub, logger: logger}
}

// Notify records and broadcasts a single notification
func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}

	payload, err := json.Marshal(msg.Payload)
	if err != nil {
		d.logger.Warn("failed to encode notification payload",
			zap.String("kind", msg.Kind), zap.Error(err))
		payload = []byte("{}")
	}

	row := &entities.Notification{
		ID:         uuid.New(),
		Kind:       msg.Kind,
		UserID:     msg.UserID,
		EntityType: msg.EntityType,
		EntityID:   msg.EntityID,
		Payload:    datatypes.JSON(payload),
		CreatedAt:  msg.SentAt,
	}
	if err := d.outbox.CreateNotification(ctx, row); err != nil {
		d.logger.Warn("failed to record notification",
			zap.String("kind", msg.Kind), zap.Error(err))
	}

	if d.hub != nil {
		d.hub.Broadcast(msg)
	}
	metrics.NotificationsDispatched.Inc()
}
