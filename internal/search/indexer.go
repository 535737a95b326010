package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/config"
	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
)

const IdxRegistrations = "registrations_v1"

const registrationsMapping = `{"settings":{"number_of_shards":1},"mappings":{"dynamic":"strict","properties":{
	"hackathon_id":{"type":"keyword"},"team_id":{"type":"keyword"},
	"name":{"type":"text"},"email":{"type":"keyword"},
	"skills":{"type":"keyword"},"status":{"type":"keyword"},
	"updated_at":{"type":"date"}
}}}`

// Indexer mirrors registrations into Elasticsearch for organizer
// free-text search. Indexing is fire-and-forget: the in-memory filter
// over current entity state stays the source of truth for statistics.
type Indexer struct {
	client *es.Client
	logger *zap.Logger
}

// Connect builds a client from config; returns nil when no address is
// configured, which disables indexing entirely.
func Connect(cfg config.SearchConfig, logger *zap.Logger) (*Indexer, error) {
	if len(cfg.Addresses) == 0 {
		return nil, nil
	}
	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("connect elasticsearch: %w", err)
	}
	return &Indexer{client: client, logger: logger}, nil
}

// EnsureIndexes creates the registration index when missing
func (ix *Indexer) EnsureIndexes(ctx context.Context) error {
	exists, err := ix.client.Indices.Exists([]string{IdxRegistrations})
	if err == nil && exists.StatusCode == 200 {
		return nil
	}
	res, err := ix.client.Indices.Create(
		IdxRegistrations,
		ix.client.Indices.Create.WithBody(bytes.NewBufferString(registrationsMapping)),
		ix.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", IdxRegistrations, err)
	}
	defer res.Body.Close()
	return nil
}

// RegistrationDoc is the indexed projection of a registration
type RegistrationDoc struct {
	HackathonID string    `json:"hackathon_id"`
	TeamID      string    `json:"team_id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Skills      []string  `json:"skills"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IndexRegistration upserts one registration document. Failures are
// logged, never propagated to the mutation that triggered them.
func (ix *Indexer) IndexRegistration(ctx context.Context, reg *entities.Registration) {
	doc := RegistrationDoc{
		HackathonID: reg.HackathonID.String(),
		Name:        reg.Name,
		Email:       reg.Email,
		Skills:      reg.SkillList(),
		Status:      string(reg.Status),
		UpdatedAt:   reg.UpdatedAt,
	}
	if reg.TeamID != nil {
		doc.TeamID = reg.TeamID.String()
	}

	body, err := json.Marshal(doc)
	if err != nil {
		ix.logger.Warn("failed to encode registration doc", zap.Error(err))
		return
	}
	res, err := ix.client.Index(
		IdxRegistrations,
		bytes.NewReader(body),
		ix.client.Index.WithDocumentID(reg.ID.String()),
		ix.client.Index.WithContext(ctx),
	)
	if err != nil {
		ix.logger.Warn("failed to index registration",
			zap.String("registration_id", reg.ID.String()), zap.Error(err))
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		ix.logger.Warn("elasticsearch rejected registration doc",
			zap.String("registration_id", reg.ID.String()),
			zap.String("status", res.Status()))
	}
}

// RemoveRegistration deletes one registration document
func (ix *Indexer) RemoveRegistration(ctx context.Context, id string) {
	res, err := ix.client.Delete(
		IdxRegistrations, id,
		ix.client.Delete.WithContext(ctx),
	)
	if err != nil {
		ix.logger.Warn("failed to remove registration doc",
			zap.String("registration_id", id), zap.Error(err))
		return
	}
	defer res.Body.Close()
}
