package bulk

import (
	"context"

	"hackforge/hackathon-portal/hackathon-portal-backend/internal/entities"
)

// storeTxRunner adapts the gorm store's transaction helper to the
// coordinator's TxRunner surface
type storeTxRunner struct {
	store *entities.Store
}

// NewTxRunner wraps an entities store
func NewTxRunner(store *entities.Store) TxRunner {
	return &storeTxRunner{store: store}
}

func (r *storeTxRunner) InTx(ctx context.Context, fn func(tx Store) error) error {
	return r.store.WithTx(ctx, func(tx *entities.Store) error {
		return fn(tx)
	})
}
