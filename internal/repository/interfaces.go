package repository

import (
	"context"

	"github.com/leftovers/server/internal/models"
)

// LeftoverUpdate changes the mutable fields of a persisted leftover
type LeftoverUpdate struct {
	ID          string
	Description string
	Owner       string
}

// SyncChanges is the relational side of a reconciliation plan
type SyncChanges struct {
	DeleteIDs []string
	Updates   []LeftoverUpdate
	// Creates must carry ImageURLs of photos that are already stored
	Creates []models.Leftover
	Name    string
}

// PartyRepo defines the interface for party persistence operations
type PartyRepo interface {
	Create(ctx context.Context, party *models.Party) error
	// GetByID returns the party with its leftovers, or nil when unknown
	GetByID(ctx context.Context, id string) (*models.Party, error)
	// Synchronize applies changes in a single transaction and returns the
	// re-read party. Nothing is persisted when an error is returned.
	Synchronize(ctx context.Context, partyID string, changes SyncChanges) (*models.Party, error)
	// SetOwner updates one leftover's owner, returning nil when unknown
	SetOwner(ctx context.Context, leftoverID, owner string) (*models.Leftover, error)
	Close() error
}
