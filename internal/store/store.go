package store

import (
	"context"

	"torch-indexer/internal/models"
)

// EntityStore is the persistence boundary of the projection. Loads report
// (entity, found, error) so callers handle the not-found branch explicitly;
// a store error always means the projection must stop.
//
// The processed-event ledger (WasProcessed/MarkProcessed, keyed by
// txHash-logIndex) is what makes replayed events safe: the aggregate deltas
// in UserStats are not naturally idempotent.
type EntityStore interface {
	GetUser(ctx context.Context, id string) (*models.User, bool, error)
	PutUser(ctx context.Context, user *models.User) error

	GetUserStats(ctx context.Context, id string) (*models.UserStats, bool, error)
	PutUserStats(ctx context.Context, stats *models.UserStats) error

	GetBet(ctx context.Context, id string) (*models.Bet, bool, error)
	PutBet(ctx context.Context, bet *models.Bet) error
	ListBetsByUser(ctx context.Context, userID string) ([]*models.Bet, error)
	ListBetsByBucket(ctx context.Context, bucket int64) ([]*models.Bet, error)
	ListBets(ctx context.Context, limit int64) ([]*models.Bet, error)

	GetFee(ctx context.Context, id string) (*models.Fee, bool, error)
	PutFee(ctx context.Context, fee *models.Fee) error
	ListFees(ctx context.Context, limit int64) ([]*models.Fee, error)

	WasProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error

	Checkpoint(ctx context.Context) (uint64, error)
	SetCheckpoint(ctx context.Context, block uint64) error
}
