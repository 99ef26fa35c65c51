package bids

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for bid persistence
type Repository interface {
	// SaveBid appends a bid within a transaction
	SaveBid(ctx context.Context, tx pgx.Tx, bid *Bid) error

	// GetBidByID retrieves a bid by its ID
	GetBidByID(ctx context.Context, bidID uuid.UUID) (*Bid, error)

	// ListByAuction retrieves all bids for an auction, leader first
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
}
