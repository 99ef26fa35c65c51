package auctions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for auction persistence
type Repository interface {
	// CreateAuction creates a new auction within a transaction
	CreateAuction(ctx context.Context, tx pgx.Tx, auction *Auction) error

	// GetByID retrieves an auction by its ID
	GetByID(ctx context.Context, auctionID uuid.UUID) (*Auction, error)

	// GetByIDForUpdate retrieves an auction and locks its row for update.
	// Must be called within a transaction.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (*Auction, error)

	// UpdateStatus updates the auction status within a transaction
	UpdateStatus(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, status Status) error

	// Activate moves the auction to active and stamps the bidding window
	Activate(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, startDate, endDate time.Time) error

	// UpdateHighestBid updates the current highest bid within a transaction
	UpdateHighestBid(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, amount int64) error

	// ExtendEndDate pushes the deadline forward within a transaction. The
	// write is set-if-later: an earlier candidate never rewinds the deadline.
	ExtendEndDate(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, endDate time.Time) error

	// RecordSettlement sets the winner fields and the finished status as one
	// atomic write
	RecordSettlement(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, winnerID *uuid.UUID, winningBid *int64) error

	// DeleteAuction removes an auction
	DeleteAuction(ctx context.Context, auctionID uuid.UUID) error

	// ListActive retrieves active auctions with pagination
	ListActive(ctx context.Context, limit, offset int) ([]*Auction, error)

	// ListExpired returns IDs of active auctions whose deadline has passed
	ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// BidFinder exposes the single bid lookup the finalizer needs. Returns nil
// when the auction has no bids. Ordering is amount desc, created_at asc.
type BidFinder interface {
	HighestBid(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (*TopBid, error)
}
