package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/domain/bids"
)

// PostgresBidRepository implements bids.Repository and auctions.BidFinder
// using pgx
type PostgresBidRepository struct {
	pool *pgxpool.Pool // for non-transactional reads
}

// NewPostgresBidRepository creates a new PostgreSQL bid repository
func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

// SaveBid appends a bid row
func (r *PostgresBidRepository) SaveBid(ctx context.Context, tx pgx.Tx, bid *bids.Bid) error {
	query := `
		INSERT INTO bids (id, auction_id, bidder_id, amount, hold_amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Exec(ctx, query,
		bid.ID,
		bid.AuctionID,
		bid.BidderID,
		bid.Amount,
		bid.HoldAmount,
		bid.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert bid: %w", err)
	}
	return nil
}

// GetBidByID retrieves a bid by its ID
func (r *PostgresBidRepository) GetBidByID(ctx context.Context, bidID uuid.UUID) (*bids.Bid, error) {
	query := `
		SELECT id, auction_id, bidder_id, amount, hold_amount, created_at
		FROM bids
		WHERE id = $1
	`
	var bid bids.Bid
	err := r.pool.QueryRow(ctx, query, bidID).Scan(
		&bid.ID,
		&bid.AuctionID,
		&bid.BidderID,
		&bid.Amount,
		&bid.HoldAmount,
		&bid.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("bid not found")
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}
	return &bid, nil
}

// ListByAuction retrieves all bids for an auction, leader first
func (r *PostgresBidRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*bids.Bid, error) {
	query := `
		SELECT id, auction_id, bidder_id, amount, hold_amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
	`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	var result []*bids.Bid
	for rows.Next() {
		var bid bids.Bid
		if err := rows.Scan(
			&bid.ID,
			&bid.AuctionID,
			&bid.BidderID,
			&bid.Amount,
			&bid.HoldAmount,
			&bid.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		result = append(result, &bid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", err)
	}

	return result, nil
}

// HighestBid returns the leading bid for the finalizer, nil when the auction
// has no bids. Ties on amount go to the earliest bid.
func (r *PostgresBidRepository) HighestBid(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (*auctions.TopBid, error) {
	query := `
		SELECT bidder_id, amount
		FROM bids
		WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1
	`
	var top auctions.TopBid
	err := tx.QueryRow(ctx, query, auctionID).Scan(&top.BidderID, &top.Amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get highest bid: %w", err)
	}
	return &top, nil
}
