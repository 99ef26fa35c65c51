package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pujamotor/platform/internal/domain/auctions"
	pkgdb "github.com/pujamotor/platform/pkg/database"
)

// PostgresAuctionRepository implements auctions.Repository using pgx
type PostgresAuctionRepository struct {
	pool *pgxpool.Pool // for non-transactional reads
}

// NewPostgresAuctionRepository creates a new PostgreSQL auction repository
func NewPostgresAuctionRepository(pool *pgxpool.Pool) *PostgresAuctionRepository {
	return &PostgresAuctionRepository{pool: pool}
}

const auctionColumns = `id, vehicle_id, seller_id, start_price, reserve_price, min_increment,
		duration_days, start_date, end_date, status, current_highest_bid,
		winner_id, winning_bid, is_approved, created_at, updated_at`

// CreateAuction inserts a new auction row
func (r *PostgresAuctionRepository) CreateAuction(ctx context.Context, tx pgx.Tx, auction *auctions.Auction) error {
	query := `
		INSERT INTO auctions (` + auctionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := tx.Exec(ctx, query,
		auction.ID,
		auction.VehicleID,
		auction.SellerID,
		auction.StartPrice,
		auction.ReservePrice,
		auction.MinIncrement,
		auction.DurationDays,
		auction.StartDate,
		auction.EndDate,
		auction.Status,
		auction.CurrentHighestBid,
		auction.WinnerID,
		auction.WinningBid,
		auction.IsApproved,
		auction.CreatedAt,
		auction.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}
	return nil
}

// GetByID retrieves an auction by its ID (non-transactional read)
func (r *PostgresAuctionRepository) GetByID(ctx context.Context, auctionID uuid.UUID) (*auctions.Auction, error) {
	return r.getByID(ctx, r.pool, auctionID, false)
}

// GetByIDForUpdate retrieves an auction and locks its row. Bid placement,
// approval and finalization all serialize on this lock.
func (r *PostgresAuctionRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID) (*auctions.Auction, error) {
	return r.getByID(ctx, tx, auctionID, true)
}

func (r *PostgresAuctionRepository) getByID(ctx context.Context, db pkgdb.DBTX, auctionID uuid.UUID, forUpdate bool) (*auctions.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var a auctions.Auction
	err := db.QueryRow(ctx, query, auctionID).Scan(
		&a.ID,
		&a.VehicleID,
		&a.SellerID,
		&a.StartPrice,
		&a.ReservePrice,
		&a.MinIncrement,
		&a.DurationDays,
		&a.StartDate,
		&a.EndDate,
		&a.Status,
		&a.CurrentHighestBid,
		&a.WinnerID,
		&a.WinningBid,
		&a.IsApproved,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auctions.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("failed to get auction: %w", err)
	}
	return &a, nil
}

// UpdateStatus updates the auction status
func (r *PostgresAuctionRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, status auctions.Status) error {
	query := `
		UPDATE auctions
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, status, auctionID)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auctions.ErrAuctionNotFound
	}
	return nil
}

// Activate moves the auction to active and stamps the bidding window
func (r *PostgresAuctionRepository) Activate(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, startDate, endDate time.Time) error {
	query := `
		UPDATE auctions
		SET status = $1, is_approved = TRUE, start_date = $2, end_date = $3, updated_at = NOW()
		WHERE id = $4
	`
	result, err := tx.Exec(ctx, query, auctions.StatusActive, startDate, endDate, auctionID)
	if err != nil {
		return fmt.Errorf("failed to activate auction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auctions.ErrAuctionNotFound
	}
	return nil
}

// UpdateHighestBid updates the current highest bid
func (r *PostgresAuctionRepository) UpdateHighestBid(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, amount int64) error {
	query := `
		UPDATE auctions
		SET current_highest_bid = $1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, amount, auctionID)
	if err != nil {
		return fmt.Errorf("failed to update highest bid: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auctions.ErrAuctionNotFound
	}
	return nil
}

// ExtendEndDate pushes the deadline forward. GREATEST keeps the write
// set-if-later: the deadline never moves backward, whatever order racing
// extensions commit in.
func (r *PostgresAuctionRepository) ExtendEndDate(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, endDate time.Time) error {
	query := `
		UPDATE auctions
		SET end_date = GREATEST(end_date, $1), updated_at = NOW()
		WHERE id = $2
	`
	result, err := tx.Exec(ctx, query, endDate, auctionID)
	if err != nil {
		return fmt.Errorf("failed to extend end date: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auctions.ErrAuctionNotFound
	}
	return nil
}

// RecordSettlement writes the winner fields together with the terminal
// status. The status guard in SQL keeps a racing finalizer from ever
// re-assigning a winner.
func (r *PostgresAuctionRepository) RecordSettlement(ctx context.Context, tx pgx.Tx, auctionID uuid.UUID, winnerID *uuid.UUID, winningBid *int64) error {
	query := `
		UPDATE auctions
		SET status = $1, winner_id = $2, winning_bid = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`
	result, err := tx.Exec(ctx, query, auctions.StatusFinished, winnerID, winningBid, auctionID, auctions.StatusActive)
	if err != nil {
		return fmt.Errorf("failed to record settlement: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auctions.ErrAuctionNotFound
	}
	return nil
}

// DeleteAuction removes an auction row
func (r *PostgresAuctionRepository) DeleteAuction(ctx context.Context, auctionID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM auctions WHERE id = $1`, auctionID)
	if err != nil {
		return fmt.Errorf("failed to delete auction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return auctions.ErrAuctionNotFound
	}
	return nil
}

// ListActive retrieves active auctions with pagination
func (r *PostgresAuctionRepository) ListActive(ctx context.Context, limit, offset int) ([]*auctions.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auctions
		WHERE status = $1
		ORDER BY end_date ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, auctions.StatusActive, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query auctions: %w", err)
	}
	defer rows.Close()

	var result []*auctions.Auction
	for rows.Next() {
		var a auctions.Auction
		if err := rows.Scan(
			&a.ID,
			&a.VehicleID,
			&a.SellerID,
			&a.StartPrice,
			&a.ReservePrice,
			&a.MinIncrement,
			&a.DurationDays,
			&a.StartDate,
			&a.EndDate,
			&a.Status,
			&a.CurrentHighestBid,
			&a.WinnerID,
			&a.WinningBid,
			&a.IsApproved,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		result = append(result, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating auctions: %w", err)
	}

	return result, nil
}

// ListExpired returns IDs of active auctions whose deadline has passed
func (r *PostgresAuctionRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM auctions
		WHERE status = $1 AND end_date <= $2
		ORDER BY end_date ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, auctions.StatusActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query expired auctions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan auction id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expired auctions: %w", err)
	}

	return ids, nil
}
