package auctions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pujamotor/platform/pkg/database"
	"github.com/pujamotor/platform/pkg/events"
)

// Finalizer errors
var (
	ErrAuctionNotEnded = errors.New("auction deadline has not passed yet")
)

// decideOutcome applies the reserve-price rule to the leading bid. A nil top
// bid, or a top bid under the reserve, settles the auction without a winner.
func decideOutcome(top *TopBid, reservePrice int64) Settlement {
	if top == nil || top.Amount < reservePrice {
		return Settlement{}
	}
	winnerID := top.BidderID
	winningBid := top.Amount
	return Settlement{WinnerID: &winnerID, WinningBid: &winningBid}
}

// Finalizer settles expired auctions: it determines the winner and moves the
// auction into its terminal state exactly once. Safe to invoke repeatedly and
// concurrently; late callers observe the recorded settlement.
type Finalizer struct {
	txManager  database.TransactionManager
	repo       Repository
	bidFinder  BidFinder
	outboxRepo events.OutboxRepository
}

// NewFinalizer creates a new auction finalizer
func NewFinalizer(
	txManager database.TransactionManager,
	repo Repository,
	bidFinder BidFinder,
	outboxRepo events.OutboxRepository,
) *Finalizer {
	return &Finalizer{
		txManager:  txManager,
		repo:       repo,
		bidFinder:  bidFinder,
		outboxRepo: outboxRepo,
	}
}

// auctionWonPayload notifies the winner of the win and the amount
type auctionWonPayload struct {
	AuctionID  uuid.UUID `json:"auction_id"`
	WinnerID   uuid.UUID `json:"winner_id"`
	WinningBid int64     `json:"winning_bid"`
}

// auctionClosedPayload notifies the owner of the outcome
type auctionClosedPayload struct {
	AuctionID  uuid.UUID  `json:"auction_id"`
	SellerID   uuid.UUID  `json:"seller_id"`
	WinnerID   *uuid.UUID `json:"winner_id,omitempty"`
	WinningBid *int64     `json:"winning_bid,omitempty"`
	HadBids    bool       `json:"had_bids"`
}

// Finalize settles one auction. The row lock plus the status guard make the
// operation idempotent: a racing invocation either sees the auction still
// active and proceeds, or sees it finished and returns the recorded
// settlement without writing anything.
func (f *Finalizer) Finalize(ctx context.Context, auctionID uuid.UUID) (Settlement, error) {
	var settlement Settlement
	err := database.WithRetry(ctx, 3, func(ctx context.Context) error {
		tx, err := f.txManager.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		auction, err := f.repo.GetByIDForUpdate(ctx, tx, auctionID)
		if err != nil {
			return err
		}

		if auction.Status == StatusFinished {
			settlement = Settlement{WinnerID: auction.WinnerID, WinningBid: auction.WinningBid}
			return nil
		}

		if auction.Status != StatusActive {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, auction.Status, StatusFinished)
		}

		if auction.EndDate == nil || time.Now().Before(*auction.EndDate) {
			return ErrAuctionNotEnded
		}

		top, err := f.bidFinder.HighestBid(ctx, tx, auctionID)
		if err != nil {
			return fmt.Errorf("failed to read highest bid: %w", err)
		}

		settlement = decideOutcome(top, auction.ReservePrice)

		if err := f.repo.RecordSettlement(ctx, tx, auctionID, settlement.WinnerID, settlement.WinningBid); err != nil {
			return fmt.Errorf("failed to record settlement: %w", err)
		}

		if err := f.saveOutcomeEvents(ctx, tx, auction, settlement, top != nil); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return Settlement{}, err
	}
	return settlement, nil
}

func (f *Finalizer) saveOutcomeEvents(ctx context.Context, tx pgx.Tx, auction *Auction, settlement Settlement, hadBids bool) error {
	now := time.Now()

	if settlement.WinnerID != nil {
		wonPayload, err := json.Marshal(auctionWonPayload{
			AuctionID:  auction.ID,
			WinnerID:   *settlement.WinnerID,
			WinningBid: *settlement.WinningBid,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		wonEvent := &events.OutboxEvent{
			ID:        uuid.New(),
			EventType: events.EventTypeAuctionWon,
			Payload:   wonPayload,
			Status:    events.OutboxStatusPending,
			CreatedAt: now,
		}
		if err := f.outboxRepo.SaveEvent(ctx, tx, wonEvent); err != nil {
			return fmt.Errorf("failed to save outbox event: %w", err)
		}
	}

	closedPayload, err := json.Marshal(auctionClosedPayload{
		AuctionID:  auction.ID,
		SellerID:   auction.SellerID,
		WinnerID:   settlement.WinnerID,
		WinningBid: settlement.WinningBid,
		HadBids:    hadBids,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	closedEvent := &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: events.EventTypeAuctionClosed,
		Payload:   closedPayload,
		Status:    events.OutboxStatusPending,
		CreatedAt: now,
	}
	if err := f.outboxRepo.SaveEvent(ctx, tx, closedEvent); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}
