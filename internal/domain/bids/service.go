package bids

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/domain/identity"
	"github.com/pujamotor/platform/internal/domain/ledger"
	"github.com/pujamotor/platform/pkg/database"
	"github.com/pujamotor/platform/pkg/events"
)

// extensionWindow is the anti-sniping threshold: a bid accepted with less
// than this left on the clock pushes the deadline to acceptance + window.
const extensionWindow = 2 * time.Minute

// bidCreditCost is the ledger debit per accepted bid, in credits
const bidCreditCost = 1

// Validation errors
var (
	ErrAuctionNotActive  = errors.New("auction is not open for bidding")
	ErrBidderNotVerified = errors.New("bidder has not completed identity verification")
	ErrBidTooLow         = errors.New("bid amount must meet the current leader plus the minimum increment")
	ErrBidExceedsMax     = errors.New("bid amount exceeds the maximum allowed")
)

// validateBidAmount checks a candidate amount against the current leader,
// the auction's minimum increment, and the platform ceiling
func validateBidAmount(amount, currentLeader, minIncrement, maxBid int64) error {
	if amount < currentLeader+minIncrement {
		return ErrBidTooLow
	}
	if amount > maxBid {
		return ErrBidExceedsMax
	}
	return nil
}

// extendedDeadline computes the anti-sniping extension. It returns the new
// deadline and true when the bid landed inside the closing window; otherwise
// the deadline is unchanged.
func extendedDeadline(now, endDate time.Time) (time.Time, bool) {
	if endDate.Sub(now) < extensionWindow {
		return now.Add(extensionWindow), true
	}
	return endDate, false
}

// Service validates and records bids. A bid is accepted as one atomic unit:
// the 1-credit debit, the bid row, the leader update, the possible deadline
// extension and the owner notification event all commit together or not at
// all.
type Service struct {
	txManager   database.TransactionManager
	bidRepo     Repository
	auctionRepo auctions.Repository
	ledger      *ledger.Service
	verifier    identity.Verifier
	outboxRepo  events.OutboxRepository
	maxBid      int64
}

// NewService creates a new bid service. maxBid is the platform-wide ceiling
// for a single bid amount.
func NewService(
	txManager database.TransactionManager,
	bidRepo Repository,
	auctionRepo auctions.Repository,
	ledgerService *ledger.Service,
	verifier identity.Verifier,
	outboxRepo events.OutboxRepository,
	maxBid int64,
) *Service {
	return &Service{
		txManager:   txManager,
		bidRepo:     bidRepo,
		auctionRepo: auctionRepo,
		ledger:      ledgerService,
		verifier:    verifier,
		outboxRepo:  outboxRepo,
		maxBid:      maxBid,
	}
}

// bidPlacedPayload notifies the auction owner of a new bid
type bidPlacedPayload struct {
	BidID     uuid.UUID `json:"bid_id"`
	AuctionID uuid.UUID `json:"auction_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	BidderID  uuid.UUID `json:"bidder_id"`
	Amount    int64     `json:"amount"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaceBid validates and records a single bid.
//
// The cheap checks run against an unlocked read first so an obviously dead
// auction or unverified bidder never touches the row lock or the identity
// service from inside a transaction. Everything is then re-validated under
// FOR UPDATE against committed state: a bid that raced a faster one is
// re-checked against the winner's committed leader, not against stale data.
func (s *Service) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Bid, error) {
	auction, err := s.auctionRepo.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}

	if !auction.Biddable(time.Now()) {
		return nil, ErrAuctionNotActive
	}

	verified, err := s.verifier.IsVerified(ctx, cmd.BidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check identity verification: %w", err)
	}
	if !verified {
		return nil, ErrBidderNotVerified
	}

	var bid *Bid
	err = database.WithRetry(ctx, 3, func(ctx context.Context) error {
		var txErr error
		bid, txErr = s.placeBidTx(ctx, cmd)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *Service) placeBidTx(ctx context.Context, cmd PlaceBidCommand) (*Bid, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	// Lock the auction row. Concurrent bids on the same auction serialize
	// here and each one validates against the previous winner's commit.
	auction, err := s.auctionRepo.GetByIDForUpdate(ctx, tx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}

	// Acceptance time comes from the server clock, after the lock is held.
	now := time.Now()

	if !auction.Biddable(now) {
		return nil, ErrAuctionNotActive
	}

	if valErr := validateBidAmount(cmd.Amount, auction.CurrentLeader(), auction.MinIncrement, s.maxBid); valErr != nil {
		return nil, valErr
	}

	// Debit first: no bid row may exist without a successful debit.
	_, err = s.ledger.ApplyMovementTx(ctx, tx, ledger.ApplyMovementCommand{
		AccountID:   cmd.BidderID,
		Kind:        ledger.KindBid,
		Amount:      -bidCreditCost,
		Description: fmt.Sprintf("Bid on auction %s", cmd.AuctionID),
	})
	if err != nil {
		return nil, err
	}

	bid := &Bid{
		ID:         uuid.New(),
		AuctionID:  cmd.AuctionID,
		BidderID:   cmd.BidderID,
		Amount:     cmd.Amount,
		HoldAmount: HoldAmountFor(cmd.Amount),
		CreatedAt:  now,
	}

	if saveErr := s.bidRepo.SaveBid(ctx, tx, bid); saveErr != nil {
		return nil, fmt.Errorf("failed to save bid: %w", saveErr)
	}

	if updErr := s.auctionRepo.UpdateHighestBid(ctx, tx, cmd.AuctionID, cmd.Amount); updErr != nil {
		return nil, fmt.Errorf("failed to update highest bid: %w", updErr)
	}

	endDate := *auction.EndDate
	if newEnd, extended := extendedDeadline(now, endDate); extended {
		// Set-if-later in SQL: a slower bid's extension never rewinds a
		// faster bid's later deadline.
		if extErr := s.auctionRepo.ExtendEndDate(ctx, tx, cmd.AuctionID, newEnd); extErr != nil {
			return nil, fmt.Errorf("failed to extend deadline: %w", extErr)
		}
		endDate = newEnd
	}

	payload, err := json.Marshal(bidPlacedPayload{
		BidID:     bid.ID,
		AuctionID: bid.AuctionID,
		SellerID:  auction.SellerID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		EndDate:   endDate,
		CreatedAt: bid.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	event := &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: events.EventTypeBidPlaced,
		Payload:   payload,
		Status:    events.OutboxStatusPending,
		CreatedAt: now,
	}
	if saveErr := s.outboxRepo.SaveEvent(ctx, tx, event); saveErr != nil {
		return nil, fmt.Errorf("failed to save outbox event: %w", saveErr)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", commitErr)
	}

	return bid, nil
}

// ListBids returns all bids for an auction, leader first
func (s *Service) ListBids(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error) {
	list, err := s.bidRepo.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return list, nil
}
