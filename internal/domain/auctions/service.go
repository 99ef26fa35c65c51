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

// Service errors
var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrInvalidTransition = errors.New("transition not permitted from current status")
	ErrNotDeletable      = errors.New("auction can only be deleted while in draft or pending approval")
	ErrUnauthorized      = errors.New("unauthorized: only the owner or an operator can perform this action")
)

// Service owns the auction lifecycle. All transitions go through the
// CanTransitionTo table; violations surface as ErrInvalidTransition.
type Service struct {
	txManager  database.TransactionManager
	repo       Repository
	outboxRepo events.OutboxRepository
}

// NewService creates a new auction lifecycle service
func NewService(
	txManager database.TransactionManager,
	repo Repository,
	outboxRepo events.OutboxRepository,
) *Service {
	return &Service{
		txManager:  txManager,
		repo:       repo,
		outboxRepo: outboxRepo,
	}
}

// auctionApprovedPayload is the event body relayed to the notification
// collaborator when an auction goes live.
type auctionApprovedPayload struct {
	AuctionID uuid.UUID `json:"auction_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Approve moves a submitted auction to active. The bidding window starts at
// approval time, not at creation time: start_date = now,
// end_date = now + duration_days.
func (s *Service) Approve(ctx context.Context, auctionID uuid.UUID) (*Auction, error) {
	var approved *Auction
	err := database.WithRetry(ctx, 3, func(ctx context.Context) error {
		tx, err := s.txManager.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		auction, err := s.repo.GetByIDForUpdate(ctx, tx, auctionID)
		if err != nil {
			return err
		}

		if auction.Status != StatusPendingApproval {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, auction.Status, StatusActive)
		}

		now := time.Now()
		startDate := now
		endDate := now.AddDate(0, 0, auction.DurationDays)

		if err := s.repo.Activate(ctx, tx, auctionID, startDate, endDate); err != nil {
			return fmt.Errorf("failed to activate auction: %w", err)
		}

		payload, err := json.Marshal(auctionApprovedPayload{
			AuctionID: auctionID,
			SellerID:  auction.SellerID,
			StartDate: startDate,
			EndDate:   endDate,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		if err := s.saveEvent(ctx, tx, events.EventTypeAuctionApproved, payload); err != nil {
			return err
		}

		auction.Status = StatusActive
		auction.IsApproved = true
		auction.StartDate = &startDate
		auction.EndDate = &endDate
		approved = auction

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Pause suspends bidding on an active auction
func (s *Service) Pause(ctx context.Context, auctionID uuid.UUID) error {
	return s.transition(ctx, auctionID, StatusPaused)
}

// Resume re-enables bidding on a paused auction. The deadline is left
// untouched; time spent paused is not given back.
func (s *Service) Resume(ctx context.Context, auctionID uuid.UUID) error {
	return s.transition(ctx, auctionID, StatusActive)
}

func (s *Service) transition(ctx context.Context, auctionID uuid.UUID, target Status) error {
	return database.WithRetry(ctx, 3, func(ctx context.Context) error {
		tx, err := s.txManager.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		auction, err := s.repo.GetByIDForUpdate(ctx, tx, auctionID)
		if err != nil {
			return err
		}

		if !auction.Status.CanTransitionTo(target) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, auction.Status, target)
		}

		if err := s.repo.UpdateStatus(ctx, tx, auctionID, target); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		return tx.Commit(ctx)
	})
}

// Delete removes an auction that has not yet gone live
func (s *Service) Delete(ctx context.Context, auctionID uuid.UUID) error {
	auction, err := s.repo.GetByID(ctx, auctionID)
	if err != nil {
		return err
	}

	if !auction.Status.IsDeletable() {
		return ErrNotDeletable
	}

	if err := s.repo.DeleteAuction(ctx, auctionID); err != nil {
		return fmt.Errorf("failed to delete auction: %w", err)
	}
	return nil
}

// Get retrieves an auction by ID
func (s *Service) Get(ctx context.Context, auctionID uuid.UUID) (*Auction, error) {
	return s.repo.GetByID(ctx, auctionID)
}

// ListActive retrieves active auctions with pagination
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]*Auction, error) {
	list, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list active auctions: %w", err)
	}
	return list, nil
}

func (s *Service) saveEvent(ctx context.Context, tx pgx.Tx, eventType string, payload []byte) error {
	event := &events.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    events.OutboxStatusPending,
		CreatedAt: time.Now(),
	}
	if err := s.outboxRepo.SaveEvent(ctx, tx, event); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}
	return nil
}
