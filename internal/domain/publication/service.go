package publication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/domain/ledger"
	"github.com/pujamotor/platform/pkg/database"
	"github.com/pujamotor/platform/pkg/events"
)

// Validation errors
var (
	ErrInvalidStartPrice = errors.New("start price must be greater than 0")
	ErrInvalidReserve    = errors.New("reserve price must not be negative")
	ErrInvalidIncrement  = errors.New("minimum increment must be greater than 0")
	ErrInvalidDuration   = errors.New("duration must be at least 1 day")
)

func validateListing(cmd CreateDraftCommand) error {
	if cmd.StartPrice <= 0 {
		return ErrInvalidStartPrice
	}
	if cmd.ReservePrice < 0 {
		return ErrInvalidReserve
	}
	if cmd.MinIncrement <= 0 {
		return ErrInvalidIncrement
	}
	if cmd.DurationDays < 1 {
		return ErrInvalidDuration
	}
	return nil
}

// Service drives the seller publication flow: draft creation, cost
// calculation and the credit-charged submission into pending approval.
type Service struct {
	txManager   database.TransactionManager
	auctionRepo auctions.Repository
	catalogRepo CatalogRepository
	ledger      *ledger.Service
	outboxRepo  events.OutboxRepository
}

// NewService creates a new publication service
func NewService(
	txManager database.TransactionManager,
	auctionRepo auctions.Repository,
	catalogRepo CatalogRepository,
	ledgerService *ledger.Service,
	outboxRepo events.OutboxRepository,
) *Service {
	return &Service{
		txManager:   txManager,
		auctionRepo: auctionRepo,
		catalogRepo: catalogRepo,
		ledger:      ledgerService,
		outboxRepo:  outboxRepo,
	}
}

// CreateDraft starts a listing in draft. Nothing is charged yet and the
// auction stays invisible to bidders.
func (s *Service) CreateDraft(ctx context.Context, cmd CreateDraftCommand) (*auctions.Auction, error) {
	if err := validateListing(cmd); err != nil {
		return nil, err
	}

	now := time.Now()
	auction := &auctions.Auction{
		ID:           uuid.New(),
		VehicleID:    cmd.VehicleID,
		SellerID:     cmd.SellerID,
		StartPrice:   cmd.StartPrice,
		ReservePrice: cmd.ReservePrice,
		MinIncrement: cmd.MinIncrement,
		DurationDays: cmd.DurationDays,
		Status:       auctions.StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := s.auctionRepo.CreateAuction(ctx, tx, auction); err != nil {
		return nil, fmt.Errorf("failed to create auction: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return auction, nil
}

// QuoteCost returns the credits a submission with the given add-ons would
// cost, without charging anything.
func (s *Service) QuoteCost(ctx context.Context, services []string) (int64, error) {
	table, err := s.catalogRepo.PriceTable(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load price table: %w", err)
	}
	return TotalCost(services, table), nil
}

// auctionSubmittedPayload is relayed to the back-office when a listing is
// submitted for review.
type auctionSubmittedPayload struct {
	AuctionID uuid.UUID `json:"auction_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Cost      int64     `json:"cost"`
	Services  []string  `json:"services"`
}

// Submit charges the seller and moves the draft into pending approval. The
// ledger debit and the status change commit as one unit: a seller without
// enough credits keeps an uncharged draft.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*auctions.Auction, error) {
	table, err := s.catalogRepo.PriceTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price table: %w", err)
	}
	cost := TotalCost(cmd.Services, table)

	var submitted *auctions.Auction
	err = database.WithRetry(ctx, 3, func(ctx context.Context) error {
		tx, err := s.txManager.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		auction, err := s.auctionRepo.GetByIDForUpdate(ctx, tx, cmd.AuctionID)
		if err != nil {
			return err
		}

		if !auction.IsOwnedBy(cmd.SellerID) {
			return auctions.ErrUnauthorized
		}

		if !auction.Status.CanTransitionTo(auctions.StatusPendingApproval) {
			return fmt.Errorf("%w: %s -> %s", auctions.ErrInvalidTransition, auction.Status, auctions.StatusPendingApproval)
		}

		if cost > 0 {
			_, err = s.ledger.ApplyMovementTx(ctx, tx, ledger.ApplyMovementCommand{
				AccountID:   cmd.SellerID,
				Kind:        ledger.KindPublication,
				Amount:      -cost,
				Description: fmt.Sprintf("Publication of auction %s", cmd.AuctionID),
			})
			if err != nil {
				return err
			}
		}

		if err := s.auctionRepo.UpdateStatus(ctx, tx, cmd.AuctionID, auctions.StatusPendingApproval); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		payload, err := json.Marshal(auctionSubmittedPayload{
			AuctionID: cmd.AuctionID,
			SellerID:  cmd.SellerID,
			Cost:      cost,
			Services:  cmd.Services,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		event := &events.OutboxEvent{
			ID:        uuid.New(),
			EventType: events.EventTypeAuctionSubmitted,
			Payload:   payload,
			Status:    events.OutboxStatusPending,
			CreatedAt: time.Now(),
		}
		if err := s.outboxRepo.SaveEvent(ctx, tx, event); err != nil {
			return fmt.Errorf("failed to save outbox event: %w", err)
		}

		auction.Status = auctions.StatusPendingApproval
		submitted = auction

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}
	return submitted, nil
}

// ListServices exposes the catalogue for the publication form
func (s *Service) ListServices(ctx context.Context) ([]*CatalogEntry, error) {
	entries, err := s.catalogRepo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return entries, nil
}
