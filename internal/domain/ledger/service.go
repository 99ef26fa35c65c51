package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pujamotor/platform/pkg/database"
)

// Service errors
var (
	ErrInvalidAmount       = errors.New("movement amount must be a non-zero integer")
	ErrUnknownKind         = errors.New("unknown movement kind")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrAccountNotFound     = errors.New("account not found")
)

// ApplyMovementCommand represents the command to apply a ledger movement
type ApplyMovementCommand struct {
	AccountID   uuid.UUID
	Kind        MovementKind
	Amount      int64
	Description string
}

func validateMovement(cmd ApplyMovementCommand) error {
	if cmd.Amount == 0 {
		return ErrInvalidAmount
	}
	if !cmd.Kind.IsValid() {
		return ErrUnknownKind
	}
	return nil
}

// Service is the only writer of account balances. Every balance change goes
// through ApplyMovement, which pairs the conditional balance update with an
// immutable movement row in a single transaction.
type Service struct {
	txManager    database.TransactionManager
	accountRepo  AccountRepository
	movementRepo MovementRepository
}

// NewService creates a new ledger service
func NewService(
	txManager database.TransactionManager,
	accountRepo AccountRepository,
	movementRepo MovementRepository,
) *Service {
	return &Service{
		txManager:    txManager,
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
	}
}

// ApplyMovement applies one movement in its own transaction and returns the
// new balance.
func (s *Service) ApplyMovement(ctx context.Context, cmd ApplyMovementCommand) (int64, error) {
	var newBalance int64
	err := database.WithRetry(ctx, 3, func(ctx context.Context) error {
		tx, err := s.txManager.BeginTx(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}
		defer func() {
			_ = tx.Rollback(ctx)
		}()

		newBalance, err = s.ApplyMovementTx(ctx, tx, cmd)
		if err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// ApplyMovementTx applies one movement inside a caller-owned transaction so
// bid placement and publication can fold the debit into their own atomic
// unit. The balance update is conditional at commit time; there is no window
// for another writer to interleave into.
func (s *Service) ApplyMovementTx(ctx context.Context, tx pgx.Tx, cmd ApplyMovementCommand) (int64, error) {
	if err := validateMovement(cmd); err != nil {
		return 0, err
	}

	newBalance, err := s.accountRepo.ApplyDelta(ctx, tx, cmd.AccountID, cmd.Amount)
	if err != nil {
		return 0, err
	}

	movement := &Movement{
		ID:               uuid.New(),
		AccountID:        cmd.AccountID,
		Kind:             cmd.Kind,
		Amount:           cmd.Amount,
		Description:      cmd.Description,
		ResultingBalance: newBalance,
		CreatedAt:        time.Now(),
	}

	if err := s.movementRepo.SaveMovement(ctx, tx, movement); err != nil {
		return 0, fmt.Errorf("failed to save movement: %w", err)
	}

	return newBalance, nil
}

// GetBalance returns the committed balance for an account
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return s.accountRepo.GetBalance(ctx, accountID)
}

// ListMovements returns the account statement, newest first
func (s *Service) ListMovements(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Movement, error) {
	movements, err := s.movementRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}

// CreateAccount provisions an empty account. Accounts are created lazily on
// a user's first interaction with the credit system.
func (s *Service) CreateAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	now := time.Now()
	account := &Account{
		ID:        accountID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.accountRepo.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}
