package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	// CreateAccount creates a new account with a zero balance
	CreateAccount(ctx context.Context, account *Account) error

	// GetAccountByID retrieves an account by its ID
	GetAccountByID(ctx context.Context, accountID uuid.UUID) (*Account, error)

	// GetBalance returns the committed balance for an account
	GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error)

	// ApplyDelta adjusts the balance by delta within a transaction and
	// returns the new balance. The update is conditional on the resulting
	// balance staying non-negative; a debit past zero fails with
	// ErrInsufficientCredits and writes nothing.
	ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta int64) (int64, error)
}

// MovementRepository defines the interface for movement persistence
type MovementRepository interface {
	// SaveMovement appends a movement within a transaction
	SaveMovement(ctx context.Context, tx pgx.Tx, movement *Movement) error

	// ListByAccount retrieves movements for an account, newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Movement, error)
}
