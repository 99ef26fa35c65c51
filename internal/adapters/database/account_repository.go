package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pujamotor/platform/internal/domain/ledger"
)

// PostgresAccountRepository implements ledger.AccountRepository using pgx
type PostgresAccountRepository struct {
	pool *pgxpool.Pool // for non-transactional reads
}

// NewPostgresAccountRepository creates a new PostgreSQL account repository
func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// CreateAccount creates a new account row
func (r *PostgresAccountRepository) CreateAccount(ctx context.Context, account *ledger.Account) error {
	query := `
		INSERT INTO accounts (id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.pool.Exec(ctx, query,
		account.ID,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

// GetAccountByID retrieves an account by its ID
func (r *PostgresAccountRepository) GetAccountByID(ctx context.Context, accountID uuid.UUID) (*ledger.Account, error) {
	query := `
		SELECT id, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	var account ledger.Account
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&account.ID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetBalance returns the committed balance for an account
func (r *PostgresAccountRepository) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `SELECT balance FROM accounts WHERE id = $1`

	var balance int64
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ledger.ErrAccountNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// ApplyDelta adjusts the balance conditionally: the update only lands when
// the resulting balance stays non-negative, so two racing debits can never
// both spend the last credit.
func (r *PostgresAccountRepository) ApplyDelta(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, delta int64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING balance
	`
	var newBalance int64
	err := tx.QueryRow(ctx, query, delta, accountID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Zero rows: either the account does not exist or the debit
			// would go below zero. Probe which.
			var exists bool
			probeErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
			if probeErr != nil {
				return 0, fmt.Errorf("failed to probe account: %w", probeErr)
			}
			if !exists {
				return 0, ledger.ErrAccountNotFound
			}
			return 0, ledger.ErrInsufficientCredits
		}
		return 0, fmt.Errorf("failed to apply balance delta: %w", err)
	}
	return newBalance, nil
}
