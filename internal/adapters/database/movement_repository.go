package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pujamotor/platform/internal/domain/ledger"
)

// PostgresMovementRepository implements ledger.MovementRepository using pgx
type PostgresMovementRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresMovementRepository creates a new PostgreSQL movement repository
func NewPostgresMovementRepository(pool *pgxpool.Pool) *PostgresMovementRepository {
	return &PostgresMovementRepository{pool: pool}
}

// SaveMovement appends a movement row. Movements are never updated or
// deleted afterwards.
func (r *PostgresMovementRepository) SaveMovement(ctx context.Context, tx pgx.Tx, movement *ledger.Movement) error {
	query := `
		INSERT INTO credit_movements (id, account_id, kind, amount, description, resulting_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		movement.ID,
		movement.AccountID,
		movement.Kind,
		movement.Amount,
		movement.Description,
		movement.ResultingBalance,
		movement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert movement: %w", err)
	}
	return nil
}

// ListByAccount retrieves movements for an account, newest first
func (r *PostgresMovementRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Movement, error) {
	query := `
		SELECT id, account_id, kind, amount, description, resulting_balance, created_at
		FROM credit_movements
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var result []*ledger.Movement
	for rows.Next() {
		var m ledger.Movement
		if err := rows.Scan(
			&m.ID,
			&m.AccountID,
			&m.Kind,
			&m.Amount,
			&m.Description,
			&m.ResultingBalance,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		result = append(result, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}

	return result, nil
}
