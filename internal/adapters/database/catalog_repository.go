package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pujamotor/platform/internal/domain/publication"
)

// PostgresCatalogRepository implements publication.CatalogRepository using pgx
type PostgresCatalogRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalogRepository creates a new PostgreSQL catalog repository
func NewPostgresCatalogRepository(pool *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{pool: pool}
}

// PriceTable loads the full catalogue as a code -> cost map
func (r *PostgresCatalogRepository) PriceTable(ctx context.Context) (publication.PriceTable, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, credit_cost FROM publication_services`)
	if err != nil {
		return nil, fmt.Errorf("failed to query price table: %w", err)
	}
	defer rows.Close()

	table := make(publication.PriceTable)
	for rows.Next() {
		var code string
		var cost int64
		if err := rows.Scan(&code, &cost); err != nil {
			return nil, fmt.Errorf("failed to scan price entry: %w", err)
		}
		table[code] = cost
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price table: %w", err)
	}

	return table, nil
}

// ListServices retrieves the catalogue entries for display
func (r *PostgresCatalogRepository) ListServices(ctx context.Context) ([]*publication.CatalogEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, credit_cost, description FROM publication_services ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	var result []*publication.CatalogEntry
	for rows.Next() {
		var entry publication.CatalogEntry
		if err := rows.Scan(&entry.Code, &entry.CreditCost, &entry.Description); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		result = append(result, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}

	return result, nil
}
