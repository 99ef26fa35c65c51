package publication

import (
	"context"
)

// CatalogRepository reads the publication-services reference table
type CatalogRepository interface {
	// PriceTable loads the full catalogue as a code -> cost map
	PriceTable(ctx context.Context) (PriceTable, error)

	// ListServices retrieves the catalogue entries for display
	ListServices(ctx context.Context) ([]*CatalogEntry, error)
}
