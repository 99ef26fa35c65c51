package publication

import (
	"github.com/google/uuid"
)

// CatalogEntry is one entry of the static publication-services catalogue
type CatalogEntry struct {
	Code        string `db:"code"`
	CreditCost  int64  `db:"credit_cost"`
	Description string `db:"description"`
}

// CreateDraftCommand starts a listing. No credits are committed while the
// auction stays in draft.
type CreateDraftCommand struct {
	SellerID     uuid.UUID
	VehicleID    uuid.UUID
	StartPrice   int64
	ReservePrice int64
	MinIncrement int64
	DurationDays int
}

// SubmitCommand submits a draft for operator approval, charging the seller
// for the basic publication plus the selected add-on services.
type SubmitCommand struct {
	AuctionID uuid.UUID
	SellerID  uuid.UUID
	Services  []string
}
