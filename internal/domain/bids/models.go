package bids

import (
	"time"

	"github.com/google/uuid"
)

// holdPercent is the informational reserve percentage stored per bid. It is
// recorded for the back-office but does not affect settlement.
const holdPercent = 5

// Bid represents one accepted bid. Bids are append-only; ordering by
// (amount desc, created_at asc) determines the current leader.
type Bid struct {
	ID         uuid.UUID `db:"id"`
	AuctionID  uuid.UUID `db:"auction_id"`
	BidderID   uuid.UUID `db:"bidder_id"`
	Amount     int64     `db:"amount"`
	HoldAmount int64     `db:"hold_amount"`
	CreatedAt  time.Time `db:"created_at"`
}

// HoldAmountFor computes the informational hold for a bid amount
func HoldAmountFor(amount int64) int64 {
	return amount * holdPercent / 100
}

// PlaceBidCommand represents the command to place a bid
type PlaceBidCommand struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    int64
}
