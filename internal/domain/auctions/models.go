package auctions

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an auction
type Status string

const (
	StatusDraft           Status = "draft"
	StatusPendingApproval Status = "pending_approval"
	StatusActive          Status = "active"
	StatusPaused          Status = "paused"
	StatusFinished        Status = "finished"
)

// IsValid checks if the status is one of the enumerated values
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusActive, StatusPaused, StatusFinished:
		return true
	default:
		return false
	}
}

// CanTransitionTo encodes the lifecycle table. Transitions are monotonic:
// draft -> pending_approval -> active -> {finished, paused}; paused can
// return to active; nothing ever reverts to draft.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusPendingApproval
	case StatusPendingApproval:
		return target == StatusActive
	case StatusActive:
		return target == StatusPaused || target == StatusFinished
	case StatusPaused:
		return target == StatusActive
	default:
		return false
	}
}

// IsDeletable reports whether an auction in this state may still be removed
// by its owner or an operator.
func (s Status) IsDeletable() bool {
	return s == StatusDraft || s == StatusPendingApproval
}

// Auction represents one vehicle listing put up for bidding. EndDate is
// mutable but non-decreasing; winner fields are written at most once,
// together with the transition into finished.
type Auction struct {
	ID                uuid.UUID  `db:"id"`
	VehicleID         uuid.UUID  `db:"vehicle_id"`
	SellerID          uuid.UUID  `db:"seller_id"`
	StartPrice        int64      `db:"start_price"`
	ReservePrice      int64      `db:"reserve_price"`
	MinIncrement      int64      `db:"min_increment"`
	DurationDays      int        `db:"duration_days"`
	StartDate         *time.Time `db:"start_date"`
	EndDate           *time.Time `db:"end_date"`
	Status            Status     `db:"status"`
	CurrentHighestBid int64      `db:"current_highest_bid"`
	WinnerID          *uuid.UUID `db:"winner_id"`
	WinningBid        *int64     `db:"winning_bid"`
	IsApproved        bool       `db:"is_approved"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// IsOwnedBy checks if the auction belongs to the given seller
func (a *Auction) IsOwnedBy(sellerID uuid.UUID) bool {
	return a.SellerID == sellerID
}

// Biddable reports whether the auction accepts bids at the given instant
func (a *Auction) Biddable(now time.Time) bool {
	return a.Status == StatusActive && a.EndDate != nil && now.Before(*a.EndDate)
}

// CurrentLeader returns the amount a new bid must beat: the highest accepted
// bid, or the start price while no bids exist.
func (a *Auction) CurrentLeader() int64 {
	if a.CurrentHighestBid > a.StartPrice {
		return a.CurrentHighestBid
	}
	return a.StartPrice
}

// Settlement is the recorded outcome of a finalized auction. Both fields are
// nil when the reserve was not met or no bids were placed.
type Settlement struct {
	WinnerID   *uuid.UUID
	WinningBid *int64
}

// TopBid is the leading bid of an auction as seen by the finalizer
type TopBid struct {
	BidderID uuid.UUID
	Amount   int64
}
