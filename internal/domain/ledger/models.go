package ledger

import (
	"time"

	"github.com/google/uuid"
)

// MovementKind classifies a ledger movement
type MovementKind string

const (
	KindPurchase        MovementKind = "purchase"
	KindBid             MovementKind = "bid"
	KindPublication     MovementKind = "publication"
	KindHighlight       MovementKind = "highlight"
	KindRenewal         MovementKind = "renewal"
	KindPenalty         MovementKind = "penalty"
	KindBonus           MovementKind = "bonus"
	KindAdminAdjustment MovementKind = "admin_adjustment"
)

// IsValid checks if the movement kind is one of the enumerated values
func (k MovementKind) IsValid() bool {
	switch k {
	case KindPurchase, KindBid, KindPublication, KindHighlight,
		KindRenewal, KindPenalty, KindBonus, KindAdminAdjustment:
		return true
	default:
		return false
	}
}

// Account holds a user's credit balance. The balance is only ever written
// through ApplyMovement and never goes below zero.
type Account struct {
	ID        uuid.UUID `db:"id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Movement is one immutable, signed adjustment to an account's balance.
// ResultingBalance snapshots the balance after the movement for auditing.
type Movement struct {
	ID               uuid.UUID    `db:"id"`
	AccountID        uuid.UUID    `db:"account_id"`
	Kind             MovementKind `db:"kind"`
	Amount           int64        `db:"amount"`
	Description      string       `db:"description"`
	ResultingBalance int64        `db:"resulting_balance"`
	CreatedAt        time.Time    `db:"created_at"`
}
