package bids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestValidateBidAmount tests the bid amount validation logic
func TestValidateBidAmount(t *testing.T) {
	const maxBid = 1_000_000_000

	tests := []struct {
		name          string
		amount        int64
		currentLeader int64
		minIncrement  int64
		wantErr       error
	}{
		{
			name:          "valid first bid - start price plus increment",
			amount:        1_050_000,
			currentLeader: 1_000_000,
			minIncrement:  50_000,
			wantErr:       nil,
		},
		{
			name:          "valid bid - well above the threshold",
			amount:        2_000_000,
			currentLeader: 1_000_000,
			minIncrement:  50_000,
			wantErr:       nil,
		},
		{
			name:          "invalid - under the leader plus increment",
			amount:        1_040_000,
			currentLeader: 1_000_000,
			minIncrement:  50_000,
			wantErr:       ErrBidTooLow,
		},
		{
			name:          "invalid - equal to the leader",
			amount:        1_000_000,
			currentLeader: 1_000_000,
			minIncrement:  50_000,
			wantErr:       ErrBidTooLow,
		},
		{
			name:          "invalid - one under the threshold",
			amount:        1_049_999,
			currentLeader: 1_000_000,
			minIncrement:  50_000,
			wantErr:       ErrBidTooLow,
		},
		{
			name:          "invalid - above the platform ceiling",
			amount:        maxBid + 1,
			currentLeader: 1_000_000,
			minIncrement:  50_000,
			wantErr:       ErrBidExceedsMax,
		},
		{
			name:          "valid - exactly at the platform ceiling",
			amount:        maxBid,
			currentLeader: 1_000_000,
			minIncrement:  50_000,
			wantErr:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBidAmount(tt.amount, tt.currentLeader, tt.minIncrement, maxBid)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestExtendedDeadline tests the anti-sniping extension rule
func TestExtendedDeadline(t *testing.T) {
	now := time.Now()

	t.Run("bid inside the closing window pushes the deadline", func(t *testing.T) {
		endDate := now.Add(30 * time.Second)

		newEnd, extended := extendedDeadline(now, endDate)

		assert.True(t, extended)
		assert.Equal(t, now.Add(extensionWindow), newEnd)
	})

	t.Run("bid just inside the window", func(t *testing.T) {
		endDate := now.Add(extensionWindow - time.Second)

		newEnd, extended := extendedDeadline(now, endDate)

		assert.True(t, extended)
		assert.Equal(t, now.Add(extensionWindow), newEnd)
	})

	t.Run("bid exactly at the window boundary is not extended", func(t *testing.T) {
		endDate := now.Add(extensionWindow)

		newEnd, extended := extendedDeadline(now, endDate)

		assert.False(t, extended)
		assert.Equal(t, endDate, newEnd)
	})

	t.Run("bid well before the window leaves the deadline alone", func(t *testing.T) {
		endDate := now.Add(5 * time.Minute)

		newEnd, extended := extendedDeadline(now, endDate)

		assert.False(t, extended)
		assert.Equal(t, endDate, newEnd)
	})
}

// TestHoldAmountFor tests the informational hold calculation
func TestHoldAmountFor(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		want   int64
	}{
		{name: "round amount", amount: 1_000_000, want: 50_000},
		{name: "truncates toward zero", amount: 99, want: 4},
		{name: "small amount holds nothing", amount: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HoldAmountFor(tt.amount))
		})
	}
}
