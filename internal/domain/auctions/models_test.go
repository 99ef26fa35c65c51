package auctions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestStatus_CanTransitionTo tests the lifecycle transition table
func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name   string
		from   Status
		to     Status
		want   bool
	}{
		{name: "draft to pending approval", from: StatusDraft, to: StatusPendingApproval, want: true},
		{name: "pending approval to active", from: StatusPendingApproval, to: StatusActive, want: true},
		{name: "active to paused", from: StatusActive, to: StatusPaused, want: true},
		{name: "active to finished", from: StatusActive, to: StatusFinished, want: true},
		{name: "paused to active", from: StatusPaused, to: StatusActive, want: true},
		{name: "draft to active skips review", from: StatusDraft, to: StatusActive, want: false},
		{name: "pending approval back to draft", from: StatusPendingApproval, to: StatusDraft, want: false},
		{name: "paused to finished", from: StatusPaused, to: StatusFinished, want: false},
		{name: "finished is terminal", from: StatusFinished, to: StatusActive, want: false},
		{name: "finished back to draft", from: StatusFinished, to: StatusDraft, want: false},
		{name: "self transition", from: StatusActive, to: StatusActive, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.from.CanTransitionTo(tt.to)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestStatus_IsDeletable tests which states still allow removal
func TestStatus_IsDeletable(t *testing.T) {
	assert.True(t, StatusDraft.IsDeletable())
	assert.True(t, StatusPendingApproval.IsDeletable())
	assert.False(t, StatusActive.IsDeletable())
	assert.False(t, StatusPaused.IsDeletable())
	assert.False(t, StatusFinished.IsDeletable())
}

// TestAuction_Biddable tests the bidding window check
func TestAuction_Biddable(t *testing.T) {
	now := time.Now()
	future := now.Add(1 * time.Hour)
	past := now.Add(-1 * time.Hour)

	tests := []struct {
		name    string
		status  Status
		endDate *time.Time
		want    bool
	}{
		{name: "active before deadline", status: StatusActive, endDate: &future, want: true},
		{name: "active after deadline", status: StatusActive, endDate: &past, want: false},
		{name: "paused before deadline", status: StatusPaused, endDate: &future, want: false},
		{name: "finished", status: StatusFinished, endDate: &past, want: false},
		{name: "draft without dates", status: StatusDraft, endDate: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Auction{Status: tt.status, EndDate: tt.endDate}
			assert.Equal(t, tt.want, a.Biddable(now))
		})
	}
}

// TestAuction_CurrentLeader tests the amount a new bid must beat
func TestAuction_CurrentLeader(t *testing.T) {
	tests := []struct {
		name    string
		start   int64
		highest int64
		want    int64
	}{
		{name: "no bids yet - leader is the start price", start: 1_000_000, highest: 0, want: 1_000_000},
		{name: "bid above start price leads", start: 1_000_000, highest: 1_200_000, want: 1_200_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Auction{StartPrice: tt.start, CurrentHighestBid: tt.highest}
			assert.Equal(t, tt.want, a.CurrentLeader())
		})
	}
}
