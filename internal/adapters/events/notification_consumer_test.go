package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pujamotor/platform/pkg/events"
)

// fakeNotifier records the notifications a handled event produced
type fakeNotifier struct {
	userIDs  []uuid.UUID
	titles   []string
	messages []string
	kinds    []string
}

func (n *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, title, message, kind string) error {
	n.userIDs = append(n.userIDs, userID)
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	n.kinds = append(n.kinds, kind)
	return nil
}

func newTestConsumer() (*NotificationConsumer, *fakeNotifier) {
	notifier := &fakeNotifier{}
	consumer := NewNotificationConsumer(nil, notifier, slog.Default())
	return consumer, notifier
}

// TestNotificationConsumer_BidPlaced verifies the owner is alerted of new bids
func TestNotificationConsumer_BidPlaced(t *testing.T) {
	consumer, notifier := newTestConsumer()
	sellerID := uuid.New()

	body, err := json.Marshal(map[string]any{
		"auction_id": uuid.New(),
		"seller_id":  sellerID,
		"amount":     1_050_000,
	})
	require.NoError(t, err)

	err = consumer.handle(context.Background(), events.EventTypeBidPlaced, body)
	require.NoError(t, err)

	require.Len(t, notifier.userIDs, 1)
	assert.Equal(t, sellerID, notifier.userIDs[0])
	assert.Equal(t, "bid", notifier.kinds[0])
	assert.Contains(t, notifier.messages[0], "1050000")
}

// TestNotificationConsumer_AuctionWon verifies the winner gets the win message
func TestNotificationConsumer_AuctionWon(t *testing.T) {
	consumer, notifier := newTestConsumer()
	winnerID := uuid.New()

	body, err := json.Marshal(map[string]any{
		"auction_id":  uuid.New(),
		"winner_id":   winnerID,
		"winning_bid": 1_800_000,
	})
	require.NoError(t, err)

	err = consumer.handle(context.Background(), events.EventTypeAuctionWon, body)
	require.NoError(t, err)

	require.Len(t, notifier.userIDs, 1)
	assert.Equal(t, winnerID, notifier.userIDs[0])
	assert.Equal(t, "win", notifier.kinds[0])
}

// TestNotificationConsumer_AuctionClosed verifies the owner message per outcome
func TestNotificationConsumer_AuctionClosed(t *testing.T) {
	sellerID := uuid.New()
	winnerID := uuid.New()

	tests := []struct {
		name        string
		winnerID    *uuid.UUID
		winningBid  *int64
		hadBids     bool
		wantMessage string
	}{
		{
			name:        "sold",
			winnerID:    &winnerID,
			winningBid:  int64Ptr(1_800_000),
			hadBids:     true,
			wantMessage: "Your auction sold for 1800000.",
		},
		{
			name:        "reserve not met",
			hadBids:     true,
			wantMessage: "Your auction closed: the reserve price was not met.",
		},
		{
			name:        "no bids",
			hadBids:     false,
			wantMessage: "Your auction closed without a winner.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			consumer, notifier := newTestConsumer()

			body, err := json.Marshal(auctionClosedEvent{
				AuctionID:  uuid.New(),
				SellerID:   sellerID,
				WinnerID:   tt.winnerID,
				WinningBid: tt.winningBid,
				HadBids:    tt.hadBids,
			})
			require.NoError(t, err)

			err = consumer.handle(context.Background(), events.EventTypeAuctionClosed, body)
			require.NoError(t, err)

			require.Len(t, notifier.userIDs, 1)
			assert.Equal(t, sellerID, notifier.userIDs[0])
			assert.Equal(t, tt.wantMessage, notifier.messages[0])
		})
	}
}

// TestNotificationConsumer_SkipsUnknownEvents verifies back-office events are ignored
func TestNotificationConsumer_SkipsUnknownEvents(t *testing.T) {
	consumer, notifier := newTestConsumer()

	err := consumer.handle(context.Background(), events.EventTypeAuctionSubmitted, []byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, notifier.userIDs)
}

func int64Ptr(v int64) *int64 {
	return &v
}
