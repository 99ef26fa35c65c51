package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pujamotor/platform/pkg/events"
)

const notificationQueue = "marketplace_notifications"

// NotificationConsumer turns relayed marketplace events into user-facing
// notifications: bid alerts to the owner, win/outcome messages at close.
type NotificationConsumer struct {
	conn     *amqp.Connection
	notifier Notifier
	logger   *slog.Logger
}

// NewNotificationConsumer creates a new consumer
func NewNotificationConsumer(conn *amqp.Connection, notifier Notifier, logger *slog.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		conn:     conn,
		notifier: notifier,
		logger:   logger,
	}
}

// Run starts the consumer loop
func (c *NotificationConsumer) Run(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if setupErr := c.setupRabbitMQ(ch); setupErr != nil {
		return fmt.Errorf("failed to setup rabbitmq: %w", setupErr)
	}

	msgs, err := ch.Consume(
		notificationQueue, // queue
		"",                // consumer tag
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("Waiting for notification events...")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("channel closed")
			}

			if err := c.handle(ctx, d.RoutingKey, d.Body); err != nil {
				c.logger.Error("Failed to process event", "routing_key", d.RoutingKey, "error", err)
				// Requeue for retry; delivery is best-effort, not exactly-once.
				if nackErr := d.Nack(false, true); nackErr != nil {
					c.logger.Error("Failed to Nack message", "error", nackErr)
				}
				continue
			}

			if ackErr := d.Ack(false); ackErr != nil {
				c.logger.Error("Failed to Ack message", "error", ackErr)
			}
		}
	}
}

type bidPlacedEvent struct {
	AuctionID uuid.UUID `json:"auction_id"`
	SellerID  uuid.UUID `json:"seller_id"`
	Amount    int64     `json:"amount"`
}

type auctionWonEvent struct {
	AuctionID  uuid.UUID `json:"auction_id"`
	WinnerID   uuid.UUID `json:"winner_id"`
	WinningBid int64     `json:"winning_bid"`
}

type auctionClosedEvent struct {
	AuctionID  uuid.UUID  `json:"auction_id"`
	SellerID   uuid.UUID  `json:"seller_id"`
	WinnerID   *uuid.UUID `json:"winner_id"`
	WinningBid *int64     `json:"winning_bid"`
	HadBids    bool       `json:"had_bids"`
}

func (c *NotificationConsumer) handle(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case events.EventTypeBidPlaced:
		var event bidPlacedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}
		return c.notifier.Notify(ctx, event.SellerID,
			"New bid on your auction",
			fmt.Sprintf("Your auction received a new bid of %d.", event.Amount),
			"bid")

	case events.EventTypeAuctionWon:
		var event auctionWonEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}
		return c.notifier.Notify(ctx, event.WinnerID,
			"You won the auction",
			fmt.Sprintf("Congratulations, you won with a bid of %d.", event.WinningBid),
			"win")

	case events.EventTypeAuctionClosed:
		var event auctionClosedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("failed to unmarshal event: %w", err)
		}
		message := "Your auction closed without a winner."
		if event.WinnerID != nil {
			message = fmt.Sprintf("Your auction sold for %d.", *event.WinningBid)
		} else if event.HadBids {
			message = "Your auction closed: the reserve price was not met."
		}
		return c.notifier.Notify(ctx, event.SellerID, "Auction closed", message, "outcome")

	default:
		// auction.submitted and auction.approved are consumed by the
		// back-office, not by the notification pipeline.
		c.logger.Info("Skipping event", "routing_key", routingKey)
		return nil
	}
}

func (c *NotificationConsumer) setupRabbitMQ(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		events.Exchange, // name
		"topic",         // type
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,             // args
	)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(
		notificationQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return err
	}

	for _, key := range []string{
		events.EventTypeBidPlaced,
		events.EventTypeAuctionWon,
		events.EventTypeAuctionClosed,
	} {
		if err := ch.QueueBind(notificationQueue, key, events.Exchange, false, nil); err != nil {
			return err
		}
	}

	return nil
}
