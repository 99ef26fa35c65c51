package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/infra/lock"
	"github.com/redis/go-redis/v9"
)

const sweeperLockKey = "jobs:expiry-sweeper"

// ExpirySweeper is the server-owned expiry trigger: a periodic scan over
// active auctions past their deadline, finalizing each one. No client needs
// to be watching an auction for it to close.
type ExpirySweeper struct {
	repo      auctions.Repository
	finalizer *auctions.Finalizer
	rdb       *redis.Client
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewExpirySweeper creates a new sweeper
func NewExpirySweeper(
	repo auctions.Repository,
	finalizer *auctions.Finalizer,
	rdb *redis.Client,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *ExpirySweeper {
	return &ExpirySweeper{
		repo:      repo,
		finalizer: finalizer,
		rdb:       rdb,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run starts the sweep loop
func (s *ExpirySweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if err := s.sweep(ctx); err != nil {
		s.logger.Error("Sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				s.logger.Error("Sweep failed", "error", err)
			}
		}
	}
}

func (s *ExpirySweeper) sweep(ctx context.Context) error {
	// One instance sweeps at a time. Losing the race is fine: the winner
	// finalizes the same batch, and Finalize itself is idempotent anyway.
	sweepLock := lock.NewRedisLock(s.rdb, sweeperLockKey, 2*s.interval)
	acquired, err := sweepLock.TryAcquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return nil
	}
	defer func() {
		_ = sweepLock.Release(ctx)
	}()

	expired, err := s.repo.ListExpired(ctx, time.Now(), s.batchSize)
	if err != nil {
		return err
	}

	if len(expired) == 0 {
		return nil
	}

	s.logger.Info("Finalizing expired auctions", "count", len(expired))

	for _, auctionID := range expired {
		settlement, err := s.finalizer.Finalize(ctx, auctionID)
		if err != nil {
			// A bid may have extended the deadline between the scan and the
			// lock; that auction is simply not expired anymore.
			if errors.Is(err, auctions.ErrAuctionNotEnded) {
				continue
			}
			s.logger.Error("Failed to finalize auction", "auction_id", auctionID, "error", err)
			continue
		}

		if settlement.WinnerID != nil {
			s.logger.Info("Auction finalized",
				"auction_id", auctionID,
				"winner_id", *settlement.WinnerID,
				"winning_bid", *settlement.WinningBid)
		} else {
			s.logger.Info("Auction finalized without winner", "auction_id", auctionID)
		}
	}

	return nil
}
