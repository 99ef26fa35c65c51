//go:build integration

package bids_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infradb "github.com/pujamotor/platform/internal/adapters/database"
	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/domain/bids"
	"github.com/pujamotor/platform/internal/domain/ledger"
	pkgdb "github.com/pujamotor/platform/pkg/database"
	"github.com/pujamotor/platform/pkg/events"
	"github.com/pujamotor/platform/pkg/testhelpers"
)

const testMaxBid = 1_000_000_000

// stubVerifier marks a fixed set of bidders as verified
type stubVerifier struct {
	verified map[uuid.UUID]bool
}

func (v *stubVerifier) IsVerified(_ context.Context, userID uuid.UUID) (bool, error) {
	return v.verified[userID], nil
}

type bidFixture struct {
	pool        *pgxpool.Pool
	service     *bids.Service
	bidRepo     *infradb.PostgresBidRepository
	auctionRepo *infradb.PostgresAuctionRepository
	outboxRepo  *infradb.PostgresOutboxRepository
	txManager   pkgdb.TransactionManager
	ledger      *ledger.Service
	verifier    *stubVerifier
}

func newBidFixture(pool *pgxpool.Pool) *bidFixture {
	txManager := pkgdb.NewPostgresTransactionManager(pool, 5*time.Second)
	accountRepo := infradb.NewPostgresAccountRepository(pool)
	movementRepo := infradb.NewPostgresMovementRepository(pool)
	auctionRepo := infradb.NewPostgresAuctionRepository(pool)
	bidRepo := infradb.NewPostgresBidRepository(pool)
	outboxRepo := infradb.NewPostgresOutboxRepository(pool)

	ledgerService := ledger.NewService(txManager, accountRepo, movementRepo)
	verifier := &stubVerifier{verified: make(map[uuid.UUID]bool)}
	service := bids.NewService(txManager, bidRepo, auctionRepo, ledgerService, verifier, outboxRepo, testMaxBid)

	return &bidFixture{
		pool:        pool,
		service:     service,
		bidRepo:     bidRepo,
		auctionRepo: auctionRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
		ledger:      ledgerService,
		verifier:    verifier,
	}
}

// seedBidder creates a verified bidder with the given credit balance
func (f *bidFixture) seedBidder(t *testing.T, balance int64) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	_, err := f.pool.Exec(ctx, `INSERT INTO accounts (id, balance) VALUES ($1, $2)`, id, balance)
	require.NoError(t, err, "Failed to seed bidder account")
	f.verifier.verified[id] = true
	return id
}

// seedActiveAuction inserts an auction open for bidding until endDate
func (f *bidFixture) seedActiveAuction(t *testing.T, startPrice, reservePrice, minIncrement int64, endDate time.Time) *auctions.Auction {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	startDate := now.Add(-1 * time.Hour)
	auction := &auctions.Auction{
		ID:           uuid.New(),
		VehicleID:    uuid.New(),
		SellerID:     uuid.New(),
		StartPrice:   startPrice,
		ReservePrice: reservePrice,
		MinIncrement: minIncrement,
		DurationDays: 7,
		StartDate:    &startDate,
		EndDate:      &endDate,
		Status:       auctions.StatusActive,
		IsApproved:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := f.pool.Exec(ctx, `
		INSERT INTO auctions (id, vehicle_id, seller_id, start_price, reserve_price, min_increment,
			duration_days, start_date, end_date, status, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		auction.ID, auction.VehicleID, auction.SellerID, auction.StartPrice, auction.ReservePrice,
		auction.MinIncrement, auction.DurationDays, auction.StartDate, auction.EndDate,
		auction.Status, auction.IsApproved, auction.CreatedAt, auction.UpdatedAt,
	)
	require.NoError(t, err, "Failed to seed auction")
	return auction
}

func (f *bidFixture) pendingEvents(t *testing.T, limit int) []*events.OutboxEvent {
	t.Helper()
	ctx := context.Background()
	tx, err := f.txManager.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	pending, err := f.outboxRepo.GetPendingEvents(ctx, tx, limit)
	require.NoError(t, err)
	return pending
}

// TestBidService_PlaceBid_Success tests the full accepted-bid flow
func TestBidService_PlaceBid_Success(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	f := newBidFixture(testDB.Pool)
	ctx := context.Background()

	auction := f.seedActiveAuction(t, 1_000_000, 1_500_000, 50_000, time.Now().Add(24*time.Hour))
	bidderID := f.seedBidder(t, 10)

	bid, err := f.service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auction.ID,
		BidderID:  bidderID,
		Amount:    1_050_000,
	})
	require.NoError(t, err, "PlaceBid should succeed")
	assert.Equal(t, auction.ID, bid.AuctionID)
	assert.Equal(t, bidderID, bid.BidderID)
	assert.Equal(t, int64(1_050_000), bid.Amount)

	// Bid row persisted
	saved, err := f.bidRepo.GetBidByID(ctx, bid.ID)
	require.NoError(t, err)
	assert.Equal(t, bid.Amount, saved.Amount)

	// Leader updated on the auction
	updated, err := f.auctionRepo.GetByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_050_000), updated.CurrentHighestBid)

	// Exactly one credit debited
	balance, err := f.ledger.GetBalance(ctx, bidderID)
	require.NoError(t, err)
	assert.Equal(t, int64(9), balance)

	movements, err := f.ledger.ListMovements(ctx, bidderID, 10, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, ledger.KindBid, movements[0].Kind)
	assert.Equal(t, int64(-1), movements[0].Amount)

	// Owner notification event queued
	pending := f.pendingEvents(t, 10)
	require.Len(t, pending, 1)
	assert.Equal(t, events.EventTypeBidPlaced, pending[0].EventType)
}

// TestBidService_PlaceBid_TooLow verifies a bid under the threshold is
// rejected without touching the ledger
func TestBidService_PlaceBid_TooLow(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	f := newBidFixture(testDB.Pool)
	ctx := context.Background()

	auction := f.seedActiveAuction(t, 1_000_000, 0, 50_000, time.Now().Add(24*time.Hour))
	bidderID := f.seedBidder(t, 10)

	_, err := f.service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auction.ID,
		BidderID:  bidderID,
		Amount:    1_040_000,
	})
	require.ErrorIs(t, err, bids.ErrBidTooLow)

	balance, err := f.ledger.GetBalance(ctx, bidderID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance, "a rejected bid must not cost a credit")

	list, err := f.service.ListBids(ctx, auction.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// TestBidService_PlaceBid_NotVerified verifies unverified bidders are rejected
func TestBidService_PlaceBid_NotVerified(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	f := newBidFixture(testDB.Pool)
	ctx := context.Background()

	auction := f.seedActiveAuction(t, 1_000_000, 0, 50_000, time.Now().Add(24*time.Hour))
	bidderID := f.seedBidder(t, 10)
	f.verifier.verified[bidderID] = false

	_, err := f.service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auction.ID,
		BidderID:  bidderID,
		Amount:    1_050_000,
	})
	assert.ErrorIs(t, err, bids.ErrBidderNotVerified)
}

// TestBidService_PlaceBid_NotActive verifies paused and expired auctions reject bids
func TestBidService_PlaceBid_NotActive(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	f := newBidFixture(testDB.Pool)
	ctx := context.Background()
	bidderID := f.seedBidder(t, 10)

	t.Run("paused auction", func(t *testing.T) {
		auction := f.seedActiveAuction(t, 1_000_000, 0, 50_000, time.Now().Add(24*time.Hour))
		_, err := f.pool.Exec(ctx, `UPDATE auctions SET status = 'paused' WHERE id = $1`, auction.ID)
		require.NoError(t, err)

		_, err = f.service.PlaceBid(ctx, bids.PlaceBidCommand{
			AuctionID: auction.ID,
			BidderID:  bidderID,
			Amount:    1_050_000,
		})
		assert.ErrorIs(t, err, bids.ErrAuctionNotActive)
	})

	t.Run("deadline passed", func(t *testing.T) {
		auction := f.seedActiveAuction(t, 1_000_000, 0, 50_000, time.Now().Add(-1*time.Minute))

		_, err := f.service.PlaceBid(ctx, bids.PlaceBidCommand{
			AuctionID: auction.ID,
			BidderID:  bidderID,
			Amount:    1_050_000,
		})
		assert.ErrorIs(t, err, bids.ErrAuctionNotActive)
	})
}

// TestBidService_PlaceBid_LastCredit verifies the atomic debit: once the last
// credit is spent, the next bid fails and leaves no partial writes
func TestBidService_PlaceBid_LastCredit(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	f := newBidFixture(testDB.Pool)
	ctx := context.Background()

	auction := f.seedActiveAuction(t, 1_000_000, 0, 50_000, time.Now().Add(24*time.Hour))
	bidderID := f.seedBidder(t, 1)

	_, err := f.service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auction.ID,
		BidderID:  bidderID,
		Amount:    1_050_000,
	})
	require.NoError(t, err, "first bid should spend the last credit")

	_, err = f.service.PlaceBid(ctx, bids.PlaceBidCommand{
		AuctionID: auction.ID,
		BidderID:  bidderID,
		Amount:    1_200_000,
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientCredits)

	balance, err := f.ledger.GetBalance(ctx, bidderID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	list, err := f.service.ListBids(ctx, auction.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "the failed bid must not leave a bid row")

	updated, err := f.auctionRepo.GetByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_050_000), updated.CurrentHighestBid, "the failed bid must not move the leader")
}

// TestBidService_PlaceBid_Concurrent verifies two racing bids serialize on the
// auction row and the loser is re-validated against the winner's commit
func TestBidService_PlaceBid_Concurrent(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	f := newBidFixture(testDB.Pool)
	ctx := context.Background()

	// With a 200k increment neither amount can top the other, so whichever
	// commits first wins and the other must fail validation.
	auction := f.seedActiveAuction(t, 1_000_000, 0, 200_000, time.Now().Add(24*time.Hour))
	bidderA := f.seedBidder(t, 10)
	bidderB := f.seedBidder(t, 10)

	amounts := map[uuid.UUID]int64{
		bidderA: 2_000_000,
		bidderB: 2_100_000,
	}

	var wg sync.WaitGroup
	results := make(map[uuid.UUID]error, 2)
	var mu sync.Mutex

	for bidder, amount := range amounts {
		wg.Add(1)
		go func(bidder uuid.UUID, amount int64) {
			defer wg.Done()
			_, err := f.service.PlaceBid(ctx, bids.PlaceBidCommand{
				AuctionID: auction.ID,
				BidderID:  bidder,
				Amount:    amount,
			})
			mu.Lock()
			results[bidder] = err
			mu.Unlock()
		}(bidder, amount)
	}
	wg.Wait()

	var winner uuid.UUID
	var accepted, rejected int
	for bidder, err := range results {
		if err == nil {
			accepted++
			winner = bidder
		} else {
			require.ErrorIs(t, err, bids.ErrBidTooLow)
			rejected++
		}
	}
	require.Equal(t, 1, accepted, "exactly one racing bid should be accepted")
	require.Equal(t, 1, rejected)

	// The leader is the accepted amount and only the winner paid
	updated, err := f.auctionRepo.GetByID(ctx, auction.ID)
	require.NoError(t, err)
	assert.Equal(t, amounts[winner], updated.CurrentHighestBid)

	list, err := f.service.ListBids(ctx, auction.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	winnerBalance, err := f.ledger.GetBalance(ctx, winner)
	require.NoError(t, err)
	assert.Equal(t, int64(9), winnerBalance)

	for bidder := range amounts {
		if bidder == winner {
			continue
		}
		loserBalance, err := f.ledger.GetBalance(ctx, bidder)
		require.NoError(t, err)
		assert.Equal(t, int64(10), loserBalance, "the rejected bidder must not be charged")
	}
}

// TestBidService_PlaceBid_ExtendsDeadline verifies the anti-sniping extension
// end to end
func TestBidService_PlaceBid_ExtendsDeadline(t *testing.T) {
	testDB := testhelpers.NewTestDatabase(t, "../../../migrations")
	defer testDB.Close()

	f := newBidFixture(testDB.Pool)
	ctx := context.Background()

	t.Run("bid inside the closing window", func(t *testing.T) {
		auction := f.seedActiveAuction(t, 1_000_000, 0, 50_000, time.Now().Add(30*time.Second))
		bidderID := f.seedBidder(t, 10)

		before := time.Now()
		_, err := f.service.PlaceBid(ctx, bids.PlaceBidCommand{
			AuctionID: auction.ID,
			BidderID:  bidderID,
			Amount:    1_050_000,
		})
		require.NoError(t, err)

		updated, err := f.auctionRepo.GetByID(ctx, auction.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.EndDate)
		assert.WithinDuration(t, before.Add(2*time.Minute), *updated.EndDate, 5*time.Second,
			"deadline should move to acceptance time plus the window")
	})

	t.Run("bid well before the window", func(t *testing.T) {
		endDate := time.Now().Add(10 * time.Minute)
		auction := f.seedActiveAuction(t, 1_000_000, 0, 50_000, endDate)
		bidderID := f.seedBidder(t, 10)

		_, err := f.service.PlaceBid(ctx, bids.PlaceBidCommand{
			AuctionID: auction.ID,
			BidderID:  bidderID,
			Amount:    1_050_000,
		})
		require.NoError(t, err)

		updated, err := f.auctionRepo.GetByID(ctx, auction.ID)
		require.NoError(t, err)
		require.NotNil(t, updated.EndDate)
		assert.WithinDuration(t, endDate, *updated.EndDate, time.Second, "deadline should be unchanged")
	})
}
