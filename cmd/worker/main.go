package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	infradb "github.com/pujamotor/platform/internal/adapters/database"
	infraevents "github.com/pujamotor/platform/internal/adapters/events"
	"github.com/pujamotor/platform/internal/config"
	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/jobs"
	pkgdb "github.com/pujamotor/platform/pkg/database"
	pkgevents "github.com/pujamotor/platform/pkg/events"
)

// The worker owns everything that must not depend on a client being
// present: relaying outbox events to the broker, finalizing expired
// auctions, and turning events into notifications.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load environment variables (local overrides .env)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutting down worker...")
		cancel()
	}()

	// 1. Initialize Postgres Connection Pool
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Unable to parse database config", "error", err)
		os.Exit(1)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		logger.Error("Unable to create connection pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if pingErr := pool.Ping(ctx); pingErr != nil {
		logger.Error("Unable to ping database", "error", pingErr)
		os.Exit(1)
	}
	logger.Info("Postgres Connected")

	// 2. Connect to RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("Failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()
	logger.Info("RabbitMQ Connected")

	rabbitPublisher, err := pkgevents.NewRabbitMQPublisher(amqpConn)
	if err != nil {
		logger.Error("Failed to create RabbitMQ publisher", "error", err)
		os.Exit(1)
	}
	defer rabbitPublisher.Close()

	// 3. Connect to Redis (sweeper lock)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Redis failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Redis Connected")

	// 4. Wire repositories and the finalizer
	txManager := pkgdb.NewPostgresTransactionManager(pool, 3*time.Second)
	auctionRepo := infradb.NewPostgresAuctionRepository(pool)
	bidRepo := infradb.NewPostgresBidRepository(pool)
	outboxRepo := infradb.NewPostgresOutboxRepository(pool)

	finalizer := auctions.NewFinalizer(txManager, auctionRepo, bidRepo, outboxRepo)

	outboxRelay := pkgevents.NewOutboxRelay(
		outboxRepo,
		rabbitPublisher,
		txManager,
		10,                   // batch size
		500*time.Millisecond, // interval
		pkgevents.Exchange,   // exchange
		logger,
	)

	sweeper := jobs.NewExpirySweeper(
		auctionRepo,
		finalizer,
		rdb,
		cfg.SweepInterval,
		cfg.SweepBatchSize,
		logger,
	)

	notifier := infraevents.NewHTTPNotifier(cfg.NotificationServiceURL)
	consumer := infraevents.NewNotificationConsumer(amqpConn, notifier, logger)

	// 5. Run all loops until shutdown
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("Starting Outbox Relay...")
		return outboxRelay.Run(groupCtx)
	})
	group.Go(func() error {
		logger.Info("Starting Expiry Sweeper...")
		return sweeper.Run(groupCtx)
	})
	group.Go(func() error {
		logger.Info("Starting Notification Consumer...")
		return consumer.Run(groupCtx)
	})

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped")
}
