package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/pujamotor/platform/internal/adapters/api"
	infradb "github.com/pujamotor/platform/internal/adapters/database"
	infraidentity "github.com/pujamotor/platform/internal/adapters/identity"
	"github.com/pujamotor/platform/internal/config"
	"github.com/pujamotor/platform/internal/domain/auctions"
	"github.com/pujamotor/platform/internal/domain/bids"
	"github.com/pujamotor/platform/internal/domain/ledger"
	"github.com/pujamotor/platform/internal/domain/publication"
	pkgdb "github.com/pujamotor/platform/pkg/database"
	pkgevents "github.com/pujamotor/platform/pkg/events"
)

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

	ctx := context.Background()

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

	// 3. Connect to Redis (verifier cache)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Redis failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Redis Connected")

	// 4. Initialize Repositories (Infrastructure Layer)
	txManager := pkgdb.NewPostgresTransactionManager(pool, 3*time.Second)
	accountRepo := infradb.NewPostgresAccountRepository(pool)
	movementRepo := infradb.NewPostgresMovementRepository(pool)
	auctionRepo := infradb.NewPostgresAuctionRepository(pool)
	bidRepo := infradb.NewPostgresBidRepository(pool)
	catalogRepo := infradb.NewPostgresCatalogRepository(pool)
	outboxRepo := infradb.NewPostgresOutboxRepository(pool)

	verifier := infraidentity.NewHTTPVerifier(cfg.IdentityServiceURL, rdb)

	// 5. Initialize Services (Domain Layer)
	ledgerService := ledger.NewService(txManager, accountRepo, movementRepo)
	auctionService := auctions.NewService(txManager, auctionRepo, outboxRepo)
	publicationService := publication.NewService(txManager, auctionRepo, catalogRepo, ledgerService, outboxRepo)
	bidService := bids.NewService(txManager, bidRepo, auctionRepo, ledgerService, verifier, outboxRepo, cfg.MaxBidAmount)
	finalizer := auctions.NewFinalizer(txManager, auctionRepo, bidRepo, outboxRepo)

	// 6. Start Outbox Relay alongside the API
	outboxRelay := pkgevents.NewOutboxRelay(
		outboxRepo,
		rabbitPublisher,
		txManager,
		10,                 // batch size
		1*time.Second,      // interval
		pkgevents.Exchange, // exchange
		logger,
	)

	go func() {
		logger.Info("Starting Outbox Relay...")
		if err := outboxRelay.Run(ctx); err != nil {
			logger.Error("Outbox Relay stopped", "error", err)
		}
	}()

	// 7. Start Server
	handler := api.NewHandler(ledgerService, publicationService, auctionService, bidService, finalizer)
	router := api.SetupRouter(handler)

	logger.Info("Starting Marketplace Core API", "addr", cfg.ListenAddr)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
