package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for optional settings
const (
	defaultListenAddr    = ":8080"
	defaultMaxBidAmount  = 1_000_000_000
	defaultSweepInterval = 15 * time.Second
	defaultSweepBatch    = 100
)

// Config collects everything the binaries read from the environment
type Config struct {
	DatabaseURL            string
	RabbitMQURL            string
	RedisAddr              string
	IdentityServiceURL     string
	NotificationServiceURL string
	ListenAddr             string
	MaxBidAmount           int64
	SweepInterval          time.Duration
	SweepBatchSize         int
}

// Load reads configuration from environment variables. Call godotenv.Load
// first in dev setups.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RabbitMQURL:            os.Getenv("RABBITMQ_URL"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		IdentityServiceURL:     os.Getenv("IDENTITY_SERVICE_URL"),
		NotificationServiceURL: os.Getenv("NOTIFICATION_SERVICE_URL"),
		ListenAddr:             defaultListenAddr,
		MaxBidAmount:           defaultMaxBidAmount,
		SweepInterval:          defaultSweepInterval,
		SweepBatchSize:         defaultSweepBatch,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is not set")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is not set")
	}

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}

	if raw := os.Getenv("MAX_BID_AMOUNT"); raw != "" {
		maxBid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_BID_AMOUNT: %w", err)
		}
		cfg.MaxBidAmount = maxBid
	}

	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		interval, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
		}
		cfg.SweepInterval = interval
	}

	return cfg, nil
}
