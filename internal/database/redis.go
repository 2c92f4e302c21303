package database

import (
	"context"
	"fmt"
	"log"

	"github.com/planit-app/ranking-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client
var Ctx = context.Background()

// ConnectRedis initializes Redis connection
func ConnectRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 20,
	})

	// Test connection
	if err := client.Ping(Ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("✅ Redis connected successfully")

	RedisClient = client
	return client, nil
}

// CloseRedis closes Redis connection
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// Redis key constants
const (
	// RankingChannelPrefix is the Pub/Sub channel family, one channel per
	// period type: ranking:updates:WEEKLY etc.
	RankingChannelPrefix  = "ranking:updates:"
	RankingChannelPattern = "ranking:updates:*"

	// AwardStream carries durable-ledger sync items.
	AwardStream = "stream:award_sync"
)
