package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ralph2001/marketplace/internal/config"
)

// ConnectRedis establishes the Redis connection used by rate limiting, the
// notification hub and the background task queue.
func ConnectRedis(cfg *config.Config) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Println("Connected to Redis")
	return client
}

// DisconnectRedis closes the Redis connection.
func DisconnectRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Printf("Error disconnecting from Redis: %v", err)
	}
}
