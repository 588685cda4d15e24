package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis holds the shared client used for assignment cursors.
var Redis *redis.Client

// InitRedis connects to Redis using REDIS_ADDR/REDIS_PASSWORD. The client is
// optional: when REDIS_ADDR is unset the round-robin cursor store falls back
// to its in-process implementation.
func InitRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Println("REDIS_ADDR not set, round-robin cursors will not be shared across instances")
		return
	}

	Redis = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to redis:", err)
	}

	log.Println("Redis connected successfully")
}
