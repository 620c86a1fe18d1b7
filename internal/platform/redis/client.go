package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	redisPoolHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigil_redis_pool_hits_total",
		Help: "Number of times a connection was found in the pool",
	})
	redisPoolMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigil_redis_pool_misses_total",
		Help: "Number of times a connection was not found in the pool",
	})
	redisPoolTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sigil_redis_pool_timeouts_total",
		Help: "Number of times a connection was not obtained due to timeout",
	})
	redisPoolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sigil_redis_pool_total_conns",
		Help: "Number of total connections in the pool",
	})
)

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis, verifies connectivity, and starts pool-stats export.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	go exportPoolStats(ctx, client)

	return client, nil
}

// exportPoolStats periodically copies go-redis pool stats into Prometheus.
func exportPoolStats(ctx context.Context, client *redis.Client) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	var lastHits, lastMisses, lastTimeouts uint32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := client.PoolStats()
			redisPoolHits.Add(float64(stats.Hits - lastHits))
			redisPoolMisses.Add(float64(stats.Misses - lastMisses))
			redisPoolTimeouts.Add(float64(stats.Timeouts - lastTimeouts))
			redisPoolTotalConns.Set(float64(stats.TotalConns))
			lastHits, lastMisses, lastTimeouts = stats.Hits, stats.Misses, stats.Timeouts
		}
	}
}
