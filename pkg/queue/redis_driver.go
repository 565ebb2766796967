package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/perennia/storefront/pkg/logger"
)

const (
	redisQueueKey   = "perennia:queue:jobs"
	redisDelayedKey = "perennia:queue:delayed"
)

// RedisDriver keeps immediate jobs in a list (LPUSH/BRPOP) and delayed jobs
// in a sorted set scored by their due Unix time.
type RedisDriver struct {
	rdb  *redis.Client
	stop context.CancelFunc
}

// NewRedisDriver creates a driver on the client pkg/cache connected.
func NewRedisDriver(rdb *redis.Client) *RedisDriver {
	ctx, cancel := context.WithCancel(context.Background())
	d := &RedisDriver{rdb: rdb, stop: cancel}
	go d.promoteDelayedJobs(ctx)
	return d
}

// Close stops promoting delayed jobs.
func (d *RedisDriver) Close() { d.stop() }

func (d *RedisDriver) Push(ctx context.Context, payload []byte) error {
	if err := d.rdb.LPush(ctx, redisQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("queue/redis: push: %w", err)
	}
	return nil
}

// Pop blocks up to 5s for a job; (nil, nil) means none arrived.
func (d *RedisDriver) Pop(ctx context.Context) ([]byte, error) {
	result, err := d.rdb.BRPop(ctx, 5*time.Second, redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: pop: %w", err)
	}
	if len(result) < 2 {
		return nil, nil
	}
	return []byte(result[1]), nil
}

func (d *RedisDriver) PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error {
	runAt := float64(time.Now().Add(delay).Unix())
	if err := d.rdb.ZAdd(ctx, redisDelayedKey, redis.Z{Score: runAt, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("queue/redis: push delayed: %w", err)
	}
	return nil
}

// promoteDelayedJobs moves due jobs into the main list once a second.
func (d *RedisDriver) promoteDelayedJobs(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		now := strconv.FormatInt(time.Now().Unix(), 10)
		jobs, err := d.rdb.ZRangeByScore(ctx, redisDelayedKey, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
		if err != nil || len(jobs) == 0 {
			continue
		}
		pipe := d.rdb.TxPipeline()
		for _, job := range jobs {
			pipe.ZRem(ctx, redisDelayedKey, job)
			pipe.LPush(ctx, redisQueueKey, []byte(job))
		}
		if _, err := pipe.Exec(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("queue/redis: promote delayed jobs", "error", err)
		}
	}
}
