// Package cache provides a shared availability cache backed by Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/availability"
)

var _ application.AvailabilityCache = (*RedisAvailabilityCache)(nil)

const (
	keyPrefix       = "roombooking:availability:"
	defaultRedisTTL = 30 * time.Second
)

var errStaleVersion = errors.New("cache: room invalidated since load")

// RedisAvailabilityCache stores resolved intervals per room/date as JSON strings.
// A per-room set tracks the cached dates so a room can be invalidated in one step.
// A per-room counter is bumped on invalidation; writes made under an older
// counter value are dropped.
// Redis failures degrade to cache misses and are logged.
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisAvailabilityCache connects to Redis and verifies the connection.
func NewRedisAvailabilityCache(ctx context.Context, opts RedisOptions, logger *slog.Logger) (*RedisAvailabilityCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping redis at %s: %w", opts.Addr, err)
	}
	return NewRedisAvailabilityCacheWithClient(client, opts.TTL, logger), nil
}

// NewRedisAvailabilityCacheWithClient wraps an existing client.
func NewRedisAvailabilityCacheWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = defaultRedisTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisAvailabilityCache{
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "RedisAvailabilityCache"),
	}
}

// Close releases the underlying connection pool.
func (c *RedisAvailabilityCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

type cachedInterval struct {
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Reason string `json:"reason"`
	Source string `json:"source"`
	RefID  string `json:"ref_id"`
	Status string `json:"status,omitempty"`
}

func (c *RedisAvailabilityCache) Get(ctx context.Context, roomID string, date time.Time) ([]availability.Interval, bool) {
	payload, err := c.client.Get(ctx, entryKey(roomID, date)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "availability cache read failed", "room_id", roomID, "error", err)
		}
		return nil, false
	}

	var stored []cachedInterval
	if err := json.Unmarshal(payload, &stored); err != nil {
		c.logger.WarnContext(ctx, "availability cache entry is corrupt", "room_id", roomID, "error", err)
		return nil, false
	}

	intervals := make([]availability.Interval, 0, len(stored))
	for _, s := range stored {
		intervals = append(intervals, availability.Interval{
			Start:  availability.TimeOfDay(s.Start),
			End:    availability.TimeOfDay(s.End),
			Reason: s.Reason,
			Source: availability.Source(s.Source),
			RefID:  s.RefID,
			Status: availability.BookingStatus(s.Status),
		})
	}
	return intervals, true
}

func (c *RedisAvailabilityCache) Version(ctx context.Context, roomID string) uint64 {
	version, err := c.client.Get(ctx, versionKey(roomID)).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "availability cache version read failed", "room_id", roomID, "error", err)
	}
	return version
}

func (c *RedisAvailabilityCache) Store(ctx context.Context, roomID string, date time.Time, version uint64, intervals []availability.Interval) {
	stored := make([]cachedInterval, 0, len(intervals))
	for _, interval := range intervals {
		stored = append(stored, cachedInterval{
			Start:  int(interval.Start),
			End:    int(interval.End),
			Reason: interval.Reason,
			Source: string(interval.Source),
			RefID:  interval.RefID,
			Status: string(interval.Status),
		})
	}
	payload, err := json.Marshal(stored)
	if err != nil {
		c.logger.WarnContext(ctx, "availability cache encode failed", "room_id", roomID, "error", err)
		return
	}

	key := entryKey(roomID, date)
	index := indexKey(roomID)
	versioned := versionKey(roomID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versioned).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleVersion
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, c.ttl)
			pipe.SAdd(ctx, index, key)
			pipe.Expire(ctx, index, c.ttl)
			return nil
		})
		return err
	}, versioned)
	switch {
	case err == nil:
	case errors.Is(err, errStaleVersion), errors.Is(err, redis.TxFailedErr):
		c.logger.DebugContext(ctx, "availability cache write skipped after invalidation", "room_id", roomID)
	default:
		c.logger.WarnContext(ctx, "availability cache write failed", "room_id", roomID, "error", err)
	}
}

func (c *RedisAvailabilityCache) InvalidateRoom(ctx context.Context, roomID string) {
	index := indexKey(roomID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		c.logger.WarnContext(ctx, "availability cache invalidation failed", "room_id", roomID, "error", err)
		return
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(roomID))
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, index)
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "availability cache invalidation failed", "room_id", roomID, "error", err)
	}
}

func entryKey(roomID string, date time.Time) string {
	return keyPrefix + roomID + ":" + availability.DateOf(date).Format(time.DateOnly)
}

func indexKey(roomID string) string {
	return keyPrefix + roomID + ":dates"
}

func versionKey(roomID string) string {
	return keyPrefix + roomID + ":version"
}
