package application

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/example/room-booking/internal/availability"
)

// AvailabilityCache stores resolved blocked intervals per room and date.
// Implementations must be safe for concurrent use.
//
// Version returns the room's invalidation generation. Callers read it before
// loading commitments and pass it to Store, which drops the result when the
// room was invalidated in between.
type AvailabilityCache interface {
	Get(ctx context.Context, roomID string, date time.Time) ([]availability.Interval, bool)
	Version(ctx context.Context, roomID string) uint64
	Store(ctx context.Context, roomID string, date time.Time, version uint64, intervals []availability.Interval)
	InvalidateRoom(ctx context.Context, roomID string)
}

// MemoryAvailabilityCache keeps resolved intervals in process for a short TTL.
// Writes through the services invalidate the affected room.
type MemoryAvailabilityCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]availabilityCacheEntry
	versions   map[string]uint64
}

type availabilityCacheEntry struct {
	intervals []availability.Interval
	expiresAt time.Time
}

// NewMemoryAvailabilityCache builds a cache holding at most maxEntries room/date results.
func NewMemoryAvailabilityCache(ttl time.Duration, maxEntries int, now func() time.Time) *MemoryAvailabilityCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 512
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryAvailabilityCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]availabilityCacheEntry),
		versions:   make(map[string]uint64),
	}
}

func (c *MemoryAvailabilityCache) Get(_ context.Context, roomID string, date time.Time) ([]availability.Interval, bool) {
	if c == nil {
		return nil, false
	}
	key := availabilityCacheKey(roomID, date)

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return cloneIntervals(entry.intervals), true
}

func (c *MemoryAvailabilityCache) Version(_ context.Context, roomID string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.versions[roomID]
}

func (c *MemoryAvailabilityCache) Store(_ context.Context, roomID string, date time.Time, version uint64, intervals []availability.Interval) {
	if c == nil {
		return
	}
	cloned := cloneIntervals(intervals)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[roomID] != version {
		return
	}
	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[availabilityCacheKey(roomID, date)] = availabilityCacheEntry{intervals: cloned, expiresAt: expiry}
}

func (c *MemoryAvailabilityCache) InvalidateRoom(_ context.Context, roomID string) {
	if c == nil {
		return
	}
	prefix := roomID + "|"

	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[roomID]++
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryAvailabilityCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryAvailabilityCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

// cloneIntervals never returns nil.
func cloneIntervals(intervals []availability.Interval) []availability.Interval {
	out := make([]availability.Interval, len(intervals))
	copy(out, intervals)
	return out
}

func availabilityCacheKey(roomID string, date time.Time) string {
	return roomID + "|" + availability.DateOf(date).Format("2006-01-02")
}

type noopAvailabilityCache struct{}

func (noopAvailabilityCache) Get(context.Context, string, time.Time) ([]availability.Interval, bool) {
	return nil, false
}

func (noopAvailabilityCache) Version(context.Context, string) uint64 { return 0 }

func (noopAvailabilityCache) Store(context.Context, string, time.Time, uint64, []availability.Interval) {}

func (noopAvailabilityCache) InvalidateRoom(context.Context, string) {}

func cacheOrNoop(cache AvailabilityCache) AvailabilityCache {
	if cache == nil {
		return noopAvailabilityCache{}
	}
	return cache
}
