package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
)

const (
	summaryKeyPrefix    = "summary:"
	generationKeyPrefix = "summary:gen:"
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
	Incr(ctx context.Context, key string) *goredis.IntCmd
}

// SummaryCache stores location summaries as JSON. Entries are keyed by a
// per-location generation that Invalidate bumps, so a summary computed
// before a report landed is written under a key no later reader looks up.
type SummaryCache struct {
	client Client
}

// NewSummaryCache creates a Redis-backed summary cache.
func NewSummaryCache(client Client) *SummaryCache {
	return &SummaryCache{client: client}
}

var _ repository.SummaryCache = (*SummaryCache)(nil)

func summaryKey(locationID string, gen int64) string {
	return summaryKeyPrefix + locationID + ":" + strconv.FormatInt(gen, 10)
}

func generationKey(locationID string) string {
	return generationKeyPrefix + locationID
}

// Get returns the cached summary, or nil on a miss, together with the
// generation a recomputed summary must be stored under.
func (c *SummaryCache) Get(ctx context.Context, locationID string) (*domain.Summary, int64, error) {
	gen, err := c.client.Get(ctx, generationKey(locationID)).Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, 0, fmt.Errorf("get summary generation from redis: %w", err)
	}

	data, err := c.client.Get(ctx, summaryKey(locationID, gen)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, gen, nil
		}
		return nil, gen, fmt.Errorf("get summary from redis: %w", err)
	}

	var s domain.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, gen, fmt.Errorf("unmarshal cached summary: %w", err)
	}
	return &s, gen, nil
}

// Set stores summary under gen for ttl.
func (c *SummaryCache) Set(ctx context.Context, locationID string, gen int64, summary domain.Summary, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(locationID, gen), data, ttl).Err(); err != nil {
		return fmt.Errorf("set summary in redis: %w", err)
	}
	return nil
}

// Invalidate bumps the location's generation. Entries under older
// generations are never read again and age out with their TTL.
func (c *SummaryCache) Invalidate(ctx context.Context, locationID string) error {
	if err := c.client.Incr(ctx, generationKey(locationID)).Err(); err != nil {
		return fmt.Errorf("bump summary generation in redis: %w", err)
	}
	return nil
}
