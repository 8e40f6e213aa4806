// Package cache stores per-article reputation aggregates keyed by the
// collection epoch and version they were computed from. A version bump
// makes old entries unreachable, so nothing is ever invalidated explicitly.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/grid-nexus/nexus-api/internal/models"
)

// Stats is a per-user aggregate for one article
type Stats = map[string]*models.UserCommentStats

// StatsCache stores aggregates by collection state
type StatsCache interface {
	Get(ctx context.Context, k Key) (Stats, bool)
	Set(ctx context.Context, k Key, stats Stats)
}

// Key names one saved state of an article's collection. Versions restart
// when a collection is recreated or a memory store restarts; the epoch
// does not, so entries from an earlier life never match.
type Key struct {
	ArticleID string
	Epoch     string
	Version   int64
}

// KeyFor returns the key of coll. ok is false for a collection that was
// never saved, which has no epoch and must not be cached.
func KeyFor(coll *models.CommentCollection) (k Key, ok bool) {
	if coll.Epoch == "" {
		return Key{}, false
	}
	return Key{ArticleID: coll.ArticleID, Epoch: coll.Epoch, Version: coll.Version}, true
}

func (k Key) String() string {
	return fmt.Sprintf("comment-stats:%s:%s:%d", k.ArticleID, k.Epoch, k.Version)
}

// copyStats returns a copy so cached entries never alias caller state
func copyStats(in Stats) Stats {
	out := make(Stats, len(in))
	for id, s := range in {
		cp := *s
		cp.Badges = append([]string{}, s.Badges...)
		out[id] = &cp
	}
	return out
}

// noop never stores anything
type noop struct{}

// NewNoop returns a cache that always misses
func NewNoop() StatsCache { return noop{} }

func (noop) Get(context.Context, Key) (Stats, bool) { return nil, false }
func (noop) Set(context.Context, Key, Stats)        {}

// LRU is an in-process cache bounded by entry count
type LRU struct {
	entries *lru.Cache
}

// NewLRU creates an in-process cache holding at most size aggregates
func NewLRU(size int) (*LRU, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRU{entries: c}, nil
}

func (c *LRU) Get(_ context.Context, k Key) (Stats, bool) {
	v, ok := c.entries.Get(k.String())
	if !ok {
		return nil, false
	}
	return copyStats(v.(Stats)), true
}

func (c *LRU) Set(_ context.Context, k Key, stats Stats) {
	c.entries.Add(k.String(), copyStats(stats))
}

// Len returns the number of cached aggregates
func (c *LRU) Len() int {
	return c.entries.Len()
}

// Redis shares aggregates between service instances. Failures are logged
// and treated as misses; the aggregate can always be recomputed.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedis creates a cache over an existing client. A zero ttl keeps entries until evicted.
func NewRedis(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "stats_cache").Logger(),
	}
}

func (c *Redis) Get(ctx context.Context, k Key) (Stats, bool) {
	data, err := c.client.Get(ctx, k.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("article_id", k.ArticleID).Msg("Stats cache read failed")
		return nil, false
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		c.log.Warn().Err(err).Str("article_id", k.ArticleID).Msg("Stats cache entry corrupt")
		return nil, false
	}
	return stats, true
}

func (c *Redis) Set(ctx context.Context, k Key, stats Stats) {
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, k.String(), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("article_id", k.ArticleID).Msg("Stats cache write failed")
	}
}
