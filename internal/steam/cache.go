package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/suspect-registry-api/internal/models"
)

// Cache stores encoded gateway responses for one shared TTL
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte) error
}

// MemoryCache is an in-process expiring LRU
type MemoryCache struct {
	data *expirable.LRU[string, []byte]
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache holding at most capacity entries
func NewMemoryCache(capacity int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		data: expirable.NewLRU[string, []byte](capacity, nil, ttl),
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data.Get(key)
	return v, ok, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, val []byte) error {
	c.data.Add(key, val)
	return nil
}

// RedisCache shares entries between instances, with a small local TinyLFU
// tier in front of Redis
type RedisCache struct {
	data *cache.Cache
	ttl  time.Duration
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to redisURL and checks the connection
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisCacheWithClient(rdb, ttl), nil
}

// NewRedisCacheWithClient wraps an existing client
func NewRedisCacheWithClient(rdb *redis.Client, ttl time.Duration) *RedisCache {
	// the local tier must not outlive the shared TTL
	localTTL := time.Minute
	if ttl < localTTL {
		localTTL = ttl
	}
	return &RedisCache{
		data: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(10_000, localTTL),
		}),
		ttl: ttl,
	}
}

func redisCacheKey(key string) string {
	return "cache/" + key
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var val []byte
	err := c.data.Get(ctx, redisCacheKey(key), &val)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, val []byte) error {
	return c.data.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisCacheKey(key),
		Value: val,
		TTL:   c.ttl,
	})
}

// CacheObserver is told about every cache lookup
type CacheObserver interface {
	ObserveCache(op string, hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveCache(string, bool) {}

// CachedGateway is a read-through cache in front of a Gateway. Entries are
// never invalidated: upstream changes show up once the TTL lapses. Failed
// calls are not cached; "no such player" is.
type CachedGateway struct {
	next     Gateway
	cache    Cache
	observer CacheObserver
	group    singleflight.Group
	log      zerolog.Logger
}

var _ Gateway = (*CachedGateway)(nil)

// NewCachedGateway wraps next. observer may be nil.
func NewCachedGateway(next Gateway, c Cache, observer CacheObserver, log zerolog.Logger) *CachedGateway {
	if observer == nil {
		observer = nopObserver{}
	}
	return &CachedGateway{
		next:     next,
		cache:    c,
		observer: observer,
		log:      log.With().Str("component", "steam_cache").Logger(),
	}
}

// fetchTimeout bounds a shared upstream fetch, which no single caller's
// context may cancel
const fetchTimeout = 30 * time.Second

// cached looks key up, and on a miss calls fetch once per key across
// concurrent callers and stores the JSON encoding of its result. Each caller
// stops waiting when its own ctx is done; the shared fetch keeps running for
// the others.
func cached[T any](ctx context.Context, g *CachedGateway, op, arg string, fetch func(ctx context.Context) (T, error)) (T, error) {
	key := "steam/" + op + "/" + arg
	var zero T

	raw, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		// a broken cache must not take identity lookups down with it
		g.log.Warn().Err(err).Str("key", key).Msg("Identity cache read failed")
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			g.observer.ObserveCache(op, true)
			return v, nil
		}
		g.log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}
	g.observer.ObserveCache(op, false)

	results := g.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		v, err := fetch(fctx)
		if err != nil {
			return zero, err
		}
		encoded, err := json.Marshal(v)
		if err != nil {
			return v, nil
		}
		if err := g.cache.Set(fctx, key, encoded); err != nil {
			g.log.Warn().Err(err).Str("key", key).Msg("Identity cache write failed")
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// FetchSummary returns the cached or freshly fetched player summary
func (g *CachedGateway) FetchSummary(ctx context.Context, steamID64 string) (*models.IdentitySummary, error) {
	return cached(ctx, g, "summary", steamID64, func(ctx context.Context) (*models.IdentitySummary, error) {
		return g.next.FetchSummary(ctx, steamID64)
	})
}

// FetchBans returns the cached or freshly fetched ban record
func (g *CachedGateway) FetchBans(ctx context.Context, steamID64 string) (*models.BanRecord, error) {
	return cached(ctx, g, "bans", steamID64, func(ctx context.Context) (*models.BanRecord, error) {
		return g.next.FetchBans(ctx, steamID64)
	})
}

// ResolveVanity returns the cached or freshly resolved id
func (g *CachedGateway) ResolveVanity(ctx context.Context, name string) (string, error) {
	return cached(ctx, g, "vanity", name, func(ctx context.Context) (string, error) {
		return g.next.ResolveVanity(ctx, name)
	})
}
