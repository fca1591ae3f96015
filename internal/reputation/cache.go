package reputation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/raysh454/nyxguard/internal/logging"
	"github.com/raysh454/nyxguard/internal/model"
)

// Entry is a cached lookup outcome.
type Entry struct {
	Status   model.ReputationStatus   `json:"status"`
	Summary  *model.ReputationSummary `json:"summary,omitempty"`
	CachedAt time.Time                `json:"cached_at"`
}

func (e Entry) Result() Result {
	return Result{Status: e.Status, Summary: e.Summary}
}

// Cache stores lookup outcomes per domain. Get only reports entries that
// are still within the TTL they were stored with.
type Cache interface {
	Get(ctx context.Context, domain string) (Entry, bool)
	Set(ctx context.Context, domain string, entry Entry, ttl time.Duration)
}

type memoryEntry struct {
	entry   Entry
	expires time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemoryCache) Get(_ context.Context, domain string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[domain]
	if !ok {
		return Entry{}, false
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, domain)
		return Entry{}, false
	}
	return e.entry, true
}

func (m *MemoryCache) Set(_ context.Context, domain string, entry Entry, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[domain] = memoryEntry{entry: entry, expires: entry.CachedAt.Add(ttl)}
}

// Len reports the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

const redisKeyPrefix = "nyxguard:reputation:"

// RedisCache shares lookup outcomes between processes. Redis expiry
// enforces the TTL. Redis failures are logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	logger logging.Logger
}

// NewRedisCache connects to the Redis server at url and pings it.
func NewRedisCache(ctx context.Context, url string, logger logging.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{
		client: client,
		logger: logger.With(logging.Component("reputation-cache")),
	}, nil
}

func (r *RedisCache) Get(ctx context.Context, domain string) (Entry, bool) {
	data, err := r.client.Get(ctx, redisKey(domain)).Bytes()
	if err == redis.Nil {
		return Entry{}, false
	}
	if err != nil {
		r.logger.Warn("redis get failed", logging.Field{Key: "domain", Value: domain}, logging.Err(err))
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		r.logger.Warn("undecodable cache entry", logging.Field{Key: "domain", Value: domain}, logging.Err(err))
		return Entry{}, false
	}
	return e, true
}

func (r *RedisCache) Set(ctx context.Context, domain string, entry Entry, ttl time.Duration) {
	data, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("encode cache entry", logging.Field{Key: "domain", Value: domain}, logging.Err(err))
		return
	}
	if err := r.client.Set(ctx, redisKey(domain), data, ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", logging.Field{Key: "domain", Value: domain}, logging.Err(err))
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func redisKey(domain string) string {
	return redisKeyPrefix + strings.ToLower(domain)
}
