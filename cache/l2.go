package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// L2Cache is the second, non-authoritative cache tier described in §4.3's
// domain stack: a shared Redis/DragonflyDB-compatible tier sitting between
// the in-process EntityCache (L1) and Persistence (L3). It is populated on
// an L1 miss and invalidated synchronously on write, so every read
// property (P1-P4) must hold identically whether or not an L2Cache is
// wired in — Engine treats it purely as an accelerator.
type L2Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// L2Config configures the Redis/DragonflyDB connection backing an L2Cache.
type L2Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, defaults to "graphstore:"
	TTL      time.Duration // 0 disables expiry
}

// NewL2Cache dials addr and verifies connectivity with a PING, the way
// db/dragonflydb.go does before trusting the connection.
func NewL2Cache(ctx context.Context, cfg L2Config) (*L2Cache, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "graphstore:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: l2: connect to %s: %w", cfg.Addr, err)
	}
	return &L2Cache{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// Close releases the underlying Redis connection pool.
func (l *L2Cache) Close() error { return l.client.Close() }

// Get returns the raw bytes stored for key, or ok=false on a cache miss.
func (l *L2Cache) Get(ctx context.Context, key string) (data []byte, ok bool, err error) {
	data, err = l.client.Get(ctx, l.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: l2: get %q: %w", key, err)
	}
	return data, true, nil
}

// Set writes data for key, applying the configured TTL if any.
func (l *L2Cache) Set(ctx context.Context, key string, data []byte) error {
	if err := l.client.Set(ctx, l.prefix+key, data, l.ttl).Err(); err != nil {
		return fmt.Errorf("cache: l2: set %q: %w", key, err)
	}
	return nil
}

// Invalidate evicts key, called synchronously by every write path so a
// stale L2 entry can never outlive the write that superseded it.
func (l *L2Cache) Invalidate(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache: l2: invalidate %q: %w", key, err)
	}
	return nil
}

// L2Key builds the flat string key L2Cache stores an (path, attrKey,
// branch, rev) tuple under. Unlike PathMap's in-process joinPath, this key
// is shared across processes, so every segment is escaped against the
// ":" separator.
func L2Key(path []string, attrKey, branchName string, rev int) string {
	var b strings.Builder
	for _, seg := range path {
		b.WriteString(escapeSegment(seg))
		b.WriteByte(':')
	}
	b.WriteString(escapeSegment(attrKey))
	b.WriteByte(':')
	b.WriteString(escapeSegment(branchName))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(rev))
	return b.String()
}

func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	return strings.ReplaceAll(s, ":", "\\:")
}
