// Package resultcache implements ResultCache (SPEC_FULL.md §2.10): an
// optional Redis-backed cache keyed by a hash of (batch, variant, cleaned
// RTT series), consulted by BatchRunner after ConstraintEngine and before
// running FeasibleSubsetSolver, and populated after a successful write.
// Its absence never changes output, only how much work a rerun repeats.
//
// Grounded on WavesMan-ip-api/internal/utils/redis.go's go-redis/v9
// client construction.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps an optional redis.Client. A nil *Cache (or one built with an
// empty address) is valid and always misses.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// Open constructs a Cache against addr (REDIS_ADDR). An empty addr yields
// a no-op Cache rather than an error.
func Open(addr, pass string, ttl time.Duration) *Cache {
	if addr == "" {
		return &Cache{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr, Password: pass}), ttl: ttl}
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Key hashes (batchID, variant, series) into the cache key: sha256 over
// the variant name and every landmark's sorted RTT series, the landmarks
// themselves sorted by key so the hash is independent of map iteration
// order.
func Key(batchID int64, variant string, series map[string][]float64) string {
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	fmt.Fprintf(h, "batch=%d;variant=%s;", batchID, variant)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=", k)
		for _, v := range series[k] {
			fmt.Fprintf(h, "%.4f,", v)
		}
		h.Write([]byte{';'})
	}
	return "locate:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached region WKT for key, if present.
func (c *Cache) Get(ctx context.Context, key string) (wkt string, hit bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}
	v, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

// Set stores the region WKT for key with the cache's configured TTL.
func (c *Cache) Set(ctx context.Context, key, wkt string) {
	if c == nil || c.rdb == nil {
		return
	}
	c.rdb.Set(ctx, key, wkt, c.ttl)
}
