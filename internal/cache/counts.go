package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// CountKind selects which side of the follow graph a count describes.
type CountKind string

const (
	Followers  CountKind = "followers"
	Followings CountKind = "followings"
)

// CountCache caches follower/following counts. Only aggregates are cached;
// follow state itself is always read from the store.
type CountCache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCountCache returns nil when client is nil; a nil *CountCache is a valid
// always-miss cache.
func NewCountCache(client *redis.Client, ttl time.Duration) *CountCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CountCache{client: client, ttl: ttl}
}

// genTTL only has to outlive one load-then-Set window; it keeps idle
// generation keys from piling up.
const genTTL = 24 * time.Hour

func key(kind CountKind, userID string) string {
	return fmt.Sprintf("relcount:%s:%s", kind, userID)
}

func genKey(kind CountKind, userID string) string {
	return fmt.Sprintf("relcount:gen:%s:%s", kind, userID)
}

// setIfGen stores the count only while the generation still equals the one
// the reader saw before loading from the store.
var setIfGen = redis.NewScript(`
local g = redis.call('GET', KEYS[2])
if (g or '0') ~= ARGV[2] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// Get returns the cached count with ok=true on a hit. On a miss gen is the
// generation to hand back to Set once the count was loaded from the store;
// gen is -1 when redis could not be read, and Set then skips the write.
func (c *CountCache) Get(ctx context.Context, kind CountKind, userID string) (n int64, gen int64, ok bool) {
	if c == nil {
		return 0, -1, false
	}
	vals, err := c.client.MGet(ctx, key(kind, userID), genKey(kind, userID)).Result()
	if err != nil {
		c.misses.Add(1)
		return 0, -1, false
	}
	gen = 0
	if g, isStr := vals[1].(string); isStr {
		if gen, err = strconv.ParseInt(g, 10, 64); err != nil {
			c.misses.Add(1)
			return 0, -1, false
		}
	}
	v, isStr := vals[0].(string)
	if !isStr {
		c.misses.Add(1)
		return 0, gen, false
	}
	if n, err = strconv.ParseInt(v, 10, 64); err != nil {
		c.misses.Add(1)
		return 0, gen, false
	}
	c.hits.Add(1)
	return n, gen, true
}

// Set caches n unless an InvalidateEdge ran since the Get that returned gen.
// stored=false with a nil error means the value was already stale.
func (c *CountCache) Set(ctx context.Context, kind CountKind, userID string, n, gen int64) (stored bool, err error) {
	if c == nil || gen < 0 {
		return false, nil
	}
	res, err := setIfGen.Run(ctx, c.client,
		[]string{key(kind, userID), genKey(kind, userID)},
		strconv.FormatInt(n, 10), strconv.FormatInt(gen, 10), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// InvalidateEdge drops both counts touched by a follower->followee edge change
// and bumps their generations so an in-flight Set of an older load is refused.
// Call it after the transaction that changed the edge has committed.
func (c *CountCache) InvalidateEdge(ctx context.Context, followerID, followeeID string) error {
	if c == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range []struct {
			kind CountKind
			id   string
		}{{Followings, followerID}, {Followers, followeeID}} {
			pipe.Incr(ctx, genKey(k.kind, k.id))
			pipe.Expire(ctx, genKey(k.kind, k.id), genTTL)
			pipe.Del(ctx, key(k.kind, k.id))
		}
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// CacheCounters summarises cache effectiveness.
type CacheCounters struct {
	Hits   int64
	Misses int64
}

func (c *CountCache) Counters() CacheCounters {
	if c == nil {
		return CacheCounters{}
	}
	return CacheCounters{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
