// cachebench 对比粉丝数查询走 Redis 计数缓存与直接回源数据库的延迟
package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/relation-engine/config"
	"github.com/d60-Lab/relation-engine/internal/cache"
	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/internal/repository"
	"github.com/d60-Lab/relation-engine/internal/service"
	"github.com/d60-Lab/relation-engine/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	db := must(database.InitDB(cfg))
	store := repository.NewStore(db)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Fprintf(os.Stderr, "redis %s: %v\n", cfg.Redis.Addr, err)
		os.Exit(1)
	}

	counts := cache.NewCountCache(rdb, cfg.Redis.CountTTL)
	cached := service.NewRelationshipService(store, service.Options{Counts: counts})
	direct := service.NewRelationshipService(store, service.Options{})

	const (
		celebs    = 20
		fansEach  = 2000
		reads     = 20000
		writeEach = 50 // 每 writeEach 次读插入一次关注，触发失效
	)
	runID := strconv.FormatInt(time.Now().UnixNano(), 36)

	fmt.Println("Setting up test data...")
	stars := make([]string, celebs)
	for i := range stars {
		stars[i] = must(direct.RegisterAccount(ctx, fmt.Sprintf("star%d-%s", i, runID), model.PrivacyPublic)).ID
	}
	fans := make([]string, fansEach)
	for i := range fans {
		fans[i] = must(direct.RegisterAccount(ctx, fmt.Sprintf("fan%d-%s", i, runID), model.PrivacyPublic)).ID
		for _, s := range stars {
			if _, err := store.Follows.Create(ctx, fans[i], s); err != nil {
				panic(err)
			}
		}
	}

	// 热点分布：20% 的明星承接 80% 的读
	pick := func(r *rand.Rand) string {
		if r.Float64() < 0.8 {
			return stars[r.Intn(celebs/5)]
		}
		return stars[r.Intn(celebs)]
	}

	run := func(name string, svc service.RelationshipService) {
		r := rand.New(rand.NewSource(42))
		recs := make([]time.Duration, 0, reads)
		t0 := time.Now()
		for i := 0; i < reads; i++ {
			if i%writeEach == 0 {
				// 新增一个关注者后必须读到新值
				acc := must(direct.RegisterAccount(ctx, fmt.Sprintf("late%d-%s-%s", i, name, runID), model.PrivacyPublic))
				_ = must(svc.ProposeFollow(ctx, acc.ID, pick(r)))
			}
			st := time.Now()
			_ = must(svc.FollowerCount(ctx, pick(r)))
			recs = append(recs, time.Since(st))
		}
		total := time.Since(t0)
		fmt.Printf("%-8s reads=%d total=%v p50=%v p95=%v p99=%v\n",
			name, reads, total, pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	}

	run("direct", direct)
	run("cached", cached)

	c := counts.Counters()
	ratio := 0.0
	if c.Hits+c.Misses > 0 {
		ratio = float64(c.Hits) / float64(c.Hits+c.Misses)
	}
	fmt.Printf("cache hits=%d misses=%d hit_ratio=%.2f%%\n", c.Hits, c.Misses, ratio*100)

	// 一致性：缓存结果与数据库一致
	for _, s := range stars {
		want := must(store.Follows.CountFollowers(ctx, s))
		got := must(cached.FollowerCount(ctx, s))
		if want != got {
			fmt.Printf("stale count for %s: cached=%d db=%d\n", s, got, want)
			os.Exit(1)
		}
	}
	fmt.Println("check: cached counts match database")
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}
