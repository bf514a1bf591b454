// relbench 并发压测关注/滑动的竞态路径，并校验结果唯一性
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/d60-Lab/relation-engine/config"
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

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
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

// runConcurrent 用 conc 个 worker 执行 n 个任务，返回每个任务的耗时与失败数
func runConcurrent(n, conc int, fn func(i int) error) ([]time.Duration, int, time.Duration) {
	if conc > n {
		conc = n
	}
	feed := make(chan int, n)
	for i := 0; i < n; i++ {
		feed <- i
	}
	close(feed)

	var (
		mu    sync.Mutex
		recs  = make([]time.Duration, 0, n)
		fails int
		wg    sync.WaitGroup
	)
	t0 := time.Now()
	for w := 0; w < conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				st := time.Now()
				err := fn(i)
				d := time.Since(st)
				mu.Lock()
				recs = append(recs, d)
				if err != nil {
					fails++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return recs, fails, time.Since(t0)
}

func report(name string, recs []time.Duration, fails int, total time.Duration) {
	fmt.Printf("%-22s ops=%d fails=%d total=%v p50=%v p95=%v p99=%v\n",
		name, len(recs), fails, total, pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
}

func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	store := repository.NewStore(db)
	svc := service.NewRelationshipService(store, service.Options{NotifyOnMatch: cfg.Dating.NotifyOnMatch})
	ctx := context.Background()

	N := envInt("N", 2000)
	CONC := envInt("CONC", 8)
	PAGE := envInt("PAGE", 50)
	runID := strconv.FormatInt(time.Now().UnixNano(), 36)

	pub := must(svc.RegisterAccount(ctx, "celeb-pub-"+runID, model.PrivacyPublic))
	gated := must(svc.RegisterAccount(ctx, "celeb-gated-"+runID, model.PrivacyGated))
	users := make([]*model.Account, N)
	for i := range users {
		users[i] = must(svc.RegisterAccount(ctx, fmt.Sprintf("u%d-%s", i, runID), model.PrivacyPublic))
	}

	fmt.Printf("N=%d, CONC=%d, PAGE=%d\n", N, CONC, PAGE)

	// 每个用户对公开账号重复关注两次，两次请求并发竞争
	recs, fails, total := runConcurrent(2*N, CONC, func(i int) error {
		_, err := svc.ProposeFollow(ctx, users[i/2].ID, pub.ID)
		return err
	})
	report("follow public (x2)", recs, fails, total)

	recs, fails, total = runConcurrent(2*N, CONC, func(i int) error {
		_, err := svc.ProposeFollow(ctx, users[i/2].ID, gated.ID)
		return err
	})
	report("request gated (x2)", recs, fails, total)

	reqs := make([]*model.FollowRequest, 0, N)
	for page := 1; ; page++ {
		batch := must(svc.ListIncomingRequests(ctx, gated.ID, page, 100))
		if len(batch) == 0 {
			break
		}
		reqs = append(reqs, batch...)
	}
	recs, fails, total = runConcurrent(len(reqs), CONC, func(i int) error {
		if i%2 == 0 {
			return svc.Approve(ctx, reqs[i].ID, gated.ID)
		}
		return svc.Reject(ctx, reqs[i].ID, gated.ID)
	})
	report("approve/reject", recs, fails, total)

	// 相邻两人同时互相 LIKE
	pairs := N / 2
	recs, fails, total = runConcurrent(2*pairs, CONC, func(i int) error {
		a, b := users[2*(i/2)], users[2*(i/2)+1]
		if i%2 == 1 {
			a, b = b, a
		}
		_, err := svc.Swipe(ctx, a.ID, b.ID, model.SwipeLike)
		return err
	})
	report("reciprocal like", recs, fails, total)

	q0 := time.Now()
	_ = must(svc.ListFans(ctx, pub.ID, 1, PAGE))
	fmt.Printf("Query fans(%d) latency: %v\n", PAGE, time.Since(q0))

	pubFans := must(svc.FollowerCount(ctx, pub.ID))
	gatedFans := must(svc.FollowerCount(ctx, gated.ID))
	var matches int64
	must(0, db.Model(&model.Match{}).
		Where("active = ? AND (user1_id IN ? OR user2_id IN ?)", true, ids(users), ids(users)).
		Count(&matches).Error)

	ok := pubFans == int64(N) && len(reqs) == N && gatedFans == int64((N+1)/2) && matches == int64(pairs)
	fmt.Printf("check: public fans=%d/%d pending=%d/%d gated fans=%d/%d matches=%d/%d ok=%v\n",
		pubFans, N, len(reqs), N, gatedFans, (N+1)/2, matches, pairs, ok)
	if !ok {
		os.Exit(1)
	}
}

func ids(accs []*model.Account) []string {
	out := make([]string, len(accs))
	for i, a := range accs {
		out[i] = a.ID
	}
	return out
}
