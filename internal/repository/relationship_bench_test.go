package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/d60-Lab/relation-engine/internal/model"
)

func BenchmarkFollowWrite_Idempotent(b *testing.B) {
	s := NewStore(setupTestDB(b))
	ctx := context.Background()

	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = fmt.Sprintf("u%04d", i)
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := ids[r.Intn(len(ids))]
		to := ids[r.Intn(len(ids))]
		if from == to {
			continue
		}
		_, _ = s.Follows.Create(ctx, from, to)
	}
}

func BenchmarkSwipeAndMatch(b *testing.B) {
	s := NewStore(setupTestDB(b))
	ctx := context.Background()
	now := time.Now()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x, y := fmt.Sprintf("x%d", i), fmt.Sprintf("y%d", i)
		_ = s.Transaction(ctx, func(tx *Store) error {
			if _, err := tx.Swipes.Create(ctx, x, y, model.SwipeLike, now); err != nil {
				return err
			}
			if _, err := tx.Swipes.Create(ctx, y, x, model.SwipeLike, now); err != nil {
				return err
			}
			_, _, err := tx.Matches.Create(ctx, x, y, now)
			return err
		})
	}
}

func BenchmarkQueryFollowersAndFollowing(b *testing.B) {
	s := NewStore(setupTestDB(b))
	ctx := context.Background()

	// 构造：u0 有 N 个粉丝，同时 u0 也关注 N 个用户
	const N = 5000
	for i := 1; i <= N; i++ {
		uid := fmt.Sprintf("u%v", i)
		_, _ = s.Follows.Create(ctx, uid, "u0")
		_, _ = s.Follows.Create(ctx, "u0", uid)
	}

	b.ResetTimer()
	b.Run("ListFollowers", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = s.Follows.ListFollowers(ctx, "u0", 0, 50)
		}
	})
	b.Run("ListFollowing", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = s.Follows.ListFollowings(ctx, "u0", 0, 50)
		}
	})
	b.Run("CountFollowers", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = s.Follows.CountFollowers(ctx, "u0")
		}
	})
}
