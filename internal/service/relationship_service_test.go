package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/relation-engine/internal/cache"
	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/internal/repository"
)

func setupService(t *testing.T, opts Options) (RelationshipService, *repository.Store) {
	t.Helper()
	store := setupStore(t)
	return NewRelationshipService(store, opts), store
}

func TestRelationshipService_Scenario(t *testing.T) {
	svc, store := setupService(t, Options{})
	ctx := context.Background()

	a, err := svc.RegisterAccount(ctx, "a", "")
	require.NoError(t, err)
	u1, err := svc.RegisterAccount(ctx, "u1", model.PrivacyPublic)
	require.NoError(t, err)
	u2, err := svc.RegisterAccount(ctx, "u2", model.PrivacyGated)
	require.NoError(t, err)
	assert.Equal(t, model.PrivacyPublic, a.Privacy)

	out, err := svc.ProposeFollow(ctx, a.ID, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFollowing, out)
	u1Inbox, err := svc.Notifications().List(ctx, u1.ID, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, u1Inbox, 1)
	assert.Equal(t, model.NotificationFollow, u1Inbox[0].Type)
	assert.Equal(t, a.ID, u1Inbox[0].PrimaryRefID)

	out, err = svc.ProposeFollow(ctx, a.ID, u2.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequested, out)
	incoming, err := svc.ListIncomingRequests(ctx, u2.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, model.FollowRequestPending, incoming[0].Status)
	u2Inbox, err := svc.Notifications().List(ctx, u2.ID, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, u2Inbox, 1)
	assert.Equal(t, model.NotificationFollowRequest, u2Inbox[0].Type)
	assert.Equal(t, incoming[0].ID, u2Inbox[0].SecondaryRefID)

	require.NoError(t, svc.Approve(ctx, incoming[0].ID, u2.ID))
	ok, err := store.Follows.Exists(ctx, a.ID, u2.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	aInbox, err := svc.Notifications().List(ctx, a.ID, false, 1, 10)
	require.NoError(t, err)
	require.Len(t, aInbox, 1)
	assert.Equal(t, model.NotificationFollowRequestApproved, aInbox[0].Type)

	following, err := svc.ListFollowing(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{u1.ID, u2.ID}, following)
	fans, err := svc.ListFans(ctx, u2.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, fans)
}

func TestRelationshipService_RegisterAccount(t *testing.T) {
	svc, _ := setupService(t, Options{})
	ctx := context.Background()

	_, err := svc.RegisterAccount(ctx, "  ", model.PrivacyPublic)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	_, err = svc.RegisterAccount(ctx, "bob", model.PrivacyMode("friends"))
	assert.ErrorIs(t, err, ErrInvalidOperation)

	bob, err := svc.RegisterAccount(ctx, "bob", model.PrivacyPublic)
	require.NoError(t, err)
	_, err = svc.RegisterAccount(ctx, "bob", model.PrivacyGated)
	assert.ErrorIs(t, err, ErrAlreadyActed)

	id, err := svc.ResolveIdentity(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, id)
	_, err = svc.ResolveIdentity(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.SetPrivacy(ctx, bob.ID, "secret"), ErrInvalidOperation)
	assert.ErrorIs(t, svc.SetPrivacy(ctx, "nobody", model.PrivacyGated), ErrNotFound)
	require.NoError(t, svc.SetPrivacy(ctx, bob.ID, model.PrivacyGated))
}

func TestRelationshipService_RelationshipStatus(t *testing.T) {
	svc, _ := setupService(t, Options{})
	ctx := context.Background()
	a, _ := svc.RegisterAccount(ctx, "a", model.PrivacyPublic)
	b, _ := svc.RegisterAccount(ctx, "b", model.PrivacyGated)

	st, err := svc.RelationshipStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, RelationshipStatus{Gated: true}, *st)

	_, err = svc.ProposeFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.ProposeFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)

	st, err = svc.RelationshipStatus(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, RelationshipStatus{Requested: true, FollowedBy: true, Gated: true}, *st)

	_, err = svc.RelationshipStatus(ctx, a.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRelationshipService_CountCacheInvalidation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	counts := cache.NewCountCache(rdb, time.Minute)

	svc, _ := setupService(t, Options{Counts: counts})
	ctx := context.Background()
	a, _ := svc.RegisterAccount(ctx, "a", model.PrivacyPublic)
	b, _ := svc.RegisterAccount(ctx, "b", model.PrivacyGated)
	c, _ := svc.RegisterAccount(ctx, "c", model.PrivacyPublic)

	n, err := svc.FollowerCount(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, mr.Exists("relcount:followers:"+c.ID))

	_, err = svc.ProposeFollow(ctx, a.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, mr.Exists("relcount:followers:"+c.ID))
	n, err = svc.FollowerCount(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// 申请被批准后才失效
	n, err = svc.FollowingCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = svc.ProposeFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, mr.Exists("relcount:followings:"+a.ID))
	reqs, err := svc.ListOutgoingRequests(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.NoError(t, svc.Approve(ctx, reqs[0].ID, b.ID))
	assert.False(t, mr.Exists("relcount:followings:"+a.ID))
	n, err = svc.FollowingCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, svc.Unfollow(ctx, a.ID, c.ID))
	n, err = svc.FollowerCount(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, svc.RemoveFollower(ctx, b.ID, a.ID))
	n, err = svc.FollowingCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRelationshipService_CountNotCachedWhenFollowCommitsDuringLoad(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc, store := setupService(t, Options{Counts: cache.NewCountCache(rdb, time.Minute)})
	ctx := context.Background()
	a, _ := svc.RegisterAccount(ctx, "a", model.PrivacyPublic)
	c, _ := svc.RegisterAccount(ctx, "c", model.PrivacyPublic)

	// commit a->c right after the follower count was read from the store
	var armed atomic.Bool
	const cb = "test:follow_after_count"
	require.NoError(t, store.DB().Callback().Query().After("gorm:query").Register(cb, func(tx *gorm.DB) {
		if tx.Statement.Table != "follows" || !armed.CompareAndSwap(true, false) {
			return
		}
		out, err := svc.ProposeFollow(context.Background(), a.ID, c.ID)
		require.NoError(t, err)
		require.Equal(t, OutcomeFollowing, out)
	}))
	t.Cleanup(func() { _ = store.DB().Callback().Query().Remove(cb) })

	armed.Store(true)
	n, err := svc.FollowerCount(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.False(t, armed.Load())
	assert.False(t, mr.Exists("relcount:followers:"+c.ID))

	n, err = svc.FollowerCount(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, mr.Exists("relcount:followers:"+c.ID))
}

func TestRelationshipService_WorksWithRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	svc, _ := setupService(t, Options{Counts: cache.NewCountCache(rdb, time.Minute)})
	ctx := context.Background()
	a, _ := svc.RegisterAccount(ctx, "a", model.PrivacyPublic)
	b, _ := svc.RegisterAccount(ctx, "b", model.PrivacyPublic)
	mr.Close()

	_, err := svc.ProposeFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	n, err := svc.FollowerCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRelationshipService_DatingAndRequests(t *testing.T) {
	svc, _ := setupService(t, Options{NotifyOnMatch: true})
	ctx := context.Background()
	x, _ := svc.RegisterAccount(ctx, "x", model.PrivacyPublic)
	y, _ := svc.RegisterAccount(ctx, "y", model.PrivacyGated)

	m, err := svc.Swipe(ctx, x.ID, y.ID, model.SwipeLike)
	require.NoError(t, err)
	assert.Nil(t, m)
	m, err = svc.Swipe(ctx, y.ID, x.ID, model.SwipeLike)
	require.NoError(t, err)
	require.NotNil(t, m)

	cnt, err := svc.Notifications().UnreadCount(ctx, x.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cnt)

	matches, err := svc.ListMatches(ctx, y.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.NoError(t, svc.Unmatch(ctx, y.ID, m.ID))

	_, err = svc.ProposeFollow(ctx, x.ID, y.ID)
	require.NoError(t, err)
	reqs, err := svc.ListOutgoingRequests(ctx, x.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	pending, err := svc.HasPendingRequest(ctx, x.ID, y.ID)
	require.NoError(t, err)
	assert.True(t, pending)
	require.NoError(t, svc.CancelRequest(ctx, reqs[0].ID, x.ID))

	_, err = svc.ProposeFollow(ctx, x.ID, y.ID)
	require.NoError(t, err)
	reqs, err = svc.ListIncomingRequests(ctx, y.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.NoError(t, svc.Reject(ctx, reqs[0].ID, y.ID))
	pending, err = svc.HasPendingRequest(ctx, x.ID, y.ID)
	require.NoError(t, err)
	assert.False(t, pending)
}
