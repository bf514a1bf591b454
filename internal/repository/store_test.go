package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/pkg/database"
)

func setupTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestAccountRepository(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	a, err := s.Accounts.Create(ctx, "alice", model.PrivacyPublic)
	require.NoError(t, err)
	b, err := s.Accounts.Create(ctx, "bob", model.PrivacyGated)
	require.NoError(t, err)

	_, err = s.Accounts.Create(ctx, "alice", model.PrivacyPublic)
	assert.ErrorIs(t, err, ErrDuplicate)

	pair, err := s.Accounts.LockPair(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", pair[a.ID].Username)
	assert.True(t, pair[b.ID].IsGated())

	_, err = s.Accounts.LockPair(ctx, a.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Accounts.SetPrivacy(ctx, a.ID, model.PrivacyGated))
	got, err := s.Accounts.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.IsGated())
	assert.ErrorIs(t, s.Accounts.SetPrivacy(ctx, "missing", model.PrivacyGated), ErrNotFound)
}

func TestFollowRepository(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	created, err := s.Follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.Follows.Create(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, created)
	_, err = s.Follows.Create(ctx, "c", "b")
	require.NoError(t, err)

	n, err := s.Follows.CountFollowers(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = s.Follows.CountFollowings(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	fans, err := s.Follows.ListFollowers(ctx, "b", 0, 10)
	require.NoError(t, err)
	assert.Len(t, fans, 2)

	removed, err := s.Follows.Delete(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.Follows.Delete(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, removed)
	ok, err := s.Follows.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFollowRequestRepository_OnePendingPerPair(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	req, created, err := s.FollowRequests.CreatePending(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.FollowRequests.CreatePending(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, req.ID, again.ID)

	require.NoError(t, s.FollowRequests.Transition(ctx, req.ID, model.FollowRequestRejected))
	assert.ErrorIs(t, s.FollowRequests.Transition(ctx, req.ID, model.FollowRequestApproved), ErrNotFound)

	// 终态记录不占用部分唯一索引
	next, created, err := s.FollowRequests.CreatePending(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, req.ID, next.ID)

	in, err := s.FollowRequests.ListIncomingPending(ctx, "b", 0, 10)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, next.ID, in[0].ID)
	out, err := s.FollowRequests.ListOutgoingPending(ctx, "a", 0, 10)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	_, err = s.FollowRequests.GetForUpdate(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSwipeRepository_UniquePair(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	_, err := s.Swipes.Create(ctx, "x", "y", model.SwipeLike, now)
	require.NoError(t, err)
	_, err = s.Swipes.Create(ctx, "x", "y", model.SwipePass, now)
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = s.Swipes.Create(ctx, "y", "x", model.SwipePass, now)
	require.NoError(t, err)

	got, err := s.Swipes.Get(ctx, "x", "y")
	require.NoError(t, err)
	assert.Equal(t, model.SwipeLike, got.Direction)

	list, err := s.Swipes.ListBySwiper(ctx, "x", 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMatchRepository(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Now()

	m, created, err := s.Matches.Create(ctx, "y", "x", now)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "x", m.User1ID)
	assert.Equal(t, "y", m.User2ID)

	again, created, err := s.Matches.Create(ctx, "x", "y", now)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, m.ID, again.ID)

	require.NoError(t, s.Matches.Deactivate(ctx, m.ID, "x", now))
	assert.ErrorIs(t, s.Matches.Deactivate(ctx, m.ID, "y", now), ErrNotFound)
	_, err = s.Matches.FindActive(ctx, "x", "y")
	assert.ErrorIs(t, err, ErrNotFound)

	// 解除后同一对可以再次匹配
	_, created, err = s.Matches.Create(ctx, "x", "y", now)
	require.NoError(t, err)
	assert.True(t, created)
	list, err := s.Matches.ListActive(ctx, "y", 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPreferenceRepository(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	p, err := s.Preferences.GetOrCreate(ctx, "u")
	require.NoError(t, err)
	assert.True(t, p.Follow)
	assert.False(t, p.CommunityUpdate)

	off := false
	p, err = s.Preferences.Update(ctx, "u", model.PreferencePatch{Follow: &off})
	require.NoError(t, err)
	assert.False(t, p.Follow)
	assert.True(t, p.Like)

	p, err = s.Preferences.GetOrCreate(ctx, "u")
	require.NoError(t, err)
	assert.False(t, p.Follow)
}

func TestNotificationRepository(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()

	n := &model.Notification{RecipientID: "u", Type: model.NotificationLike, Message: "m", CreatedAt: time.Now()}
	require.NoError(t, s.Notifications.Create(ctx, n))
	assert.NotEmpty(t, n.ID)
	require.NoError(t, s.Notifications.Create(ctx, &model.Notification{RecipientID: "u", Type: model.NotificationFollow, CreatedAt: time.Now()}))

	cnt, err := s.Notifications.CountUnread(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cnt)

	require.NoError(t, s.Notifications.MarkRead(ctx, n.ID, time.Now()))
	got, err := s.Notifications.Get(ctx, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)
	assert.NotNil(t, got.ReadAt)

	changed, err := s.Notifications.MarkAllRead(ctx, "u", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
}

func TestStoreTransaction_RollsBack(t *testing.T) {
	s := NewStore(setupTestDB(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Follows.Create(ctx, "a", "b"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	ok, err := s.Follows.Exists(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, ok)
}
