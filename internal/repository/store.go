package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store 关系链存储：聚合所有仓储，并提供事务边界
type Store struct {
	db *gorm.DB

	Accounts       AccountRepository
	Follows        FollowRepository
	FollowRequests FollowRequestRepository
	Swipes         SwipeRepository
	Matches        MatchRepository
	Notifications  NotificationRepository
	Preferences    PreferenceRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:             db,
		Accounts:       NewAccountRepository(db),
		Follows:        NewFollowRepository(db),
		FollowRequests: NewFollowRequestRepository(db),
		Swipes:         NewSwipeRepository(db),
		Matches:        NewMatchRepository(db),
		Notifications:  NewNotificationRepository(db),
		Preferences:    NewPreferenceRepository(db),
	}
}

// Transaction 在一个事务内执行 fn，fn 收到的 Store 全部绑定到该事务。
// fn 内不得再使用外层 Store。
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *gorm.DB { return s.db }
