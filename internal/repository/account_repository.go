package repository

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/relation-engine/internal/model"
)

type AccountRepository interface {
	Create(ctx context.Context, username string, privacy model.PrivacyMode) (*model.Account, error)
	Get(ctx context.Context, id string) (*model.Account, error)
	// LockPair 按 id 升序对两个账号加行锁并返回，任一不存在返回 ErrNotFound
	LockPair(ctx context.Context, a, b string) (map[string]*model.Account, error)
	SetPrivacy(ctx context.Context, id string, privacy model.PrivacyMode) error
}

type accountRepository struct{ db *gorm.DB }

func NewAccountRepository(db *gorm.DB) AccountRepository { return &accountRepository{db: db} }

func (r *accountRepository) Create(ctx context.Context, username string, privacy model.PrivacyMode) (*model.Account, error) {
	a := &model.Account{ID: uuid.New().String(), Username: username, Privacy: privacy}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *accountRepository) LockPair(ctx context.Context, a, b string) (map[string]*model.Account, error) {
	ids := []string{a, b}
	sort.Strings(ids)
	var rows []*model.Account
	// SQLite 驱动会忽略 FOR UPDATE，写事务本身已串行
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]*model.Account, len(rows))
	for _, row := range rows {
		out[row.ID] = row
	}
	if out[a] == nil || out[b] == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

func (r *accountRepository) SetPrivacy(ctx context.Context, id string, privacy model.PrivacyMode) error {
	res := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("privacy", privacy)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
