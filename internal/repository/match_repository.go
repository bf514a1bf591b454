package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/relation-engine/internal/model"
)

type MatchRepository interface {
	// Create 为无序对创建 active 匹配；已存在时返回现有记录与 created=false
	Create(ctx context.Context, a, b string, at time.Time) (*model.Match, bool, error)
	FindActive(ctx context.Context, a, b string) (*model.Match, error)
	GetForUpdate(ctx context.Context, id string) (*model.Match, error)
	Deactivate(ctx context.Context, id, by string, at time.Time) error
	ListActive(ctx context.Context, userID string, offset, limit int) ([]*model.Match, error)
}

type matchRepository struct{ db *gorm.DB }

func NewMatchRepository(db *gorm.DB) MatchRepository { return &matchRepository{db: db} }

func (r *matchRepository) Create(ctx context.Context, a, b string, at time.Time) (*model.Match, bool, error) {
	u1, u2 := model.OrderedPair(a, b)
	m := &model.Match{ID: uuid.New().String(), User1ID: u1, User2ID: u2, MatchedAt: at, Active: true}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil && translate(res.Error) != ErrDuplicate {
		return nil, false, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return m, true, nil
	}
	existing, err := r.FindActive(ctx, u1, u2)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *matchRepository) FindActive(ctx context.Context, a, b string) (*model.Match, error) {
	u1, u2 := model.OrderedPair(a, b)
	var m model.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ? AND active = ?", u1, u2, true).
		First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *matchRepository) GetForUpdate(ctx context.Context, id string) (*model.Match, error) {
	var m model.Match
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (r *matchRepository) Deactivate(ctx context.Context, id, by string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Match{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{"active": false, "unmatched_at": at, "unmatched_by": by})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *matchRepository) ListActive(ctx context.Context, userID string, offset, limit int) ([]*model.Match, error) {
	var res []*model.Match
	err := r.db.WithContext(ctx).
		Where("(user1_id = ? OR user2_id = ?) AND active = ?", userID, userID, true).
		Order("matched_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
