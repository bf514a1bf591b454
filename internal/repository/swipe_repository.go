package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/relation-engine/internal/model"
)

type SwipeRepository interface {
	// Create 重复的有序对返回 ErrDuplicate（不是幂等）
	Create(ctx context.Context, swiperID, targetID string, dir model.SwipeDirection, at time.Time) (*model.Swipe, error)
	Get(ctx context.Context, swiperID, targetID string) (*model.Swipe, error)
	ListBySwiper(ctx context.Context, swiperID string, offset, limit int) ([]*model.Swipe, error)
}

type swipeRepository struct{ db *gorm.DB }

func NewSwipeRepository(db *gorm.DB) SwipeRepository { return &swipeRepository{db: db} }

func (r *swipeRepository) Create(ctx context.Context, swiperID, targetID string, dir model.SwipeDirection, at time.Time) (*model.Swipe, error) {
	s := &model.Swipe{ID: uuid.New().String(), SwiperID: swiperID, TargetID: targetID, Direction: dir, CreatedAt: at}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, translate(err)
	}
	return s, nil
}

func (r *swipeRepository) Get(ctx context.Context, swiperID, targetID string) (*model.Swipe, error) {
	var s model.Swipe
	err := r.db.WithContext(ctx).Where("swiper_id = ? AND target_id = ?", swiperID, targetID).First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *swipeRepository) ListBySwiper(ctx context.Context, swiperID string, offset, limit int) ([]*model.Swipe, error) {
	var res []*model.Swipe
	err := r.db.WithContext(ctx).
		Where("swiper_id = ?", swiperID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
