package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/relation-engine/internal/model"
)

type PreferenceRepository interface {
	// GetOrCreate 不存在时以默认值创建
	GetOrCreate(ctx context.Context, userID string) (*model.NotificationPreference, error)
	Update(ctx context.Context, userID string, patch model.PreferencePatch) (*model.NotificationPreference, error)
}

type preferenceRepository struct{ db *gorm.DB }

func NewPreferenceRepository(db *gorm.DB) PreferenceRepository { return &preferenceRepository{db: db} }

func (r *preferenceRepository) GetOrCreate(ctx context.Context, userID string) (*model.NotificationPreference, error) {
	var p model.NotificationPreference
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if translate(err) != ErrNotFound {
		return nil, err
	}
	def := model.DefaultPreference(userID)
	// 并发首次读取时只落一行
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(def).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *preferenceRepository) Update(ctx context.Context, userID string, patch model.PreferencePatch) (*model.NotificationPreference, error) {
	if _, err := r.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	if updates := patch.Updates(); len(updates) > 0 {
		if err := r.db.WithContext(ctx).
			Model(&model.NotificationPreference{}).
			Where("user_id = ?", userID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return r.GetOrCreate(ctx, userID)
}
