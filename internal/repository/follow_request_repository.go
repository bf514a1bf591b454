package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/relation-engine/internal/model"
)

type FollowRequestRepository interface {
	// CreatePending 返回 created=false 表示已有 PENDING 申请
	CreatePending(ctx context.Context, requesterID, targetID string) (*model.FollowRequest, bool, error)
	FindPending(ctx context.Context, requesterID, targetID string) (*model.FollowRequest, error)
	// GetForUpdate 读取并加行锁
	GetForUpdate(ctx context.Context, id string) (*model.FollowRequest, error)
	// Transition 仅当当前状态为 PENDING 时更新，否则返回 ErrNotFound
	Transition(ctx context.Context, id string, to model.FollowRequestStatus) error
	ListIncomingPending(ctx context.Context, targetID string, offset, limit int) ([]*model.FollowRequest, error)
	ListOutgoingPending(ctx context.Context, requesterID string, offset, limit int) ([]*model.FollowRequest, error)
}

type followRequestRepository struct{ db *gorm.DB }

func NewFollowRequestRepository(db *gorm.DB) FollowRequestRepository {
	return &followRequestRepository{db: db}
}

func (r *followRequestRepository) CreatePending(ctx context.Context, requesterID, targetID string) (*model.FollowRequest, bool, error) {
	req := &model.FollowRequest{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      model.FollowRequestPending,
	}
	// ux_fr_pending 是部分唯一索引，DO NOTHING 不指定冲突列
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(req)
	if res.Error != nil && translate(res.Error) != ErrDuplicate {
		return nil, false, res.Error
	}
	if res.Error == nil && res.RowsAffected > 0 {
		return req, true, nil
	}
	existing, err := r.FindPending(ctx, requesterID, targetID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *followRequestRepository) FindPending(ctx context.Context, requesterID, targetID string) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND target_id = ? AND status = ?", requesterID, targetID, model.FollowRequestPending).
		First(&req).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *followRequestRepository) GetForUpdate(ctx context.Context, id string) (*model.FollowRequest, error) {
	var req model.FollowRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, translate(err)
	}
	return &req, nil
}

func (r *followRequestRepository) Transition(ctx context.Context, id string, to model.FollowRequestStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.FollowRequest{}).
		Where("id = ? AND status = ?", id, model.FollowRequestPending).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *followRequestRepository) ListIncomingPending(ctx context.Context, targetID string, offset, limit int) ([]*model.FollowRequest, error) {
	var res []*model.FollowRequest
	err := r.db.WithContext(ctx).
		Where("target_id = ? AND status = ?", targetID, model.FollowRequestPending).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}

func (r *followRequestRepository) ListOutgoingPending(ctx context.Context, requesterID string, offset, limit int) ([]*model.FollowRequest, error) {
	var res []*model.FollowRequest
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND status = ?", requesterID, model.FollowRequestPending).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
