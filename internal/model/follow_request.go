package model

import "time"

// FollowRequestStatus 关注申请状态，只能 PENDING -> APPROVED / REJECTED
type FollowRequestStatus string

const (
	FollowRequestPending  FollowRequestStatus = "PENDING"
	FollowRequestApproved FollowRequestStatus = "APPROVED"
	FollowRequestRejected FollowRequestStatus = "REJECTED"
)

// FollowRequest 关注申请（A 申请关注私密账号 B）
type FollowRequest struct {
	ID          string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RequesterID string `gorm:"type:varchar(36);not null;index:idx_fr_requester;uniqueIndex:ux_fr_pending,where:status = 'PENDING'" json:"requester_id"`
	TargetID    string `gorm:"type:varchar(36);not null;index:idx_fr_target_status;uniqueIndex:ux_fr_pending,where:status = 'PENDING'" json:"target_id"`
	// 同一 (requester, target) 同时最多一条 PENDING
	Status    FollowRequestStatus `gorm:"type:varchar(16);not null;index:idx_fr_target_status" json:"status"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func (FollowRequest) TableName() string { return "follow_requests" }

func (r *FollowRequest) IsPending() bool { return r.Status == FollowRequestPending }
