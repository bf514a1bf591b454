package model

import "time"

// NotificationType 通知事件类型（封闭枚举）
type NotificationType string

const (
	NotificationFollow                NotificationType = "follow"
	NotificationFollowRequest         NotificationType = "follow_request"
	NotificationFollowRequestApproved NotificationType = "follow_request_approved"
	NotificationFollowRequestRejected NotificationType = "follow_request_rejected"
	NotificationLike                  NotificationType = "like"
	NotificationMatch                 NotificationType = "match"
	NotificationMention               NotificationType = "mention"
	NotificationComment               NotificationType = "comment"
	NotificationDirectMessage         NotificationType = "direct_message"
	NotificationCommunityUpdate       NotificationType = "community_update"
)

// Notification 已落库的提醒
type Notification struct {
	ID             string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RecipientID    string           `gorm:"type:varchar(36);not null;index:idx_notification_recipient" json:"recipient_id"`
	Type           NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Message        string           `gorm:"type:text" json:"message"`
	PrimaryRefID   string           `gorm:"type:varchar(36)" json:"primary_ref_id,omitempty"`
	SecondaryRefID string           `gorm:"type:varchar(36)" json:"secondary_ref_id,omitempty"`
	ContextID      string           `gorm:"type:varchar(36)" json:"context_id,omitempty"`
	Read           bool             `gorm:"column:is_read;not null;default:false;index:idx_notification_recipient" json:"read"`
	ReadAt         *time.Time       `json:"read_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
