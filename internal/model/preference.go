package model

import "time"

// NotificationPreference 每个用户每类事件的开关
type NotificationPreference struct {
	UserID          string    `gorm:"primaryKey;type:varchar(36)" json:"user_id"`
	Follow          bool      `gorm:"column:follow_notifications;not null" json:"follow_notifications"`
	FollowRequest   bool      `gorm:"column:follow_request_notifications;not null" json:"follow_request_notifications"`
	Like            bool      `gorm:"column:like_notifications;not null" json:"like_notifications"`
	Mention         bool      `gorm:"column:mention_notifications;not null" json:"mention_notifications"`
	Comment         bool      `gorm:"column:comment_notifications;not null" json:"comment_notifications"`
	DirectMessage   bool      `gorm:"column:direct_message_notifications;not null" json:"direct_message_notifications"`
	CommunityUpdate bool      `gorm:"column:community_update_notifications;not null" json:"community_update_notifications"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (NotificationPreference) TableName() string { return "notification_preferences" }

// DefaultPreference 除社区动态外默认全部开启
func DefaultPreference(userID string) *NotificationPreference {
	return &NotificationPreference{
		UserID:          userID,
		Follow:          true,
		FollowRequest:   true,
		Like:            true,
		Mention:         true,
		Comment:         true,
		DirectMessage:   true,
		CommunityUpdate: false,
	}
}

// Allows maps an event type to its flag. Types without a flag are allowed.
func (p *NotificationPreference) Allows(t NotificationType) bool {
	flag, ok := preferenceFlags[t]
	if !ok {
		return true
	}
	return flag(p)
}

var preferenceFlags = map[NotificationType]func(*NotificationPreference) bool{
	NotificationFollow:                func(p *NotificationPreference) bool { return p.Follow },
	NotificationFollowRequest:         func(p *NotificationPreference) bool { return p.FollowRequest },
	NotificationFollowRequestApproved: func(p *NotificationPreference) bool { return p.FollowRequest },
	NotificationFollowRequestRejected: func(p *NotificationPreference) bool { return p.FollowRequest },
	NotificationLike:                  func(p *NotificationPreference) bool { return p.Like },
	NotificationMatch:                 func(p *NotificationPreference) bool { return p.Like },
	NotificationMention:               func(p *NotificationPreference) bool { return p.Mention },
	NotificationComment:               func(p *NotificationPreference) bool { return p.Comment },
	NotificationDirectMessage:         func(p *NotificationPreference) bool { return p.DirectMessage },
	NotificationCommunityUpdate:       func(p *NotificationPreference) bool { return p.CommunityUpdate },
}

// PreferencePatch 部分更新，nil 字段保持不变
type PreferencePatch struct {
	Follow          *bool `json:"follow_notifications"`
	FollowRequest   *bool `json:"follow_request_notifications"`
	Like            *bool `json:"like_notifications"`
	Mention         *bool `json:"mention_notifications"`
	Comment         *bool `json:"comment_notifications"`
	DirectMessage   *bool `json:"direct_message_notifications"`
	CommunityUpdate *bool `json:"community_update_notifications"`
}

// Updates returns the column map for the set fields.
func (p PreferencePatch) Updates() map[string]any {
	out := map[string]any{}
	set := func(col string, v *bool) {
		if v != nil {
			out[col] = *v
		}
	}
	set("follow_notifications", p.Follow)
	set("follow_request_notifications", p.FollowRequest)
	set("like_notifications", p.Like)
	set("mention_notifications", p.Mention)
	set("comment_notifications", p.Comment)
	set("direct_message_notifications", p.DirectMessage)
	set("community_update_notifications", p.CommunityUpdate)
	return out
}

// Models lists every table owned by the relationship engine, for AutoMigrate.
func Models() []any {
	return []any{
		&Account{}, &Follow{}, &FollowRequest{}, &Swipe{}, &Match{},
		&NotificationPreference{}, &Notification{},
	}
}
