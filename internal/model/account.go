package model

import "time"

// PrivacyMode 账号隐私模式
type PrivacyMode string

const (
	PrivacyPublic PrivacyMode = "public"
	// PrivacyGated 关注需要本人审批
	PrivacyGated PrivacyMode = "gated"
)

func (m PrivacyMode) Valid() bool {
	return m == PrivacyPublic || m == PrivacyGated
}

// Account 用户身份（仅关系链所需字段）
type Account struct {
	ID        string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username  string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Privacy   PrivacyMode `gorm:"type:varchar(16);not null;default:'public'" json:"privacy"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

func (a *Account) IsGated() bool { return a.Privacy == PrivacyGated }
