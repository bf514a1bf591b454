package model

import "time"

// Match 互相 LIKE 的结果。User1ID < User2ID，无序对在 active 时唯一
type Match struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	User1ID     string     `gorm:"type:varchar(36);not null;index:idx_match_user1;uniqueIndex:ux_match_active_pair,where:active = true" json:"user1_id"`
	User2ID     string     `gorm:"type:varchar(36);not null;index:idx_match_user2;uniqueIndex:ux_match_active_pair,where:active = true" json:"user2_id"`
	MatchedAt   time.Time  `gorm:"not null" json:"matched_at"`
	Active      bool       `gorm:"not null;default:true" json:"active"`
	UnmatchedAt *time.Time `json:"unmatched_at,omitempty"`
	UnmatchedBy *string    `gorm:"type:varchar(36)" json:"unmatched_by,omitempty"`
}

func (Match) TableName() string { return "matches" }

// OrderedPair 返回规范化后的无序对
func OrderedPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// Involves reports whether userID is one side of the match.
func (m *Match) Involves(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

// Other returns the participant that is not userID.
func (m *Match) Other(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}
