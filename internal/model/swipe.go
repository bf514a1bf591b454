package model

import "time"

type SwipeDirection string

const (
	SwipeLike SwipeDirection = "LIKE"
	SwipePass SwipeDirection = "PASS"
)

func (d SwipeDirection) Valid() bool { return d == SwipeLike || d == SwipePass }

// Swipe 约会滑动记录，每个有序 (swiper, target) 只允许一条
type Swipe struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SwiperID  string         `gorm:"type:varchar(36);not null;uniqueIndex:ux_swipe_pair" json:"swiper_id"`
	TargetID  string         `gorm:"type:varchar(36);not null;uniqueIndex:ux_swipe_pair;index:idx_swipe_target" json:"target_id"`
	Direction SwipeDirection `gorm:"type:varchar(8);not null" json:"direction"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Swipe) TableName() string { return "swipes" }
