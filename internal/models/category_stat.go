package models

import "time"

// CategoryStat tracks global usage of one question category. Updated once per
// session start, not per answer.
type CategoryStat struct {
	ID         uint       `gorm:"primaryKey"`
	Name       string     `gorm:"type:varchar(100);uniqueIndex;not null"`
	TotalUses  int64      `gorm:"default:0;not null"`
	LastUsedAt *time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CategoryStat) TableName() string {
	return "category_stats"
}

// CategoryChatStat tracks usage of one category within one chat.
type CategoryChatStat struct {
	ID         uint       `gorm:"primaryKey"`
	Name       string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_cat_chat"`
	ChatID     int64      `gorm:"not null;uniqueIndex:idx_cat_chat"`
	Uses       int64      `gorm:"default:0;not null"`
	LastUsedAt *time.Time

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CategoryChatStat) TableName() string {
	return "category_chat_stats"
}
