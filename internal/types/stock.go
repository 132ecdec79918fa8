package types

import (
	"time"
)

// Stock is one memorized text snippet. It belongs to exactly one group and,
// through it, one user. Immutable once written.
type Stock struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Content      string    `gorm:"type:text;not null;column:content" json:"content"`
	StockGroupID uint      `gorm:"not null;index;column:stock_group_id" json:"stock_group_id"`
	UserID       uint      `gorm:"not null;index;column:user_id" json:"user_id"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Stock) TableName() string { return "stock" }
