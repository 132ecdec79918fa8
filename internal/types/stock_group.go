package types

import (
	"time"
)

// StockGroup is a named collection of memorized snippets. Aliases are not
// unique per user; retrieval always resolves the most recently created
// group with a given alias.
type StockGroup struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Alias     string    `gorm:"not null;index;column:alias" json:"alias"`
	UserID    uint      `gorm:"not null;index;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (StockGroup) TableName() string { return "stock_group" }
