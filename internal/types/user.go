package types

import (
	"time"
)

// User maps an external messaging-platform identifier to an internal
// numeric id. Created on first contact, immutable afterwards.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UID       string    `gorm:"uniqueIndex;not null;column:uid" json:"uid"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "user" }
