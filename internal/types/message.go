package types

import (
	"time"
)

// Message is inbound chat history. The engine appends one row per received
// text message and never reads it back for state; conversation state lives
// in ConversationState.
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Content   string    `gorm:"type:text;not null;column:content" json:"content"`
	UserID    uint      `gorm:"not null;index;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Message) TableName() string { return "message" }
