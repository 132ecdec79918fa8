package types

import (
	"time"
)

// ConversationState is the single persisted flow state for a user. The
// primary key on user_id guarantees at most one active state per user;
// an absent row means the user is idle. PendingGroupID/PendingAlias point
// at the group created by an open memorize flow so that cancel can delete it.
type ConversationState struct {
	UserID         uint      `gorm:"primaryKey;column:user_id" json:"user_id"`
	State          string    `gorm:"not null;column:state" json:"state"`
	PendingGroupID *uint     `gorm:"column:pending_group_id" json:"pending_group_id,omitempty"`
	PendingAlias   string    `gorm:"column:pending_alias" json:"pending_alias,omitempty"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ConversationState) TableName() string { return "conversation_state" }
