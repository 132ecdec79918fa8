package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/types"
)

type ConversationStateRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID uint) (*types.ConversationState, error)
	Upsert(ctx context.Context, tx *gorm.DB, state *types.ConversationState) error
	Clear(ctx context.Context, tx *gorm.DB, userID uint) error
}

type conversationStateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationStateRepo(db *gorm.DB, baseLog *logger.Logger) ConversationStateRepo {
	repoLog := baseLog.With("repo", "ConversationStateRepo")
	return &conversationStateRepo{db: db, log: repoLog}
}

// Get returns the user's state row, or nil when the user is idle.
func (cr *conversationStateRepo) Get(ctx context.Context, tx *gorm.DB, userID uint) (*types.ConversationState, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.ConversationState
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&result).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// Upsert writes the one state row a user may have, keyed by user_id.
func (cr *conversationStateRepo) Upsert(ctx context.Context, tx *gorm.DB, state *types.ConversationState) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"state", "pending_group_id", "pending_alias", "updated_at"}),
		}).
		Create(state).Error
}

func (cr *conversationStateRepo) Clear(ctx context.Context, tx *gorm.DB, userID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	return transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.ConversationState{}).Error
}
