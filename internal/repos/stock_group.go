package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/types"
)

type StockGroupRepo interface {
	Create(ctx context.Context, tx *gorm.DB, group *types.StockGroup) error
	ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*types.StockGroup, error)
	GetLatestByUser(ctx context.Context, tx *gorm.DB, userID uint) (*types.StockGroup, error)
	GetLatestByAlias(ctx context.Context, tx *gorm.DB, userID uint, alias string) (*types.StockGroup, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, userID, groupID uint) error
}

type stockGroupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStockGroupRepo(db *gorm.DB, baseLog *logger.Logger) StockGroupRepo {
	repoLog := baseLog.With("repo", "StockGroupRepo")
	return &stockGroupRepo{db: db, log: repoLog}
}

func (gr *stockGroupRepo) Create(ctx context.Context, tx *gorm.DB, group *types.StockGroup) error {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	return transaction.WithContext(ctx).Create(group).Error
}

// ListByUser returns the user's groups in creation order. The removal flow
// numbers this list, so the ordering must be stable across calls.
func (gr *stockGroupRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uint) ([]*types.StockGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var results []*types.StockGroup
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Order("id asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (gr *stockGroupRepo) GetLatestByUser(ctx context.Context, tx *gorm.DB, userID uint) (*types.StockGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var result types.StockGroup
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Order("id desc").
		First(&result).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

// GetLatestByAlias resolves an alias last-write-wins: aliases are not unique,
// the most recently created group shadows older ones.
func (gr *stockGroupRepo) GetLatestByAlias(ctx context.Context, tx *gorm.DB, userID uint, alias string) (*types.StockGroup, error) {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}

	var result types.StockGroup
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("alias = ?", alias).
		Order("created_at desc").
		Order("id desc").
		First(&result).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (gr *stockGroupRepo) DeleteByID(ctx context.Context, tx *gorm.DB, userID, groupID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = gr.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", groupID).
		Where("user_id = ?", userID).
		Delete(&types.StockGroup{}).Error
}
