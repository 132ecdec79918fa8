package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/types"
)

type StockRepo interface {
	Create(ctx context.Context, tx *gorm.DB, stock *types.Stock) error
	ListByGroup(ctx context.Context, tx *gorm.DB, groupID uint) ([]*types.Stock, error)
	DeleteByGroup(ctx context.Context, tx *gorm.DB, groupID uint) error
}

type stockRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStockRepo(db *gorm.DB, baseLog *logger.Logger) StockRepo {
	repoLog := baseLog.With("repo", "StockRepo")
	return &stockRepo{db: db, log: repoLog}
}

func (sr *stockRepo) Create(ctx context.Context, tx *gorm.DB, stock *types.Stock) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).Create(stock).Error
}

func (sr *stockRepo) ListByGroup(ctx context.Context, tx *gorm.DB, groupID uint) ([]*types.Stock, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}

	var results []*types.Stock
	if err := transaction.WithContext(ctx).
		Where("stock_group_id = ?", groupID).
		Order("created_at asc").
		Order("id asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *stockRepo) DeleteByGroup(ctx context.Context, tx *gorm.DB, groupID uint) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	return transaction.WithContext(ctx).
		Where("stock_group_id = ?", groupID).
		Delete(&types.Stock{}).Error
}
