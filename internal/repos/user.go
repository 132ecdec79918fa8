package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/types"
)

type UserRepo interface {
	UpsertByUID(ctx context.Context, tx *gorm.DB, uid string) (*types.User, error)
	GetByUID(ctx context.Context, tx *gorm.DB, uid string) (*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

// UpsertByUID inserts a user row for uid unless one exists, then returns the
// row. Safe to call on every contact.
func (ur *userRepo) UpsertByUID(ctx context.Context, tx *gorm.DB, uid string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	row := &types.User{UID: uid}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoNothing: true,
		}).
		Create(row).Error; err != nil {
		return nil, err
	}

	// On conflict the insert is a no-op and row.ID stays zero; reload either way.
	return ur.GetByUID(ctx, transaction, uid)
}

func (ur *userRepo) GetByUID(ctx context.Context, tx *gorm.DB, uid string) (*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var result types.User
	if err := transaction.WithContext(ctx).
		Where("uid = ?", uid).
		First(&result).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
