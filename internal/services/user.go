package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/morinaga/stockbot-backend/internal/logger"
	"github.com/morinaga/stockbot-backend/internal/repos"
	"github.com/morinaga/stockbot-backend/internal/types"
)

type UserService interface {
	// ResolveOrCreate maps an external messaging-platform identifier to the
	// internal user row, creating it on first contact. Idempotent.
	ResolveOrCreate(ctx context.Context, uid string) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) ResolveOrCreate(ctx context.Context, uid string) (*types.User, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, fmt.Errorf("uid required")
	}

	var out *types.User
	if err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := us.userRepo.UpsertByUID(ctx, tx, uid)
		if err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("user not found after upsert")
		}
		out = user
		return nil
	}); err != nil {
		us.log.Warn("ResolveOrCreate transaction error", "uid", uid, "error", err)
		return nil, err
	}
	return out, nil
}
